package model

import "time"

// ActivityStatus is the publication state of a persisted activity.
type ActivityStatus string

const (
	StatusEsborrany ActivityStatus = "esborrany"
	StatusPendent   ActivityStatus = "pendent"
	StatusPublicada ActivityStatus = "publicada"
	StatusArxivada  ActivityStatus = "arxivada"
	StatusRebutjada ActivityStatus = "rebutjada"
)

// Activity is the canonical persisted record. The slug is globally unique;
// TipologiaPrincipal is never empty (a default is applied before insert);
// MunicipiID may be empty, which routes the record to review, but is never
// an unmapped free-text value.
type Activity struct {
	ID                 string                `json:"id"`
	Nom                string                `json:"nom"`
	Slug               string                `json:"slug"`
	Descripcio         string                `json:"descripcio,omitempty"`
	Tipologies         []TipologiaAssignment `json:"tipologies"`
	TipologiaPrincipal string                `json:"tipologiaPrincipal"`
	QuanEsFa           string                `json:"quanEsFa"`
	EdatMin            *int                  `json:"edatMin,omitempty"`
	EdatMax            *int                  `json:"edatMax,omitempty"`
	EdatText           string                `json:"edatText,omitempty"`
	MunicipiID         string                `json:"municipiId,omitempty"`
	BarriZona          string                `json:"barriZona,omitempty"`
	Espai              string                `json:"espai,omitempty"`
	Adreca             string                `json:"adreca,omitempty"`
	Dies               string                `json:"dies,omitempty"`
	Horari             string                `json:"horari,omitempty"`
	Preu               string                `json:"preu,omitempty"`
	Email              string                `json:"email,omitempty"`
	Telefon            string                `json:"telefon,omitempty"`
	Web                string                `json:"web,omitempty"`
	Tags               []string              `json:"tags"`
	ND                 NDResult              `json:"nd"`
	NDVerificatPer     string                `json:"ndVerificatPer,omitempty"`
	Estat              ActivityStatus        `json:"estat"`
	FontURL            string                `json:"fontUrl,omitempty"`
	FontText           string                `json:"fontText,omitempty"`
	FontTipus          SourceType            `json:"fontTipus,omitempty"`
	ConfiancaGlobal    int                   `json:"confiancaGlobal"`
	AgentModel         string                `json:"agentModel,omitempty"`
	AgentProcessedAt   *time.Time            `json:"agentProcessedAt,omitempty"`
	CreatedBy          string                `json:"createdBy,omitempty"`
	DataFi             *time.Time            `json:"dataFi,omitempty"`
	CreatedAt          time.Time             `json:"createdAt"`
	UpdatedAt          time.Time             `json:"updatedAt"`
}

// ReviewPriority orders pending review-queue entries.
type ReviewPriority string

const (
	PriorityAlta    ReviewPriority = "alta"
	PriorityMitjana ReviewPriority = "mitjana"
	PriorityBaixa   ReviewPriority = "baixa"
)

// ReviewResolution is the terminal state of a resolved queue entry.
type ReviewResolution string

const (
	ResolutionAprovada  ReviewResolution = "aprovada"
	ResolutionEditada   ReviewResolution = "editada"
	ResolutionRebutjada ReviewResolution = "rebutjada"
	ResolutionOmesa     ReviewResolution = "omesa"
)

// ReviewQueueEntry links an activity to a pending human decision. It
// references the activity by id only; entries may be cleaned up
// independently of the activity.
type ReviewQueueEntry struct {
	ID          string           `json:"id"`
	ActivitatID string           `json:"activitatId"`
	Prioritat   ReviewPriority   `json:"prioritat"`
	Motiu       string           `json:"motiu"`
	MotiuDetall []string         `json:"motiuDetall"`
	Oberta      bool             `json:"oberta"`
	Resolucio   ReviewResolution `json:"resolucio,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	ResolvedAt  *time.Time       `json:"resolvedAt,omitempty"`
}
