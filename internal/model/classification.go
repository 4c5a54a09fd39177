// Package model defines the domain types shared across the ingestion
// pipeline: sources, extracted blocks, classification results, activities
// and review-queue entries.
package model

import "time"

// SourceType identifies how classification input reached the pipeline.
type SourceType string

const (
	SourceScraping  SourceType = "scraping"
	SourceEmail     SourceType = "email"
	SourceFormulari SourceType = "formulari"
	SourceManual    SourceType = "manual"
)

// ClassificationInput is one unit of free text handed to the classifier.
type ClassificationInput struct {
	Text       string     `json:"text"`
	SourceURL  string     `json:"sourceUrl,omitempty"`
	SourceType SourceType `json:"sourceType"`
}

// TipologiaAssignment is one typology the classifier assigned, with a 0-100
// fit score.
type TipologiaAssignment struct {
	Codi         string `json:"codi"`
	Score        int    `json:"score"`
	Justificacio string `json:"justificacio,omitempty"`
}

// NDResult is the neurodivergence readiness judgment for one activity.
type NDResult struct {
	Score              int      `json:"score"`
	Nivell             string   `json:"nivell"`
	Justificacio       string   `json:"justificacio,omitempty"`
	IndicadorsPositius []string `json:"indicadorsPositius"`
	IndicadorsNegatius []string `json:"indicadorsNegatius"`
	Recomanacions      []string `json:"recomanacions"`
	Confianca          int      `json:"confianca"`
}

// ActivitatResult is the activity-shaped payload extracted by the classifier.
// Nom is the only mandatory field; a result without a name is discarded.
type ActivitatResult struct {
	Nom        string                `json:"nom"`
	Descripcio string                `json:"descripcio,omitempty"`
	Tipologies []TipologiaAssignment `json:"tipologies"`
	QuanEsFa   string                `json:"quanEsFa,omitempty"`
	MunicipiID string                `json:"municipiId,omitempty"`
	BarriZona  string                `json:"barriZona,omitempty"`
	Espai      string                `json:"espai,omitempty"`
	Adreca     string                `json:"adreca,omitempty"`
	EdatMin    *int                  `json:"edatMin,omitempty"`
	EdatMax    *int                  `json:"edatMax,omitempty"`
	EdatText   string                `json:"edatText,omitempty"`
	Dies       string                `json:"dies,omitempty"`
	Horari     string                `json:"horari,omitempty"`
	Preu       string                `json:"preu,omitempty"`
	Email      string                `json:"email,omitempty"`
	Telefon    string                `json:"telefon,omitempty"`
	Web        string                `json:"web,omitempty"`
	Tags       []string              `json:"tags"`
}

// ClassificationOutput is the classifier's structured judgment of one input.
type ClassificationOutput struct {
	Confianca     int             `json:"confianca"`
	NeedsReview   bool            `json:"needsReview"`
	ReviewReasons []string        `json:"reviewReasons"`
	Activitat     ActivitatResult `json:"activitat"`
	ND            NDResult        `json:"nd"`
	ModelUsed     string          `json:"modelUsed"`
	ProcessingMs  int64           `json:"processingTimeMs"`
	ProcessedAt   time.Time       `json:"processedAt"`
}
