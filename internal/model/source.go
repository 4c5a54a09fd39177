package model

import "time"

// SourceTipus categorizes a scraping source by the kind of site behind it.
type SourceTipus string

const (
	SourceTipusGeneric    SourceTipus = "generic"
	SourceTipusAjuntament SourceTipus = "ajuntament"
	SourceTipusWeb        SourceTipus = "web"
	SourceTipusSocial     SourceTipus = "social"
)

// ScrapingSource is a seed URL the pipeline periodically re-fetches.
type ScrapingSource struct {
	ID              string      `json:"id"`
	Nom             string      `json:"nom"`
	URL             string      `json:"url"`
	Tipus           SourceTipus `json:"tipus"`
	Activa          bool        `json:"activa"`
	Prioritat       int         `json:"prioritat"`
	Notes           string      `json:"notes,omitempty"`
	LastScraped     *time.Time  `json:"lastScraped,omitempty"`
	LastSuccess     *time.Time  `json:"lastSuccess,omitempty"`
	LastError       string      `json:"lastError,omitempty"`
	LastItemsFound  int         `json:"lastItemsFound"`
	TotalItemsFound int         `json:"totalItemsFound"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// SourceRunUpdate captures the outcome of one scrape of a source.
type SourceRunUpdate struct {
	Success    bool
	ItemsFound int
	Error      string
}

// ExtractedBlock is one candidate unit of activity text pulled out of a
// page. Ephemeral: it lives only within a single pipeline run.
type ExtractedBlock struct {
	Text           string `json:"text"`
	URL            string `json:"url,omitempty"`
	Title          string `json:"title,omitempty"`
	SourceSelector string `json:"sourceSelector,omitempty"`
}

// ScrapeLog is one run-log row for monitoring, written best-effort after
// each source scrape.
type ScrapeLog struct {
	SourceID          string    `json:"sourceId"`
	BlocksFound       int       `json:"blocksFound"`
	ActivitiesCreated int       `json:"activitiesCreated"`
	ActivitiesQueued  int       `json:"activitiesQueued"`
	Errors            []string  `json:"errors"`
	DurationMs        int64     `json:"durationMs"`
	CreatedAt         time.Time `json:"createdAt"`
}
