// Package store persists activities, scraping sources, the review queue and
// scrape logs, and hosts the decision layer that turns classifier output
// into auto-published or review-queued records.
package store

import (
	"context"
	"time"

	"github.com/agendaviva/ingest/internal/model"
)

// ActivityFilter specifies criteria for listing activities.
type ActivityFilter struct {
	Estat      model.ActivityStatus `json:"estat,omitempty"`
	MunicipiID string               `json:"municipi_id,omitempty"`
	Limit      int                  `json:"limit,omitempty"`
	Offset     int                  `json:"offset,omitempty"`
}

// Store defines the persistence interface for the ingestion pipeline.
type Store interface {
	// Activities
	InsertActivity(ctx context.Context, a *model.Activity) (string, error)
	GetActivityBySlug(ctx context.Context, slug string) (*model.Activity, error)
	ListActivities(ctx context.Context, filter ActivityFilter) ([]model.Activity, error)
	ListActivitySlugs(ctx context.Context) ([]string, error)
	SearchActivitiesByName(ctx context.Context, fragment string) ([]model.Activity, error)
	UpdateActivityStatus(ctx context.Context, id string, estat model.ActivityStatus) error

	// Scraping sources
	InsertSource(ctx context.Context, s *model.ScrapingSource) (string, error)
	GetSource(ctx context.Context, id string) (*model.ScrapingSource, error)
	GetSourceByURL(ctx context.Context, url string) (*model.ScrapingSource, error)
	ListSources(ctx context.Context, onlyActive bool) ([]model.ScrapingSource, error)
	UpdateSourceRun(ctx context.Context, id string, update model.SourceRunUpdate) error
	SetSourceActive(ctx context.Context, id string, active bool) error
	DeleteSourcesNotUpdatedSince(ctx context.Context, cutoff time.Time) (int, error)
	DeleteSourcesWithAllActivitiesEnded(ctx context.Context, now time.Time) (int, error)

	// Review queue
	InsertReviewEntry(ctx context.Context, e *model.ReviewQueueEntry) (string, error)
	ListOpenReviewEntries(ctx context.Context, limit int) ([]model.ReviewQueueEntry, error)
	ResolveReviewEntry(ctx context.Context, id string, resolucio model.ReviewResolution) error

	// Scrape logs
	InsertScrapeLogs(ctx context.Context, logs []model.ScrapeLog) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
