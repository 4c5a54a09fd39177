// Package scraper orchestrates the ingestion pipeline: fetch a source,
// extract candidate blocks, classify each one and persist the results.
package scraper

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agendaviva/ingest/internal/classifier"
	"github.com/agendaviva/ingest/internal/extractor"
	"github.com/agendaviva/ingest/internal/fetcher"
	"github.com/agendaviva/ingest/internal/model"
	"github.com/agendaviva/ingest/internal/store"
)

// Options tunes a scrape run.
type Options struct {
	// MaxBlocks caps how many extracted blocks per source go to the
	// classifier. Bounds the worst-case LLM spend of one run.
	MaxBlocks int

	// DryRun classifies but skips all writes.
	DryRun bool

	// Concurrency bounds parallel source processing in ScrapeAll.
	Concurrency int
}

// DefaultOptions match a normal production run.
func DefaultOptions() Options {
	return Options{
		MaxBlocks:   20,
		Concurrency: 3,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxBlocks <= 0 {
		o.MaxBlocks = 20
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 3
	}
	return o
}

// SourceResult aggregates the outcome of scraping one source.
type SourceResult struct {
	SourceID          string
	SourceURL         string
	BlocksFound       int
	BlocksClassified  int
	ActivitiesCreated int
	ActivitiesQueued  int
	Duplicates        int
	Errors            []string
	Duration          time.Duration
}

// RunResult aggregates a whole multi-source run.
type RunResult struct {
	Sources []SourceResult
}

// TotalErrors counts errors across all sources.
func (r *RunResult) TotalErrors() int {
	total := 0
	for _, s := range r.Sources {
		total += len(s.Errors)
	}
	return total
}

// Scraper wires the pipeline stages together.
type Scraper struct {
	fetcher    *fetcher.Fetcher
	classifier *classifier.Classifier
	store      store.Store
	opts       Options
}

// New creates a Scraper.
func New(f *fetcher.Fetcher, c *classifier.Classifier, st store.Store, opts Options) *Scraper {
	return &Scraper{
		fetcher:    f,
		classifier: c,
		store:      st,
		opts:       opts.withDefaults(),
	}
}

// ScrapeAll processes every active source with bounded concurrency. A
// failing source never aborts its siblings; its errors are collected in its
// own SourceResult.
func (s *Scraper) ScrapeAll(ctx context.Context) (*RunResult, error) {
	sources, err := s.store.ListSources(ctx, true)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("component", "scraper"))
	log.Info("scrape run starting",
		zap.Int("sources", len(sources)),
		zap.Int("concurrency", s.opts.Concurrency))

	results := make([]SourceResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for i, src := range sources {
		g.Go(func() error {
			results[i] = s.ScrapeSource(gctx, src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	run := &RunResult{Sources: results}
	s.writeLogs(ctx, run)
	return run, nil
}

// ScrapeSource runs the full pipeline for one source. All failures are
// recorded in the result rather than returned, so callers can aggregate.
func (s *Scraper) ScrapeSource(ctx context.Context, src model.ScrapingSource) SourceResult {
	start := time.Now()
	log := zap.L().With(
		zap.String("component", "scraper"),
		zap.String("source", src.Nom),
		zap.String("url", src.URL))

	res := SourceResult{SourceID: src.ID, SourceURL: src.URL}

	html, err := s.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("fetch: %v", err))
		res.Duration = time.Since(start)
		s.recordRun(ctx, src.ID, &res)
		log.Warn("fetch failed", zap.Error(err))
		return res
	}

	blocks := s.extractBlocks(src, html, &res)
	res.BlocksFound = len(blocks)
	log.Info("blocks extracted", zap.Int("count", len(blocks)))

	if len(blocks) > s.opts.MaxBlocks {
		blocks = blocks[:s.opts.MaxBlocks]
	}

	s.classifyAndSave(ctx, src, blocks, &res)

	res.Duration = time.Since(start)
	s.recordRun(ctx, src.ID, &res)

	log.Info("source done",
		zap.Int("created", res.ActivitiesCreated),
		zap.Int("queued", res.ActivitiesQueued),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("errors", len(res.Errors)),
		zap.Duration("duration", res.Duration))
	return res
}

// ScrapeURL runs the pipeline against an ad-hoc URL not registered as a
// source, for single-URL testing.
func (s *Scraper) ScrapeURL(ctx context.Context, rawURL string) SourceResult {
	src := model.ScrapingSource{
		Nom:   rawURL,
		URL:   rawURL,
		Tipus: model.SourceTipusWeb,
	}
	return s.ScrapeSource(ctx, src)
}

// extractBlocks picks the extractor matching the source type and keeps only
// blocks that look like activity announcements.
func (s *Scraper) extractBlocks(src model.ScrapingSource, html string, res *SourceResult) []model.ExtractedBlock {
	var blocks []model.ExtractedBlock
	var err error

	if src.Tipus == model.SourceTipusAjuntament {
		blocks, err = extractor.ExtractMunicipal(html, src.URL)
		if err == nil && len(blocks) == 0 {
			blocks, err = extractor.ExtractBlocks(html, src.URL, extractor.Config{})
		}
	} else {
		blocks, err = extractor.ExtractBlocks(html, src.URL, extractor.Config{})
	}
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("extract: %v", err))
		return nil
	}

	likely := blocks[:0]
	for _, b := range blocks {
		if extractor.IsLikelyActivity(b.Text) {
			likely = append(likely, b)
		}
	}
	return likely
}

// classifyAndSave feeds blocks through the classifier sequentially and
// persists each successful output.
func (s *Scraper) classifyAndSave(ctx context.Context, src model.ScrapingSource, blocks []model.ExtractedBlock, res *SourceResult) {
	inputs := make([]model.ClassificationInput, len(blocks))
	for i, b := range blocks {
		url := b.URL
		if url == "" {
			url = src.URL
		}
		inputs[i] = model.ClassificationInput{
			Text:       b.Text,
			SourceURL:  url,
			SourceType: model.SourceScraping,
		}
	}

	outputs := s.classifier.ClassifyBatch(ctx, inputs, classifier.BatchOptions{})
	res.BlocksClassified = len(outputs)

	for i, out := range outputs {
		if !out.Success {
			res.Errors = append(res.Errors, fmt.Sprintf("classify block %d: %s", i, out.Err))
			continue
		}
		if s.opts.DryRun {
			zap.L().Info("dry-run: would save activity",
				zap.String("nom", out.Output.Activitat.Nom),
				zap.Bool("needs_review", out.Output.NeedsReview))
			continue
		}

		saved, err := store.SaveFromClassification(ctx, s.store, out.Output, inputs[i].SourceURL, inputs[i].Text)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("save block %d: %v", i, err))
			continue
		}
		switch {
		case saved.IsDuplicate:
			res.Duplicates++
		case saved.Success:
			res.ActivitiesCreated++
			if saved.QueueID != "" {
				res.ActivitiesQueued++
			}
		default:
			res.Errors = append(res.Errors, fmt.Sprintf("save block %d: %s", i, saved.Error))
		}
	}
}

// recordRun updates the source's bookkeeping columns. Ad-hoc URLs have no
// id and are skipped, as is everything in dry-run mode.
func (s *Scraper) recordRun(ctx context.Context, sourceID string, res *SourceResult) {
	if sourceID == "" || s.opts.DryRun {
		return
	}
	update := model.SourceRunUpdate{
		Success:    len(res.Errors) == 0,
		ItemsFound: res.ActivitiesCreated,
	}
	if len(res.Errors) > 0 {
		update.Error = res.Errors[0]
	}
	if err := s.store.UpdateSourceRun(ctx, sourceID, update); err != nil {
		zap.L().Warn("scraper: update source run failed",
			zap.String("source_id", sourceID), zap.Error(err))
	}
}

// writeLogs persists one scrape-log row per source, best effort.
func (s *Scraper) writeLogs(ctx context.Context, run *RunResult) {
	if s.opts.DryRun {
		return
	}
	logs := make([]model.ScrapeLog, 0, len(run.Sources))
	for _, r := range run.Sources {
		if r.SourceID == "" {
			continue
		}
		logs = append(logs, model.ScrapeLog{
			SourceID:          r.SourceID,
			BlocksFound:       r.BlocksFound,
			ActivitiesCreated: r.ActivitiesCreated,
			ActivitiesQueued:  r.ActivitiesQueued,
			Errors:            r.Errors,
			DurationMs:        r.Duration.Milliseconds(),
		})
	}
	if len(logs) == 0 {
		return
	}
	if err := s.store.InsertScrapeLogs(ctx, logs); err != nil {
		zap.L().Warn("scraper: write scrape logs failed", zap.Error(err))
	}
}
