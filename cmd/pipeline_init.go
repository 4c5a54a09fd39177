package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/agendaviva/ingest/internal/classifier"
	"github.com/agendaviva/ingest/internal/fetcher"
	"github.com/agendaviva/ingest/internal/scraper"
	"github.com/agendaviva/ingest/internal/store"
	anthropicpkg "github.com/agendaviva/ingest/pkg/anthropic"
)

// pipelineEnv holds the initialized store and pipeline components shared by
// the scrape/classify/serve commands.
type pipelineEnv struct {
	Store      store.Store
	Fetcher    *fetcher.Fetcher
	Classifier *classifier.Classifier
	Scraper    *scraper.Scraper
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "agenda.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPipeline sets up the store, the Anthropic client and the scraper.
// Callers should defer env.Close().
func initPipeline(ctx context.Context, opts scraper.Options) (*pipelineEnv, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key is required (AGENDA_ANTHROPIC_KEY)")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	client := anthropicpkg.NewLimitedClient(
		anthropicpkg.NewClient(cfg.Anthropic.Key),
		cfg.Anthropic.RPM,
	)
	cls := classifier.New(client, classifier.Config{
		Model:       cfg.Anthropic.Model,
		MaxTokens:   int64(cfg.Anthropic.MaxTokens),
		Temperature: cfg.Anthropic.Temperature,
	})

	f := fetcher.New(fetcher.Options{
		Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Fetch.MaxRetries,
	})

	if opts.MaxBlocks == 0 {
		opts.MaxBlocks = cfg.Scrape.MaxBlocks
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = cfg.Scrape.Concurrency
	}

	return &pipelineEnv{
		Store:      st,
		Fetcher:    f,
		Classifier: cls,
		Scraper:    scraper.New(f, cls, st, opts),
	}, nil
}
