// Package discovery finds new scraping sources by web-searching
// municipality and keyword combinations, and prunes sources that have gone
// stale.
package discovery

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/agendaviva/ingest/internal/model"
	"github.com/agendaviva/ingest/internal/store"
	"github.com/agendaviva/ingest/pkg/brave"
)

// maxTitleLength bounds the generated source name.
const maxTitleLength = 50

// defaultQueryDelay paces search requests to stay inside the API quota.
const defaultQueryDelay = 350 * time.Millisecond

// staleHorizon is how long a source may go without updates before the
// sweep deletes it.
const staleHorizon = 2 * 365 * 24 * time.Hour

// defaultMunicipalities and defaultKeywords seed the search grid. The full
// municipality list would burn the search quota on towns that rarely
// publish online, so discovery sticks to the larger ones.
var defaultMunicipalities = []string{"Granollers", "Cardedeu", "Mollet del Vallès", "La Garriga"}

var defaultKeywords = []string{"agenda cultural", "concerts avui", "activitats familiars"}

// junkDomains are platforms whose results are never usable scraping
// sources.
var junkDomains = []string{
	"facebook.com",
	"instagram.com",
	"twitter.com",
	"x.com",
	"youtube.com",
	"tiktok.com",
	"wikipedia.org",
	"tripadvisor.",
	"pinterest.",
}

// Discovery searches the web for candidate sources and records them for
// human review.
type Discovery struct {
	store          store.Store
	search         brave.Client
	limiter        *rate.Limiter
	municipalities []string
	keywords       []string
}

// Option configures a Discovery.
type Option func(*Discovery)

// WithGrid overrides the municipality and keyword search grid.
func WithGrid(municipalities, keywords []string) Option {
	return func(d *Discovery) {
		if len(municipalities) > 0 {
			d.municipalities = municipalities
		}
		if len(keywords) > 0 {
			d.keywords = keywords
		}
	}
}

// New creates a Discovery. search may be nil when no API key is
// configured; Run then becomes a no-op.
func New(st store.Store, search brave.Client, opts ...Option) *Discovery {
	d := &Discovery{
		store:          st,
		search:         search,
		limiter:        rate.NewLimiter(rate.Every(defaultQueryDelay), 1),
		municipalities: defaultMunicipalities,
		keywords:       defaultKeywords,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Result summarizes one discovery run.
type Result struct {
	QueriesRun   int
	NewSources   int
	Reactivated  int
	SweptSources int
}

// Run searches every municipality and keyword pair and records unseen result
// URLs as inactive sources pending human review. A missing search client
// degrades to skipping search entirely rather than failing the run.
func (d *Discovery) Run(ctx context.Context) (*Result, error) {
	log := zap.L().With(zap.String("component", "discovery"))
	res := &Result{}

	if d.search == nil {
		log.Warn("no search API key configured, skipping web discovery")
		return res, nil
	}

	for _, city := range d.municipalities {
		for _, keyword := range d.keywords {
			if err := d.limiter.Wait(ctx); err != nil {
				return res, err
			}

			query := fmt.Sprintf("%s %s", keyword, city)
			res.QueriesRun++

			results, err := d.search.Search(ctx, query)
			if err != nil {
				log.Warn("search failed", zap.String("query", query), zap.Error(err))
				continue
			}

			for _, r := range results {
				if isJunkDomain(r.URL) {
					continue
				}
				created, reactivated, err := d.recordSource(ctx, r, query)
				if err != nil {
					log.Warn("record source failed", zap.String("url", r.URL), zap.Error(err))
					continue
				}
				if created {
					res.NewSources++
				}
				if reactivated {
					res.Reactivated++
				}
			}
		}
	}

	log.Info("discovery complete",
		zap.Int("queries", res.QueriesRun),
		zap.Int("new_sources", res.NewSources),
		zap.Int("reactivated", res.Reactivated))
	return res, nil
}

// recordSource inserts an unseen URL as an inactive source so a human can
// vet it before it enters the scrape rotation, or reactivates a known
// inactive one.
func (d *Discovery) recordSource(ctx context.Context, r brave.SearchResult, query string) (created, reactivated bool, err error) {
	existing, err := d.store.GetSourceByURL(ctx, r.URL)
	if err != nil {
		return false, false, err
	}
	if existing != nil {
		if !existing.Activa {
			if err := d.store.SetSourceActive(ctx, existing.ID, true); err != nil {
				return false, false, err
			}
			return false, true, nil
		}
		return false, false, nil
	}

	title := strings.TrimSpace(r.Title)
	if len([]rune(title)) > maxTitleLength {
		title = string([]rune(title)[:maxTitleLength])
	}

	_, err = d.store.InsertSource(ctx, &model.ScrapingSource{
		Nom:       fmt.Sprintf("[DISCOVERED] %s", title),
		URL:       r.URL,
		Tipus:     model.SourceTipusWeb,
		Activa:    false,
		Prioritat: 1,
		Notes:     fmt.Sprintf("Found via web search for %q\n%s", query, r.Description),
	})
	if err != nil {
		return false, false, err
	}
	return true, false, nil
}

// SweepStale deletes sources that have not been touched within the
// staleness horizon, plus sources whose every linked activity has already
// ended.
func (d *Discovery) SweepStale(ctx context.Context) (int, error) {
	log := zap.L().With(zap.String("component", "discovery"))
	now := time.Now().UTC()

	stale, err := d.store.DeleteSourcesNotUpdatedSince(ctx, now.Add(-staleHorizon))
	if err != nil {
		return 0, err
	}
	ended, err := d.store.DeleteSourcesWithAllActivitiesEnded(ctx, now)
	if err != nil {
		return stale, err
	}

	if stale+ended > 0 {
		log.Info("swept stale sources", zap.Int("stale", stale), zap.Int("all_ended", ended))
	}
	return stale + ended, nil
}

func isJunkDomain(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	host := strings.ToLower(u.Hostname())
	for _, junk := range junkDomains {
		if strings.Contains(host, junk) {
			return true
		}
	}
	return false
}
