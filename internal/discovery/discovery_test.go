package discovery

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendaviva/ingest/internal/model"
	"github.com/agendaviva/ingest/internal/store"
	"github.com/agendaviva/ingest/pkg/brave"
)

// stubSearch returns canned results per query.
type stubSearch struct {
	results map[string][]brave.SearchResult
	err     error
	queries []string
}

func (s *stubSearch) Search(_ context.Context, query string) ([]brave.SearchResult, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.results[query], nil
}

// sourceStore fakes the source-related subset of the store. Embedding the
// interface keeps the rest of the methods unimplemented.
type sourceStore struct {
	store.Store
	byURL      map[string]*model.ScrapingSource
	inserted   []*model.ScrapingSource
	activated  []string
	staleCount int
	endedCount int
	sweepErr   error
}

func newSourceStore() *sourceStore {
	return &sourceStore{byURL: map[string]*model.ScrapingSource{}}
}

func (s *sourceStore) GetSourceByURL(_ context.Context, url string) (*model.ScrapingSource, error) {
	return s.byURL[url], nil
}

func (s *sourceStore) InsertSource(_ context.Context, src *model.ScrapingSource) (string, error) {
	s.inserted = append(s.inserted, src)
	s.byURL[src.URL] = src
	return "src-new", nil
}

func (s *sourceStore) SetSourceActive(_ context.Context, id string, active bool) error {
	if active {
		s.activated = append(s.activated, id)
	}
	return nil
}

func (s *sourceStore) DeleteSourcesNotUpdatedSince(_ context.Context, _ time.Time) (int, error) {
	if s.sweepErr != nil {
		return 0, s.sweepErr
	}
	return s.staleCount, nil
}

func (s *sourceStore) DeleteSourcesWithAllActivitiesEnded(_ context.Context, _ time.Time) (int, error) {
	return s.endedCount, nil
}

func TestRun_RecordsNewSources(t *testing.T) {
	st := newSourceStore()
	search := &stubSearch{results: map[string][]brave.SearchResult{
		"agenda cultural Granollers": {
			{Title: "Agenda de Granollers", URL: "https://granollers.cat/agenda", Description: "Actes i activitats"},
			{Title: "Granollers a Facebook", URL: "https://facebook.com/granollers", Description: "Xarxa social"},
		},
	}}

	d := New(st, search, WithGrid([]string{"Granollers"}, []string{"agenda cultural"}))

	res, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.QueriesRun)
	assert.Equal(t, 1, res.NewSources)
	assert.Equal(t, 0, res.Reactivated)
	assert.Equal(t, []string{"agenda cultural Granollers"}, search.queries)

	require.Len(t, st.inserted, 1)
	src := st.inserted[0]
	assert.Equal(t, "[DISCOVERED] Agenda de Granollers", src.Nom)
	assert.Equal(t, "https://granollers.cat/agenda", src.URL)
	assert.Equal(t, model.SourceTipusWeb, src.Tipus)
	assert.False(t, src.Activa)
	assert.Equal(t, 1, src.Prioritat)
	assert.Contains(t, src.Notes, `"agenda cultural Granollers"`)
	assert.Contains(t, src.Notes, "Actes i activitats")
}

func TestRun_ReactivatesInactiveSource(t *testing.T) {
	st := newSourceStore()
	st.byURL["https://cardedeu.cat/agenda"] = &model.ScrapingSource{
		ID: "src-1", URL: "https://cardedeu.cat/agenda", Activa: false,
	}
	search := &stubSearch{results: map[string][]brave.SearchResult{
		"concerts Cardedeu": {
			{Title: "Agenda", URL: "https://cardedeu.cat/agenda"},
		},
	}}

	d := New(st, search, WithGrid([]string{"Cardedeu"}, []string{"concerts"}))

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.NewSources)
	assert.Equal(t, 1, res.Reactivated)
	assert.Equal(t, []string{"src-1"}, st.activated)
	assert.Empty(t, st.inserted)
}

func TestRun_SkipsKnownActiveSource(t *testing.T) {
	st := newSourceStore()
	st.byURL["https://cardedeu.cat/agenda"] = &model.ScrapingSource{
		ID: "src-1", URL: "https://cardedeu.cat/agenda", Activa: true,
	}
	search := &stubSearch{results: map[string][]brave.SearchResult{
		"concerts Cardedeu": {
			{Title: "Agenda", URL: "https://cardedeu.cat/agenda"},
		},
	}}

	d := New(st, search, WithGrid([]string{"Cardedeu"}, []string{"concerts"}))

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.NewSources)
	assert.Equal(t, 0, res.Reactivated)
	assert.Empty(t, st.activated)
}

func TestRun_TruncatesLongTitles(t *testing.T) {
	st := newSourceStore()
	long := strings.Repeat("Agenda cultural de la vila ", 5)
	search := &stubSearch{results: map[string][]brave.SearchResult{
		"agenda La Garriga": {
			{Title: long, URL: "https://lagarriga.cat/agenda"},
		},
	}}

	d := New(st, search, WithGrid([]string{"La Garriga"}, []string{"agenda"}))

	_, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, st.inserted, 1)
	name := strings.TrimPrefix(st.inserted[0].Nom, "[DISCOVERED] ")
	assert.Len(t, []rune(name), maxTitleLength)
}

func TestRun_NoSearchClient(t *testing.T) {
	st := newSourceStore()
	d := New(st, nil)

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.QueriesRun)
	assert.Empty(t, st.inserted)
}

func TestRun_SearchErrorContinues(t *testing.T) {
	st := newSourceStore()
	search := &stubSearch{err: errors.New("quota exceeded")}

	d := New(st, search, WithGrid([]string{"Granollers"}, []string{"agenda"}))

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.QueriesRun)
	assert.Equal(t, 0, res.NewSources)
}

func TestSweepStale(t *testing.T) {
	st := newSourceStore()
	st.staleCount = 2
	st.endedCount = 3

	d := New(st, nil)

	n, err := d.SweepStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestSweepStale_Error(t *testing.T) {
	st := newSourceStore()
	st.sweepErr = errors.New("db gone")

	d := New(st, nil)

	_, err := d.SweepStale(context.Background())
	assert.Error(t, err)
}

func TestIsJunkDomain(t *testing.T) {
	tests := []struct {
		url  string
		junk bool
	}{
		{"https://www.facebook.com/somepage", true},
		{"https://es.wikipedia.org/wiki/Granollers", true},
		{"https://www.tripadvisor.es/granollers", true},
		{"https://granollers.cat/agenda", false},
		{"https://www.esplai.cat", false},
		{"://bad url", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.junk, isJunkDomain(tt.url), tt.url)
	}
}
