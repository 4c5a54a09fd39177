package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendaviva/ingest/internal/model"
)

// fakeStore is an in-memory Store for exercising the save decision layer.
type fakeStore struct {
	activities []model.Activity
	reviews    []model.ReviewQueueEntry
	nextID     int
}

func (f *fakeStore) id() string {
	f.nextID++
	return fmt.Sprintf("id-%d", f.nextID)
}

func (f *fakeStore) InsertActivity(_ context.Context, a *model.Activity) (string, error) {
	id := f.id()
	stored := *a
	stored.ID = id
	f.activities = append(f.activities, stored)
	return id, nil
}

func (f *fakeStore) GetActivityBySlug(_ context.Context, slug string) (*model.Activity, error) {
	for i := range f.activities {
		if f.activities[i].Slug == slug {
			return &f.activities[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListActivities(_ context.Context, _ ActivityFilter) ([]model.Activity, error) {
	return f.activities, nil
}

func (f *fakeStore) ListActivitySlugs(_ context.Context) ([]string, error) {
	slugs := make([]string, 0, len(f.activities))
	for _, a := range f.activities {
		slugs = append(slugs, a.Slug)
	}
	return slugs, nil
}

func (f *fakeStore) SearchActivitiesByName(_ context.Context, fragment string) ([]model.Activity, error) {
	var out []model.Activity
	for _, a := range f.activities {
		if len(fragment) > 0 && containsFold(a.Nom, fragment) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateActivityStatus(_ context.Context, id string, estat model.ActivityStatus) error {
	for i := range f.activities {
		if f.activities[i].ID == id {
			f.activities[i].Estat = estat
			return nil
		}
	}
	return fmt.Errorf("activity not found: %s", id)
}

func (f *fakeStore) InsertSource(_ context.Context, s *model.ScrapingSource) (string, error) {
	return f.id(), nil
}

func (f *fakeStore) GetSource(_ context.Context, _ string) (*model.ScrapingSource, error) {
	return nil, nil
}

func (f *fakeStore) GetSourceByURL(_ context.Context, _ string) (*model.ScrapingSource, error) {
	return nil, nil
}

func (f *fakeStore) ListSources(_ context.Context, _ bool) ([]model.ScrapingSource, error) {
	return nil, nil
}

func (f *fakeStore) UpdateSourceRun(_ context.Context, _ string, _ model.SourceRunUpdate) error {
	return nil
}

func (f *fakeStore) SetSourceActive(_ context.Context, _ string, _ bool) error { return nil }

func (f *fakeStore) DeleteSourcesNotUpdatedSince(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

func (f *fakeStore) DeleteSourcesWithAllActivitiesEnded(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

func (f *fakeStore) InsertReviewEntry(_ context.Context, e *model.ReviewQueueEntry) (string, error) {
	id := f.id()
	stored := *e
	stored.ID = id
	stored.Oberta = true
	f.reviews = append(f.reviews, stored)
	return id, nil
}

func (f *fakeStore) ListOpenReviewEntries(_ context.Context, _ int) ([]model.ReviewQueueEntry, error) {
	return f.reviews, nil
}

func (f *fakeStore) ResolveReviewEntry(_ context.Context, _ string, _ model.ReviewResolution) error {
	return nil
}

func (f *fakeStore) InsertScrapeLogs(_ context.Context, _ []model.ScrapeLog) error { return nil }

func (f *fakeStore) Migrate(_ context.Context) error { return nil }

func (f *fakeStore) Close() error { return nil }

func containsFold(haystack, needle string) bool {
	h := normalizeName(haystack)
	n := normalizeName(needle)
	return len(n) > 0 && len(h) >= len(n) && contains(h, n)
}

func contains(h, n string) bool {
	for i := 0; i+len(n) <= len(h); i++ {
		if h[i:i+len(n)] == n {
			return true
		}
	}
	return false
}

func confidentOutput() *model.ClassificationOutput {
	return &model.ClassificationOutput{
		Confianca:     90,
		NeedsReview:   false,
		ReviewReasons: []string{},
		Activitat: model.ActivitatResult{
			Nom:        "Taller de Robòtica",
			Descripcio: "Taller setmanal de robòtica educativa",
			Tipologies: []model.TipologiaAssignment{
				{Codi: "natura_ciencia", Score: 90},
			},
			QuanEsFa:   "setmanal",
			MunicipiID: "granollers",
			Tags:       []string{},
		},
		ND: model.NDResult{Score: 3, Nivell: "nd_compatible", Confianca: 80},
	}
}

func TestSaveFromClassification_AutoPublish(t *testing.T) {
	st := &fakeStore{}
	res, err := SaveFromClassification(context.Background(), st, confidentOutput(),
		"https://example.org/robotica", "text de la font")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.NotEmpty(t, res.ActivitatID)
	assert.Empty(t, res.QueueID)
	assert.False(t, res.IsDuplicate)

	require.Len(t, st.activities, 1)
	a := st.activities[0]
	assert.Equal(t, model.StatusPublicada, a.Estat)
	assert.Equal(t, "taller-de-robotica", a.Slug)
	assert.Equal(t, "granollers", a.MunicipiID)
	assert.Equal(t, "natura_ciencia", a.TipologiaPrincipal)
	assert.Equal(t, "agent", a.CreatedBy)
	assert.Equal(t, "inferit", a.NDVerificatPer)
	assert.Empty(t, st.reviews)
}

func TestSaveFromClassification_NeedsReviewGoesToQueue(t *testing.T) {
	out := confidentOutput()
	out.NeedsReview = true
	out.ReviewReasons = []string{"ND-score 5 requereix verificació"}
	out.ND.Score = 5

	st := &fakeStore{}
	res, err := SaveFromClassification(context.Background(), st, out, "https://example.org", "")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.NotEmpty(t, res.QueueID)

	require.Len(t, st.activities, 1)
	assert.Equal(t, model.StatusPendent, st.activities[0].Estat)

	require.Len(t, st.reviews, 1)
	entry := st.reviews[0]
	assert.Equal(t, model.PriorityMitjana, entry.Prioritat)
	assert.Equal(t, "ND-score 5 requereix verificació", entry.Motiu)
	assert.True(t, entry.Oberta)
}

func TestSaveFromClassification_LowConfidenceHighPriority(t *testing.T) {
	out := confidentOutput()
	out.Confianca = 30
	out.NeedsReview = true
	out.ReviewReasons = []string{"Confiança global baixa"}

	st := &fakeStore{}
	_, err := SaveFromClassification(context.Background(), st, out, "https://example.org", "")
	require.NoError(t, err)

	require.Len(t, st.reviews, 1)
	assert.Equal(t, model.PriorityAlta, st.reviews[0].Prioritat)
}

func TestSaveFromClassification_DuplicateName(t *testing.T) {
	st := &fakeStore{}
	_, err := SaveFromClassification(context.Background(), st, confidentOutput(), "https://example.org", "")
	require.NoError(t, err)

	// Same name with different spacing and casing.
	out := confidentOutput()
	out.Activitat.Nom = "  taller  de ROBÒTICA "
	res, err := SaveFromClassification(context.Background(), st, out, "https://example.org", "")
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.True(t, res.IsDuplicate)
	assert.Contains(t, res.Error, "Potential duplicate")
	assert.Len(t, st.activities, 1)
}

func TestSaveFromClassification_SlugLevelDuplicate(t *testing.T) {
	st := &fakeStore{}
	_, err := SaveFromClassification(context.Background(), st, confidentOutput(), "https://example.org", "")
	require.NoError(t, err)

	// Different name, same slug after normalization: the name gate misses
	// it, the slug gate does not.
	out := confidentOutput()
	out.Activitat.Nom = "Taller de Robòtica!"
	res, err := SaveFromClassification(context.Background(), st, out, "https://example.org", "")
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.True(t, res.IsDuplicate)
	assert.Contains(t, res.Error, "taller-de-robotica")
	assert.Len(t, st.activities, 1)
}

func TestSaveFromClassification_FuzzySlugDuplicate(t *testing.T) {
	st := &fakeStore{}
	_, err := SaveFromClassification(context.Background(), st, confidentOutput(), "https://example.org", "")
	require.NoError(t, err)

	out := confidentOutput()
	out.Activitat.Nom = "Taller de Robòticas"
	res, err := SaveFromClassification(context.Background(), st, out, "https://example.org", "")
	require.NoError(t, err)

	assert.True(t, res.IsDuplicate)
	assert.Len(t, st.activities, 1)
}

func TestSaveFromClassification_UnresolvedMunicipality(t *testing.T) {
	out := confidentOutput()
	out.Activitat.MunicipiID = ""

	st := &fakeStore{}
	res, err := SaveFromClassification(context.Background(), st, out, "https://example.org", "")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.NotEmpty(t, res.QueueID, "unresolved municipality forces review")
	require.Len(t, st.activities, 1)
	assert.Equal(t, model.StatusPendent, st.activities[0].Estat)
	assert.Empty(t, st.activities[0].MunicipiID)
	require.Len(t, st.reviews, 1)
	assert.Contains(t, st.reviews[0].Motiu, "Municipi no especificat")
}

func TestSaveFromClassification_MunicipalityFromPostalCode(t *testing.T) {
	out := confidentOutput()
	out.Activitat.MunicipiID = "un lloc desconegut"

	st := &fakeStore{}
	res, err := SaveFromClassification(context.Background(), st, out,
		"https://example.org", "Activitat al carrer Major, 08400 Granollers")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Empty(t, res.QueueID, "postal-code resolution avoids review")
	require.Len(t, st.activities, 1)
	assert.Equal(t, "granollers", st.activities[0].MunicipiID)
}

func TestSaveFromClassification_AmbiguousMunicipality(t *testing.T) {
	out := confidentOutput()
	out.Activitat.MunicipiID = "sant"

	st := &fakeStore{}
	res, err := SaveFromClassification(context.Background(), st, out, "https://example.org", "")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.NotEmpty(t, res.QueueID)
	require.Len(t, st.reviews, 1)
	assert.Contains(t, st.reviews[0].Motiu, "Municipi ambigu")
}

func TestSaveFromClassification_DefaultTipologia(t *testing.T) {
	out := confidentOutput()
	out.Activitat.Tipologies = nil

	st := &fakeStore{}
	res, err := SaveFromClassification(context.Background(), st, out, "https://example.org", "")
	require.NoError(t, err)

	assert.True(t, res.Success)
	require.Len(t, st.activities, 1)
	assert.Equal(t, "lleure", st.activities[0].TipologiaPrincipal)
	assert.Equal(t, model.StatusPendent, st.activities[0].Estat)
	require.Len(t, st.reviews, 1)
	assert.Contains(t, st.reviews[0].Motiu, "Tipologia no classificada")
}

func TestSaveFromClassification_TruncatesSourceText(t *testing.T) {
	longText := make([]rune, 6000)
	for i := range longText {
		longText[i] = 'a'
	}

	st := &fakeStore{}
	_, err := SaveFromClassification(context.Background(), st, confidentOutput(),
		"https://example.org", string(longText))
	require.NoError(t, err)

	require.Len(t, st.activities, 1)
	assert.Len(t, []rune(st.activities[0].FontText), 5000)
}

func TestResolveMunicipi(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		sourceText string
		wantID     string
		wantReason string
	}{
		{"canonical id", "granollers", "", "granollers", ""},
		{"name with diacritics", "Montmeló", "", "montmelo", ""},
		{"empty", "", "", "", "Municipi no especificat"},
		{"ambiguous", "sant", "", "", "Municipi ambigu"},
		{"postal code in text", "la vila", "enviar a 08440 Cardedeu", "cardedeu", ""},
		{"shared postal code stays unresolved", "la vila", "local social, 08183", "", "Municipi no reconegut"},
		{"unknown", "Barcelona ciutat", "", "", "Municipi no reconegut"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, reasons := resolveMunicipi(tt.raw, tt.sourceText)
			assert.Equal(t, tt.wantID, id)
			if tt.wantReason == "" {
				assert.Empty(t, reasons)
			} else {
				require.Len(t, reasons, 1)
				assert.Contains(t, reasons[0], tt.wantReason)
			}
		})
	}
}
