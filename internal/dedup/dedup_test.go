package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "taller-de-musica", "taller-de-musica", 1},
		{"empty a", "", "taller", 0},
		{"empty b", "taller", "", 0},
		{"one char off", "taller-de-music", "taller-de-musica", 15.0 / 16.0},
		{"disjoint", "abc", "xyz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	a, b := "casal-destiu-granollers", "casal-estiu-granollers"
	assert.Equal(t, Similarity(a, b), Similarity(b, a))
}

func TestCheckDuplicate_Exact(t *testing.T) {
	res := CheckDuplicate(
		Candidate{Nom: "Taller de Robòtica"},
		[]string{"casal-estiu", "taller-de-robotica"},
	)
	require.True(t, res.IsDuplicate)
	assert.Equal(t, "taller-de-robotica", res.MatchedSlug)
	assert.Equal(t, 1.0, res.Similarity)
}

func TestCheckDuplicate_MunicipalitySuffix(t *testing.T) {
	res := CheckDuplicate(
		Candidate{Nom: "Casal d'Estiu", MunicipiID: "granollers"},
		[]string{"casal-destiu-granollers"},
	)
	require.True(t, res.IsDuplicate)
	assert.Equal(t, "casal-destiu-granollers", res.MatchedSlug)
	assert.Equal(t, 0.95, res.Similarity)
}

func TestCheckDuplicate_MunicipalityPrefix(t *testing.T) {
	res := CheckDuplicate(
		Candidate{Nom: "Casal d'Estiu", MunicipiID: "cardedeu"},
		[]string{"cardedeu-casal-destiu"},
	)
	require.True(t, res.IsDuplicate)
	assert.Equal(t, 0.95, res.Similarity)
}

func TestCheckDuplicate_Fuzzy(t *testing.T) {
	// One character of difference on a long slug clears the 0.85 cutoff.
	res := CheckDuplicate(
		Candidate{Nom: "Taller de Robòtica Infantil"},
		[]string{"taller-de-robotica-infantils"},
	)
	require.True(t, res.IsDuplicate)
	assert.Greater(t, res.Similarity, 0.85)
}

func TestCheckDuplicate_NoMatch(t *testing.T) {
	res := CheckDuplicate(
		Candidate{Nom: "Taller de Robòtica", MunicipiID: "granollers"},
		[]string{"curs-de-teatre", "campus-de-futbol"},
	)
	assert.False(t, res.IsDuplicate)
	assert.Empty(t, res.MatchedSlug)
}

func TestCheckDuplicate_EmptyExisting(t *testing.T) {
	res := CheckDuplicate(Candidate{Nom: "Taller de Robòtica"}, nil)
	assert.False(t, res.IsDuplicate)
}

func TestFindPotentialDuplicates(t *testing.T) {
	existing := []Existing{
		{Slug: "taller-de-robotica-infantils", Nom: "Taller de Robòtica Infantils", MunicipiID: "cardedeu"},
		{Slug: "taller-de-robotica", Nom: "Taller de Robòtica", MunicipiID: "granollers"},
		{Slug: "campus-de-futbol", Nom: "Campus de Futbol", MunicipiID: "granollers"},
	}

	matches := FindPotentialDuplicates(Candidate{Nom: "Taller de Robòtica Infantil", MunicipiID: "granollers"}, existing)
	require.NotEmpty(t, matches)
	// Sorted by similarity, best first.
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Similarity, matches[i].Similarity)
	}
	assert.Equal(t, "taller-de-robotica-infantils", matches[0].Slug)
}

func TestFindPotentialDuplicates_LooserSameMunicipality(t *testing.T) {
	existing := []Existing{
		{Slug: "taller-robotica", Nom: "Taller Robòtica", MunicipiID: "granollers"},
	}
	candidate := Candidate{Nom: "Taller de Robòtica", MunicipiID: "granollers"}

	sim := Similarity("taller-de-robotica", "taller-robotica")
	require.Greater(t, sim, 0.7)
	require.LessOrEqual(t, sim, 0.85)

	// Same town: the looser cutoff admits the match.
	matches := FindPotentialDuplicates(candidate, existing)
	assert.Len(t, matches, 1)

	// Different town: the strict cutoff rejects it.
	existing[0].MunicipiID = "cardedeu"
	matches = FindPotentialDuplicates(candidate, existing)
	assert.Empty(t, matches)
}
