// Package dedup detects duplicate activities by slug similarity, so the
// pipeline can skip records it has already ingested under a slightly
// different name.
package dedup

import (
	"sort"

	"github.com/agendaviva/ingest/internal/slug"
)

// fuzzyThreshold is the similarity above which two slugs are considered the
// same activity.
const fuzzyThreshold = 0.85

// sameMunicipalityThreshold is the looser cutoff used when both records sit
// in the same town, where name collisions are more likely genuine
// duplicates.
const sameMunicipalityThreshold = 0.7

// CheckResult reports whether a candidate matched an existing slug.
type CheckResult struct {
	IsDuplicate bool
	MatchedSlug string
	Similarity  float64
}

// Candidate identifies the activity being checked.
type Candidate struct {
	Nom        string
	MunicipiID string
}

// Existing is a stored activity considered during potential-duplicate
// ranking.
type Existing struct {
	Slug       string
	Nom        string
	MunicipiID string
}

// Match is one ranked potential duplicate.
type Match struct {
	Slug       string
	Nom        string
	Similarity float64
}

// CheckDuplicate decides whether the candidate duplicates any existing slug.
// Tiers, in precedence order: exact slug match (similarity 1.0), slug with
// the candidate's municipality as suffix or prefix (0.95), then fuzzy edit
// distance above the threshold.
func CheckDuplicate(candidate Candidate, existingSlugs []string) CheckResult {
	candidateSlug := slug.Generate(candidate.Nom)

	for _, existing := range existingSlugs {
		if existing == candidateSlug {
			return CheckResult{IsDuplicate: true, MatchedSlug: existing, Similarity: 1.0}
		}
	}

	if candidate.MunicipiID != "" {
		suffixed := candidateSlug + "-" + candidate.MunicipiID
		prefixed := candidate.MunicipiID + "-" + candidateSlug
		for _, existing := range existingSlugs {
			if existing == suffixed || existing == prefixed {
				return CheckResult{IsDuplicate: true, MatchedSlug: existing, Similarity: 0.95}
			}
		}
	}

	for _, existing := range existingSlugs {
		if sim := Similarity(candidateSlug, existing); sim > fuzzyThreshold {
			return CheckResult{IsDuplicate: true, MatchedSlug: existing, Similarity: sim}
		}
	}

	return CheckResult{}
}

// FindPotentialDuplicates ranks stored activities by slug similarity to the
// candidate, descending, ties keeping input order. The cutoff drops to the
// same-municipality threshold when the candidate and the stored record share
// a town.
func FindPotentialDuplicates(candidate Candidate, existing []Existing) []Match {
	candidateSlug := slug.Generate(candidate.Nom)

	var matches []Match
	for _, e := range existing {
		threshold := fuzzyThreshold
		if candidate.MunicipiID != "" && e.MunicipiID == candidate.MunicipiID {
			threshold = sameMunicipalityThreshold
		}
		if sim := Similarity(candidateSlug, e.Slug); sim > threshold {
			matches = append(matches, Match{Slug: e.Slug, Nom: e.Nom, Similarity: sim})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	return matches
}

// Similarity is the normalized edit-distance similarity of two slugs:
// (longerLen - editDistance) / longerLen.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	longer, shorter := a, b
	if len(b) > len(a) {
		longer, shorter = b, a
	}
	dist := levenshtein(longer, shorter)
	return float64(len(longer)-dist) / float64(len(longer))
}

// levenshtein computes the classic dynamic-programming edit distance.
// Slugs are already case-folded and diacritic-stripped, so bytes compare
// fine.
func levenshtein(a, b string) int {
	m := make([][]int, len(b)+1)
	for i := range m {
		m[i] = make([]int, len(a)+1)
		m[i][0] = i
	}
	for j := 0; j <= len(a); j++ {
		m[0][j] = j
	}

	for i := 1; i <= len(b); i++ {
		for j := 1; j <= len(a); j++ {
			if b[i-1] == a[j-1] {
				m[i][j] = m[i-1][j-1]
				continue
			}
			m[i][j] = min(m[i-1][j-1]+1, min(m[i][j-1]+1, m[i-1][j]+1))
		}
	}

	return m[len(b)][len(a)]
}
