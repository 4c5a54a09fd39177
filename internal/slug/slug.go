// Package slug derives normalized, URL-safe, unique identifiers from
// human-readable activity names.
package slug

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	nonAlnumRe      = regexp.MustCompile(`[^a-z0-9-]+`)
	multiHyphenRe   = regexp.MustCompile(`-+`)
	validRe         = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Generate produces a slug from text. Case and diacritics are folded, the
// Catalan middle dot becomes a hyphen, apostrophes are dropped without
// introducing a separator ("L'Ametlla del Vallès" → "lametlla-del-valles").
func Generate(text string) string {
	s := strings.ToLower(text)
	if folded, _, err := transform.String(stripDiacritics, s); err == nil {
		s = folded
	}
	s = strings.ReplaceAll(s, "·", "-")
	s = strings.NewReplacer("'", "", "’", "", "‘", "").Replace(s)
	s = nonAlnumRe.ReplaceAllString(s, "-")
	s = multiHyphenRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// GenerateUnique slugs name and, on collision with existing, appends the
// smallest unused integer suffix ("music", {"music","music-1"} → "music-2").
func GenerateUnique(name string, existing []string) string {
	s := Generate(name)

	taken := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		taken[e] = struct{}{}
	}

	if _, ok := taken[s]; !ok {
		return s
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d", s, i)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}

// IsValid reports whether s is a well-formed slug.
func IsValid(s string) bool {
	return validRe.MatchString(s)
}
