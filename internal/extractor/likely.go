package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// activityKeywords cover both Catalan and Spanish since municipal pages mix
// the two freely.
var activityKeywords = []string{
	// Catalan
	"inscripció", "matrícula", "horari", "preu", "edat", "anys",
	"dilluns", "dimarts", "dimecres", "dijous", "divendres", "dissabte",
	"curs", "taller", "classes", "activitat", "escola", "esplai",
	"natació", "futbol", "bàsquet", "dansa", "música", "teatre",
	// Spanish
	"inscripción", "matrícula", "horario", "precio", "edad", "años",
	"lunes", "martes", "miércoles", "jueves", "viernes", "sábado",
	"curso", "taller", "clases", "actividad", "escuela",
	"natación", "fútbol", "baloncesto", "danza", "música", "teatro",
}

const minKeywordMatches = 3

// IsLikelyActivity reports whether a text block reads like an activity
// announcement rather than boilerplate.
func IsLikelyActivity(text string) bool {
	lower := strings.ToLower(text)
	matches := 0
	for _, kw := range activityKeywords {
		if strings.Contains(lower, kw) {
			matches++
			if matches >= minKeywordMatches {
				return true
			}
		}
	}
	return false
}

var activityLinkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)activit`),
	regexp.MustCompile(`(?i)curs`),
	regexp.MustCompile(`(?i)taller`),
	regexp.MustCompile(`(?i)inscripci`),
	regexp.MustCompile(`(?i)agenda`),
	regexp.MustCompile(`(?i)event`),
}

// ExtractActivityLinks returns the page's links whose href or anchor text
// suggests an activity page, resolved against baseURL and deduplicated in
// document order.
func ExtractActivityLinks(html, baseURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "extractor: parse html")
	}

	var links []string
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, el *goquery.Selection) {
		href, _ := el.Attr("href")
		if href == "" {
			return
		}
		text := strings.ToLower(el.Text())

		matched := false
		for _, p := range activityLinkPatterns {
			if p.MatchString(href) || p.MatchString(text) {
				matched = true
				break
			}
		}
		if !matched {
			return
		}

		resolved := resolveURL(href, baseURL)
		if resolved == "" {
			return
		}
		if _, ok := seen[resolved]; ok {
			return
		}
		seen[resolved] = struct{}{}
		links = append(links, resolved)
	})

	return links, nil
}
