// Package extractor pulls activity-shaped content blocks out of fetched HTML.
// The generic extractor works on any page; municipal.go knows the selector
// patterns Catalan town-hall sites tend to share.
package extractor

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/agendaviva/ingest/internal/model"
)

// Config tunes block extraction. Zero values fall back to the defaults.
type Config struct {
	Selectors        []string
	MinTextLength    int
	MaxTextLength    int
	ExcludeSelectors []string
}

var defaultSelectors = []string{
	"article",
	".activity",
	".activitat",
	".event",
	".card",
	`[class*="activity"]`,
	`[class*="event"]`,
}

var defaultExcludeSelectors = []string{
	"nav",
	"header",
	"footer",
	".menu",
	".cookie",
	".advertisement",
}

const (
	defaultMinTextLength = 100
	defaultMaxTextLength = 5000

	// dedupKeyLen is how much of a block's text identifies it when the same
	// content surfaces under several selectors.
	dedupKeyLen = 200
)

var whitespaceRe = regexp.MustCompile(`\s+`)

func (c Config) withDefaults() Config {
	if len(c.Selectors) == 0 {
		c.Selectors = defaultSelectors
	}
	if c.MinTextLength == 0 {
		c.MinTextLength = defaultMinTextLength
	}
	if c.MaxTextLength == 0 {
		c.MaxTextLength = defaultMaxTextLength
	}
	if len(c.ExcludeSelectors) == 0 {
		c.ExcludeSelectors = defaultExcludeSelectors
	}
	return c
}

// ExtractBlocks finds candidate activity blocks in a page. Selectors are
// tried in order and blocks are deduplicated on their leading text; when no
// selector matches anything it falls back to the page's main content region.
func ExtractBlocks(html, baseURL string, cfg Config) ([]model.ExtractedBlock, error) {
	cfg = cfg.withDefaults()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "extractor: parse html")
	}

	for _, sel := range cfg.ExcludeSelectors {
		doc.Find(sel).Remove()
	}

	var blocks []model.ExtractedBlock
	seen := make(map[string]struct{})

	for _, selector := range cfg.Selectors {
		doc.Find(selector).Each(func(_ int, el *goquery.Selection) {
			text := normalizeText(el.Text())
			key := dedupKey(text)
			if _, ok := seen[key]; ok {
				return
			}
			if len(text) < cfg.MinTextLength || len(text) > cfg.MaxTextLength {
				return
			}

			block := model.ExtractedBlock{
				Text:           text,
				SourceSelector: selector,
			}
			if href, ok := el.Find("a").First().Attr("href"); ok {
				block.URL = resolveURL(href, baseURL)
			}
			if title := normalizeText(el.Find("h1, h2, h3, h4, .title").First().Text()); title != "" {
				block.Title = title
			}

			seen[key] = struct{}{}
			blocks = append(blocks, block)
		})
	}

	if len(blocks) == 0 {
		main := doc.Find("main, .content, #content, article").First()
		if main.Length() > 0 {
			text := normalizeText(main.Text())
			if len(text) >= cfg.MinTextLength {
				blocks = append(blocks, model.ExtractedBlock{
					Text:           truncate(text, cfg.MaxTextLength),
					SourceSelector: "main-fallback",
				})
			}
		}
	}

	return blocks, nil
}

func normalizeText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func dedupKey(text string) string {
	return truncate(text, dedupKeyLen)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// resolveURL resolves href against base, returning "" when either side is
// unparseable.
func resolveURL(href, base string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return b.ResolveReference(ref).String()
}
