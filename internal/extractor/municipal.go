package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/agendaviva/ingest/internal/model"
)

// municipalPatterns are selector patterns shared by Catalan town-hall sites,
// which cluster around a handful of Drupal and WordPress municipal themes.
var municipalPatterns = []string{
	// Granollers style
	".contingut-detall",
	".fitxa-activitat",
	// Generic municipal
	".activitat-item",
	".agenda-item",
	".event-item",
	".servei-item",
	// Drupal themes
	".node-activitat",
	".node-event",
	".view-activitats .views-row",
	".view-agenda .views-row",
	".view-cursos .views-row",
	// WordPress event plugins
	".tribe-events-single",
	".type-tribe_events",
	".em-event",
	// Loose class matches
	`[class*="activitat"]`,
	`[class*="cursos"]`,
	`[class*="inscripcions"]`,
}

// detailSelectors locate the main content container on a single-activity
// page, most specific first.
var detailSelectors = []string{
	".contingut-principal",
	".contingut-detall",
	".fitxa-activitat",
	"main article",
	".content article",
	"article.activitat",
	".node-content",
	"#contingut",
}

// ExtractMunicipal applies the municipal selector patterns to a listing page.
func ExtractMunicipal(html, baseURL string) ([]model.ExtractedBlock, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "extractor: parse html")
	}

	var blocks []model.ExtractedBlock
	seen := make(map[string]struct{})

	for _, pattern := range municipalPatterns {
		doc.Find(pattern).Each(func(_ int, el *goquery.Selection) {
			text := normalizeText(el.Text())
			key := dedupKey(text)
			if _, ok := seen[key]; ok {
				return
			}
			if len(text) <= defaultMinTextLength {
				return
			}

			block := model.ExtractedBlock{
				Text:           text,
				SourceSelector: pattern,
			}
			if href, ok := el.Find("a").First().Attr("href"); ok {
				block.URL = resolveURL(href, baseURL)
			}
			if title := normalizeText(el.Find("h2, h3, .title, .nom").First().Text()); title != "" {
				block.Title = title
			}

			seen[key] = struct{}{}
			blocks = append(blocks, block)
		})
	}

	return blocks, nil
}

// ExtractDetail extracts the single content block from an activity detail
// page, falling back to the whole body when no known container matches.
// Returns nil when the page has no usable content.
func ExtractDetail(html, pageURL string) (*model.ExtractedBlock, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "extractor: parse html")
	}

	doc.Find("nav, header, footer, .menu, .sidebar, .cookie-banner, script, style").Remove()

	for _, selector := range detailSelectors {
		content := doc.Find(selector).First()
		if content.Length() == 0 {
			continue
		}
		text := normalizeText(content.Text())
		if len(text) <= defaultMinTextLength {
			continue
		}
		block := &model.ExtractedBlock{
			Text:           truncate(text, defaultMaxTextLength),
			URL:            pageURL,
			SourceSelector: selector,
		}
		if title := normalizeText(doc.Find("h1").First().Text()); title != "" {
			block.Title = title
		}
		return block, nil
	}

	bodyText := normalizeText(doc.Find("body").Text())
	if len(bodyText) > defaultMinTextLength {
		block := &model.ExtractedBlock{
			Text:           truncate(bodyText, defaultMaxTextLength),
			URL:            pageURL,
			SourceSelector: "body-fallback",
		}
		if title := normalizeText(doc.Find("h1, title").First().Text()); title != "" {
			block.Title = title
		}
		return block, nil
	}

	return nil, nil
}
