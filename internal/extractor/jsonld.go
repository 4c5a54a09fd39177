package extractor

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// ExtractStructuredData collects schema.org Event and Course objects embedded
// as JSON-LD. Script bodies may hold a single object, a top-level array, or a
// @graph wrapper. Malformed bodies are skipped.
func ExtractStructuredData(html string) ([]map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "extractor: parse html")
	}

	var results []map[string]any
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, el *goquery.Selection) {
		var raw any
		if err := json.Unmarshal([]byte(el.Text()), &raw); err != nil {
			return
		}
		for _, obj := range flattenLD(raw) {
			switch obj["@type"] {
			case "Event", "Course":
				results = append(results, obj)
			}
		}
	})

	return results, nil
}

// flattenLD unwraps the three shapes JSON-LD payloads come in.
func flattenLD(raw any) []map[string]any {
	switch v := raw.(type) {
	case []any:
		var objs []map[string]any
		for _, item := range v {
			objs = append(objs, flattenLD(item)...)
		}
		return objs
	case map[string]any:
		if graph, ok := v["@graph"].([]any); ok {
			var objs []map[string]any
			for _, item := range graph {
				objs = append(objs, flattenLD(item)...)
			}
			return objs
		}
		return []map[string]any{v}
	default:
		return nil
	}
}
