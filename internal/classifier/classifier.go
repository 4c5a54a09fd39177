// Package classifier turns free-text activity descriptions into structured
// records by prompting a language model and validating its JSON output.
// Classification never returns a Go error: every failure mode is carried in
// the Result so batch runs can continue past bad inputs.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agendaviva/ingest/internal/model"
	"github.com/agendaviva/ingest/internal/taxonomy"
	"github.com/agendaviva/ingest/pkg/anthropic"
)

const (
	// ndConfidenceReviewThreshold forces review below this ND confidence.
	ndConfidenceReviewThreshold = 60

	reasonNDMaxScore      = "ND-score 5 requereix verificació"
	reasonNDLowConfidence = "Baixa confiança en avaluació ND"
	errNoJSONFound        = "No JSON found in response"
)

// Config selects the model and sampling parameters for classification.
type Config struct {
	Model       string
	MaxTokens   int64
	Temperature float64
}

// DefaultConfig returns the production classification settings. The low
// temperature keeps field extraction consistent across runs.
func DefaultConfig() Config {
	return Config{
		Model:       "claude-haiku-4-5-20251001",
		MaxTokens:   2048,
		Temperature: 0.3,
	}
}

// Result is the outcome of classifying one input. Exactly one of Output or
// Err is meaningful, depending on Success.
type Result struct {
	Success     bool
	Output      *model.ClassificationOutput
	Err         string
	RawResponse string
}

// Classifier drives single and batch classification against one model.
type Classifier struct {
	client anthropic.Client
	cfg    Config
	system []anthropic.SystemBlock
}

// New builds a Classifier. The system prompt is rendered once and reused
// with a cache breakpoint so repeated calls only pay for the input text.
func New(client anthropic.Client, cfg Config) *Classifier {
	if cfg.Model == "" {
		cfg = DefaultConfig()
	}
	return &Classifier{
		client: client,
		cfg:    cfg,
		system: anthropic.BuildCachedSystemBlocks(SystemPrompt()),
	}
}

// Classify runs one input through the model. The returned Result reports
// parse and validation failures instead of erroring; a partially valid
// response that still carries an activity name is salvaged via fallback
// reconstruction rather than discarded.
func (c *Classifier) Classify(ctx context.Context, input model.ClassificationInput) Result {
	start := time.Now()

	temp := c.cfg.Temperature
	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		System:      c.system,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: BuildUserPrompt(input)},
		},
	})
	if err != nil {
		return Result{Success: false, Err: err.Error()}
	}

	raw := resp.Text()
	resp.Usage.LogCost(resp.Model, "classify")

	jsonStr, found := extractJSON(raw)
	if !found {
		return Result{Success: false, Err: errNoJSONFound, RawResponse: raw}
	}

	var loose map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &loose); err != nil {
		return Result{
			Success:     false,
			Err:         fmt.Sprintf("JSON parse error: %v", err),
			RawResponse: raw,
		}
	}

	out, verr := decodeOutput([]byte(jsonStr))
	if verr != nil {
		fb, ok := fallbackOutput(loose, verr)
		if !ok {
			return Result{
				Success:     false,
				Err:         fmt.Sprintf("Validation error: %v", verr),
				RawResponse: raw,
			}
		}
		zap.L().Warn("classify: fallback reconstruction",
			zap.String("nom", fb.Activitat.Nom),
			zap.String("validation_error", verr.Error()))
		out = fb
	}

	applyReviewRules(out)

	out.ModelUsed = resp.Model
	out.ProcessingMs = time.Since(start).Milliseconds()
	out.ProcessedAt = time.Now().UTC()

	return Result{Success: true, Output: out, RawResponse: raw}
}

// extractJSON returns the first balanced JSON object substring in s. Models
// often wrap the object in prose, so scanning for brace balance beats
// requiring a clean payload. String literals are honored so braces inside
// values do not break the count.
func extractJSON(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// decodeOutput parses the wire JSON into a typed output and checks the
// schema constraints the model is instructed to honor.
func decodeOutput(data []byte) (*model.ClassificationOutput, error) {
	var out model.ClassificationOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if err := validateOutput(&out); err != nil {
		return nil, err
	}
	normalizeOutput(&out)
	return &out, nil
}

func validateOutput(out *model.ClassificationOutput) error {
	if out.Confianca < 0 || out.Confianca > 100 {
		return fmt.Errorf("confianca %d fora de rang", out.Confianca)
	}
	if strings.TrimSpace(out.Activitat.Nom) == "" {
		return fmt.Errorf("activitat.nom és obligatori")
	}
	for _, t := range out.Activitat.Tipologies {
		if !taxonomy.IsTipologia(t.Codi) {
			return fmt.Errorf("tipologia desconeguda %q", t.Codi)
		}
		if t.Score < 0 || t.Score > 100 {
			return fmt.Errorf("tipologia %s: score %d fora de rang", t.Codi, t.Score)
		}
	}
	if q := out.Activitat.QuanEsFa; q != "" && !taxonomy.IsQuanEsFa(q) {
		return fmt.Errorf("quanEsFa desconegut %q", q)
	}
	if !taxonomy.IsValidNDScore(out.ND.Score) {
		return fmt.Errorf("nd.score %d fora de rang", out.ND.Score)
	}
	if out.ND.Confianca < 0 || out.ND.Confianca > 100 {
		return fmt.Errorf("nd.confianca %d fora de rang", out.ND.Confianca)
	}
	if out.Activitat.EdatMin != nil && out.Activitat.EdatMax != nil &&
		*out.Activitat.EdatMin > *out.Activitat.EdatMax {
		return fmt.Errorf("edatMin %d > edatMax %d", *out.Activitat.EdatMin, *out.Activitat.EdatMax)
	}
	return nil
}

// normalizeOutput fills the defaults the schema leaves open.
func normalizeOutput(out *model.ClassificationOutput) {
	if out.ReviewReasons == nil {
		out.ReviewReasons = []string{}
	}
	a := &out.Activitat
	if a.Tipologies == nil {
		a.Tipologies = []model.TipologiaAssignment{}
	}
	if len(a.Tipologies) > taxonomy.MaxTipologies {
		a.Tipologies = a.Tipologies[:taxonomy.MaxTipologies]
	}
	if a.QuanEsFa == "" {
		a.QuanEsFa = taxonomy.DefaultQuanEsFa
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}

	nd := &out.ND
	if level, ok := taxonomy.GetNDLevel(nd.Score); ok && nd.Nivell != level.Codi {
		nd.Nivell = level.Codi
	}
	if nd.IndicadorsPositius == nil {
		nd.IndicadorsPositius = []string{}
	}
	if nd.IndicadorsNegatius == nil {
		nd.IndicadorsNegatius = []string{}
	}
	if nd.Recomanacions == nil {
		nd.Recomanacions = []string{}
	}
}

// fallbackOutput rebuilds a minimal result from a response that failed
// schema validation. A record is worth keeping only when it has a name;
// everything else defaults conservatively and the result is flagged for
// review carrying the validation error.
func fallbackOutput(loose map[string]any, verr error) (*model.ClassificationOutput, bool) {
	activitat, _ := loose["activitat"].(map[string]any)
	nom, _ := activitat["nom"].(string)
	nom = strings.TrimSpace(nom)
	if nom == "" {
		return nil, false
	}

	descripcio, _ := activitat["descripcio"].(string)
	level := taxonomy.NDLevels[1]

	return &model.ClassificationOutput{
		Confianca:     0,
		NeedsReview:   true,
		ReviewReasons: []string{fmt.Sprintf("Validation error: %v", verr)},
		Activitat: model.ActivitatResult{
			Nom:        nom,
			Descripcio: descripcio,
			Tipologies: []model.TipologiaAssignment{},
			QuanEsFa:   taxonomy.DefaultQuanEsFa,
			Tags:       []string{},
		},
		ND: model.NDResult{
			Score:              level.Score,
			Nivell:             level.Codi,
			Justificacio:       "Reconstrucció per defecte després d'un error de validació",
			IndicadorsPositius: []string{},
			IndicadorsNegatius: []string{},
			Recomanacions:      []string{},
			Confianca:          0,
		},
	}, true
}

// applyReviewRules enforces the forced-review invariants: a perfect ND
// score is never auto-trusted, and neither is a low-confidence ND judgment.
func applyReviewRules(out *model.ClassificationOutput) {
	if out.ND.Score == 5 {
		out.NeedsReview = true
		appendReason(out, reasonNDMaxScore)
	}
	if out.ND.Confianca < ndConfidenceReviewThreshold {
		out.NeedsReview = true
		appendReason(out, reasonNDLowConfidence)
	}
}

func appendReason(out *model.ClassificationOutput, reason string) {
	for _, r := range out.ReviewReasons {
		if r == reason {
			return
		}
	}
	out.ReviewReasons = append(out.ReviewReasons, reason)
}
