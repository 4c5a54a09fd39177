package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendaviva/ingest/internal/model"
	"github.com/agendaviva/ingest/pkg/anthropic"
)

// stubClient returns canned responses in order, recording each request.
type stubClient struct {
	responses []string
	err       error
	requests  []anthropic.MessageRequest
}

func (s *stubClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	idx := len(s.requests) - 1
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	return &anthropic.MessageResponse{
		Model:   "claude-haiku-4-5-20251001",
		Content: []anthropic.ContentBlock{{Type: "text", Text: s.responses[idx]}},
	}, nil
}

const validResponse = `{
	"confianca": 85,
	"needsReview": false,
	"reviewReasons": [],
	"activitat": {
		"nom": "Taller de Robòtica",
		"descripcio": "Taller setmanal de robòtica educativa",
		"tipologies": [{"codi": "natura_ciencia", "score": 90, "justificacio": "robòtica"}],
		"edatMin": 6,
		"edatMax": 12,
		"quanEsFa": "setmanal",
		"tags": ["robòtica"]
	},
	"nd": {
		"score": 3,
		"nivell": "nd_compatible",
		"justificacio": "grups reduïts",
		"indicadorsPositius": ["grups reduïts"],
		"indicadorsNegatius": [],
		"recomanacions": [],
		"confianca": 75
	}
}`

func testInput() model.ClassificationInput {
	return model.ClassificationInput{
		Text:       "Taller de robòtica per a infants de 6 a 12 anys",
		SourceURL:  "https://example.org/robotica",
		SourceType: model.SourceScraping,
	}
}

func TestClassify_Valid(t *testing.T) {
	stub := &stubClient{responses: []string{validResponse}}
	c := New(stub, Config{})

	res := c.Classify(context.Background(), testInput())
	require.True(t, res.Success, "err: %s", res.Err)
	require.NotNil(t, res.Output)

	out := res.Output
	assert.Equal(t, 85, out.Confianca)
	assert.False(t, out.NeedsReview)
	assert.Equal(t, "Taller de Robòtica", out.Activitat.Nom)
	require.NotNil(t, out.Activitat.EdatMin)
	assert.Equal(t, 6, *out.Activitat.EdatMin)
	assert.Equal(t, 3, out.ND.Score)
	assert.Equal(t, "nd_compatible", out.ND.Nivell)
	assert.Equal(t, "claude-haiku-4-5-20251001", out.ModelUsed)
	assert.False(t, out.ProcessedAt.IsZero())
}

func TestClassify_StripsSurroundingProse(t *testing.T) {
	stub := &stubClient{responses: []string{"Aquí tens el resultat:\n" + validResponse + "\nEspero que sigui útil."}}
	c := New(stub, Config{})

	res := c.Classify(context.Background(), testInput())
	require.True(t, res.Success, "err: %s", res.Err)
	assert.Equal(t, "Taller de Robòtica", res.Output.Activitat.Nom)
}

func TestClassify_NoJSON(t *testing.T) {
	stub := &stubClient{responses: []string{"No puc processar aquest text."}}
	c := New(stub, Config{})

	res := c.Classify(context.Background(), testInput())
	assert.False(t, res.Success)
	assert.Equal(t, "No JSON found in response", res.Err)
	assert.NotEmpty(t, res.RawResponse)
}

func TestClassify_ParseError(t *testing.T) {
	stub := &stubClient{responses: []string{`{"confianca": 85, "activitat": {`}}
	c := New(stub, Config{})

	res := c.Classify(context.Background(), testInput())
	assert.False(t, res.Success)
	// Unbalanced braces never close, so extraction itself fails.
	assert.Equal(t, "No JSON found in response", res.Err)
}

func TestClassify_APIError(t *testing.T) {
	stub := &stubClient{err: errors.New("anthropic: create message: 529 overloaded")}
	c := New(stub, Config{})

	res := c.Classify(context.Background(), testInput())
	assert.False(t, res.Success)
	assert.Contains(t, res.Err, "overloaded")
}

func TestClassify_FallbackOnValidationError(t *testing.T) {
	// nd.score out of range, but a name is present: salvage via fallback.
	bad := `{
		"confianca": 85,
		"needsReview": false,
		"activitat": {"nom": "Casal d'Estiu", "descripcio": "Casal al juliol"},
		"nd": {"score": 9, "confianca": 80}
	}`
	stub := &stubClient{responses: []string{bad}}
	c := New(stub, Config{})

	res := c.Classify(context.Background(), testInput())
	require.True(t, res.Success)

	out := res.Output
	assert.Equal(t, "Casal d'Estiu", out.Activitat.Nom)
	assert.Equal(t, "Casal al juliol", out.Activitat.Descripcio)
	assert.Equal(t, 0, out.Confianca)
	assert.True(t, out.NeedsReview)
	require.NotEmpty(t, out.ReviewReasons)
	assert.Contains(t, out.ReviewReasons[0], "Validation error")
	assert.Equal(t, 1, out.ND.Score)
	assert.Equal(t, "nd_desafiador", out.ND.Nivell)
	assert.Equal(t, "puntual", out.Activitat.QuanEsFa)
}

func TestClassify_ValidationErrorWithoutName(t *testing.T) {
	bad := `{"confianca": 300, "activitat": {"descripcio": "sense nom"}, "nd": {"score": 3}}`
	stub := &stubClient{responses: []string{bad}}
	c := New(stub, Config{})

	res := c.Classify(context.Background(), testInput())
	assert.False(t, res.Success)
	assert.Contains(t, res.Err, "Validation error")
}

func TestClassify_ForcedReviewNDScore5(t *testing.T) {
	perfect := `{
		"confianca": 95,
		"needsReview": false,
		"activitat": {"nom": "Esplai Inclusiu", "tipologies": [], "quanEsFa": "setmanal"},
		"nd": {"score": 5, "nivell": "nd_excellent", "confianca": 90}
	}`
	stub := &stubClient{responses: []string{perfect}}
	c := New(stub, Config{})

	res := c.Classify(context.Background(), testInput())
	require.True(t, res.Success, "err: %s", res.Err)

	out := res.Output
	assert.True(t, out.NeedsReview)
	assert.Contains(t, out.ReviewReasons, "ND-score 5 requereix verificació")
}

func TestClassify_ForcedReviewLowNDConfidence(t *testing.T) {
	uncertain := `{
		"confianca": 90,
		"needsReview": false,
		"activitat": {"nom": "Curs de Teatre", "quanEsFa": "setmanal"},
		"nd": {"score": 3, "confianca": 40}
	}`
	stub := &stubClient{responses: []string{uncertain}}
	c := New(stub, Config{})

	res := c.Classify(context.Background(), testInput())
	require.True(t, res.Success, "err: %s", res.Err)

	out := res.Output
	assert.True(t, out.NeedsReview)
	assert.Contains(t, out.ReviewReasons, "Baixa confiança en avaluació ND")
}

func TestClassify_TruncatesTipologies(t *testing.T) {
	many := `{
		"confianca": 80,
		"activitat": {
			"nom": "Activitat Polifacètica",
			"tipologies": [
				{"codi": "arts", "score": 90},
				{"codi": "esports", "score": 80},
				{"codi": "lleure", "score": 70},
				{"codi": "natura_ciencia", "score": 60}
			]
		},
		"nd": {"score": 3, "confianca": 80}
	}`
	stub := &stubClient{responses: []string{many}}
	c := New(stub, Config{})

	res := c.Classify(context.Background(), testInput())
	require.True(t, res.Success, "err: %s", res.Err)
	assert.Len(t, res.Output.Activitat.Tipologies, 3)
}

func TestClassify_SendsCachedSystemPrompt(t *testing.T) {
	stub := &stubClient{responses: []string{validResponse}}
	c := New(stub, Config{Model: "claude-haiku-4-5-20251001", MaxTokens: 1024, Temperature: 0.1})

	_ = c.Classify(context.Background(), testInput())
	require.Len(t, stub.requests, 1)

	req := stub.requests[0]
	assert.Equal(t, "claude-haiku-4-5-20251001", req.Model)
	assert.Equal(t, int64(1024), req.MaxTokens)
	require.Len(t, req.System, 1)
	require.NotNil(t, req.System[0].CacheControl)
	assert.Equal(t, "1h", req.System[0].CacheControl.TTL)
	assert.Contains(t, req.System[0].Text, "tipologies")
	require.Len(t, req.Messages, 1)
	assert.Contains(t, req.Messages[0].Content, testInput().Text)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		found bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"wrapped in prose", `resultat: {"a":1} fi`, `{"a":1}`, true},
		{"nested objects", `{"a":{"b":2}}`, `{"a":{"b":2}}`, true},
		{"brace inside string", `{"a":"}"}`, `{"a":"}"}`, true},
		{"escaped quote", `{"a":"\"}"}`, `{"a":"\"}"}`, true},
		{"no object", "cap json", "", false},
		{"unbalanced", `{"a":1`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := extractJSON(tt.in)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyBatch(t *testing.T) {
	stub := &stubClient{responses: []string{validResponse, "sense json aquí"}}
	c := New(stub, Config{})

	inputs := []model.ClassificationInput{testInput(), testInput()}
	var progress []int
	results := c.ClassifyBatch(context.Background(), inputs, BatchOptions{
		OnProgress: func(i, total int, r Result) { progress = append(progress, i) },
	})

	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, []int{0, 1}, progress)
}

func TestClassifyBatch_StopOnError(t *testing.T) {
	stub := &stubClient{responses: []string{"sense json", validResponse}}
	c := New(stub, Config{})

	inputs := []model.ClassificationInput{testInput(), testInput()}
	results := c.ClassifyBatch(context.Background(), inputs, BatchOptions{StopOnError: true})

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
}
