package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageResponse_Text(t *testing.T) {
	resp := &MessageResponse{Content: []ContentBlock{
		{Type: "text", Text: "primera "},
		{Type: "tool_use", Text: "ignorada"},
		{Type: "text", Text: "segona"},
	}}
	assert.Equal(t, "primera segona", resp.Text())

	empty := &MessageResponse{}
	assert.Equal(t, "", empty.Text())
}

func TestEstimateCost(t *testing.T) {
	usage := TokenUsage{
		InputTokens:              1_000_000,
		OutputTokens:             500_000,
		CacheCreationInputTokens: 100_000,
		CacheReadInputTokens:     200_000,
	}

	// haiku: 0.80 in, 4.00 out; cache writes at 1.25x input, reads at 0.1x.
	got := usage.EstimateCost("claude-haiku-4-5-20251001")
	assert.InDelta(t, 0.80+2.00+0.10+0.016, got, 1e-9)

	assert.Zero(t, TokenUsage{InputTokens: 1000}.EstimateCost("model-desconegut"))
}

func TestBuildCachedSystemBlocks(t *testing.T) {
	blocks := BuildCachedSystemBlocks("taxonomia")
	require.Len(t, blocks, 1)
	assert.Equal(t, "taxonomia", blocks[0].Text)
	require.NotNil(t, blocks[0].CacheControl)
	assert.Equal(t, "1h", blocks[0].CacheControl.TTL)
}

func TestToSDKMessages_Roles(t *testing.T) {
	msgs := toSDKMessages([]Message{
		{Role: "user", Content: "hola"},
		{Role: "assistant", Content: "bon dia"},
		{Role: "", Content: "sense rol"},
	})
	require.Len(t, msgs, 3)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
	assert.Equal(t, "user", string(msgs[2].Role))
}

func TestToSDKSystemBlocks(t *testing.T) {
	out := toSDKSystemBlocks([]SystemBlock{
		{Text: "pla", CacheControl: nil},
		{Text: "cachejat", CacheControl: &CacheControl{TTL: "1h"}},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "pla", out[0].Text)
	assert.Equal(t, "1h", string(out[1].CacheControl.TTL))
}
