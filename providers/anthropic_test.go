package providers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicPrepareRequestStripsSeed(t *testing.T) {
	provider := NewAnthropicProvider("fake-key", "claude-3-5-haiku-latest", nil)
	seed := 42

	body, err := provider.PrepareRequest(&Request{
		Messages:    []Message{{Role: "user", Content: "rate this"}},
		Temperature: 0,
		MaxTokens:   64,
		Seed:        &seed,
		Extra:       map[string]any{"seed": 42},
	})
	require.NoError(t, err)

	var req map[string]any
	require.NoError(t, json.Unmarshal(body, &req))

	assert.NotContains(t, req, "seed", "the messages API does not accept a seed")
	assert.Equal(t, float64(64), req["max_tokens"])
}

func TestAnthropicPrepareRequestDefaultsMaxTokens(t *testing.T) {
	provider := NewAnthropicProvider("fake-key", "claude-3-5-haiku-latest", nil)

	body, err := provider.PrepareRequest(&Request{
		Messages: []Message{{Role: "user", Content: "rate this"}},
	})
	require.NoError(t, err)

	var req map[string]any
	require.NoError(t, json.Unmarshal(body, &req))
	assert.Equal(t, float64(anthropicDefaultMaxTokens), req["max_tokens"], "max_tokens is mandatory for the messages API")
}

func TestAnthropicPrepareRequestFiltersRoles(t *testing.T) {
	provider := NewAnthropicProvider("fake-key", "claude-3-5-haiku-latest", nil)

	body, err := provider.PrepareRequest(&Request{
		Messages: []Message{
			{Role: "system", Content: "be terse"},
			{Role: "user", Content: "rate this"},
			{Role: "assistant", Content: "ok"},
		},
	})
	require.NoError(t, err)

	var req struct {
		Messages []Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(body, &req))
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Equal(t, "assistant", req.Messages[1].Role)
}

func TestAnthropicHeaders(t *testing.T) {
	provider := NewAnthropicProvider("fake-key", "claude-3-5-haiku-latest", nil)

	headers := provider.Headers()
	assert.Equal(t, "fake-key", headers["x-api-key"])
	assert.Equal(t, "2023-06-01", headers["anthropic-version"])
	assert.NotContains(t, headers, "Authorization")
}

func TestAnthropicParseResponse(t *testing.T) {
	provider := NewAnthropicProvider("fake-key", "claude-3-5-haiku-latest", nil)

	body := []byte(`{
		"model": "claude-3-5-haiku-latest",
		"content": [{"type": "text", "text": "Like me"}],
		"usage": {"input_tokens": 100, "output_tokens": 3}
	}`)

	resp, err := provider.ParseResponse(body)
	require.NoError(t, err)
	assert.Equal(t, "Like me", resp.Content)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, int64(100), resp.Usage.PromptTokens)
	assert.Equal(t, int64(3), resp.Usage.CompletionTokens)
	assert.Equal(t, int64(103), resp.Usage.TotalTokens)
}

func TestAnthropicParseResponseEmpty(t *testing.T) {
	provider := NewAnthropicProvider("fake-key", "claude-3-5-haiku-latest", nil)

	_, err := provider.ParseResponse([]byte(`{"content":[]}`))
	require.Error(t, err)
}
