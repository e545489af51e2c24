package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorKind
	}{
		{429, ErrorKindRateLimited},
		{500, ErrorKindServiceUnavailable},
		{502, ErrorKindServiceUnavailable},
		{503, ErrorKindServiceUnavailable},
		{504, ErrorKindServiceUnavailable},
		{408, ErrorKindTransport},
		{400, ErrorKindInvalidRequest},
		{401, ErrorKindInvalidRequest},
		{403, ErrorKindInvalidRequest},
		{404, ErrorKindInvalidRequest},
		{200, ErrorKindUnknown},
		{301, ErrorKindUnknown},
		{0, ErrorKindUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyStatus(tt.status), "status %d", tt.status)
	}
}

func TestExtractStatusCodeTopLevel(t *testing.T) {
	body := []byte(`{"error":{"message":"too many requests","code":429}}`)

	code, ok := ExtractStatusCode(body)
	require.True(t, ok)
	assert.Equal(t, 429, code)
}

func TestExtractStatusCodeNestedMetadata(t *testing.T) {
	// Some aggregators wrap the upstream error as a JSON string inside
	// error.metadata.raw; exactly one level is unwrapped.
	body := []byte(`{"error":{"message":"upstream failed","metadata":{"raw":"{\"error\":{\"message\":\"rate limited\",\"code\":429}}"}}}`)

	code, ok := ExtractStatusCode(body)
	require.True(t, ok)
	assert.Equal(t, 429, code)
}

func TestExtractStatusCodeAbsent(t *testing.T) {
	_, ok := ExtractStatusCode([]byte(`{"error":{"message":"no code here"}}`))
	assert.False(t, ok)

	_, ok = ExtractStatusCode([]byte(`not json`))
	assert.False(t, ok)
}

func TestExtractErrorMessageAppendsNested(t *testing.T) {
	body := []byte(`{"error":{"message":"upstream failed","metadata":{"raw":"{\"error\":{\"message\":\"model overloaded\"}}"}}}`)

	assert.Equal(t, "upstream failed - model overloaded", ExtractErrorMessage(body))
}

func TestNewAPIErrorFromStatus(t *testing.T) {
	err := NewAPIError("openai", 429, []byte(`{"error":{"message":"slow down","code":429}}`), "7")

	assert.Equal(t, ErrorKindRateLimited, err.Kind)
	assert.Equal(t, 429, err.Status)
	assert.Equal(t, "slow down", err.Message)
	assert.Equal(t, "7", err.RetryAfter)
}

func TestNewAPIErrorRecoversStatusFromBody(t *testing.T) {
	// A 200 with an embedded error object: the status comes from the body.
	body := []byte(`{"error":{"message":"resource exhausted","code":503}}`)
	err := NewAPIError("openrouter", 200, body, "")

	assert.Equal(t, ErrorKindServiceUnavailable, err.Kind)
	assert.Equal(t, 503, err.Status)
}

func TestAPIErrorFormatting(t *testing.T) {
	err := &APIError{
		Kind:     ErrorKindRateLimited,
		Provider: "openai",
		Status:   429,
		Message:  "slow down",
	}
	assert.Contains(t, err.Error(), "openai")
	assert.Contains(t, err.Error(), "RateLimited")
	assert.Contains(t, err.Error(), "429")
}

func TestUnknownModelError(t *testing.T) {
	err := &UnknownModelError{Model: "acme/gpt-99"}
	assert.Equal(t, "unknown model: acme/gpt-99", err.Error())
}
