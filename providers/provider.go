// Package providers implements the provider client variants used to collect
// ratings: OpenAI, Anthropic, Google Gemini, and OpenRouter. Each variant
// translates a canonical request into its provider's wire format and maps
// provider-specific failures into the shared APIError envelope.
package providers

import (
	"github.com/personabench/lmeval/utils"
)

// Message is one turn of a canonical request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the provider-neutral representation of one outbound call.
// It is built once per rated output and is read-only to the provider.
type Request struct {
	Messages    []Message
	Model       string
	Temperature float64
	MaxTokens   int
	Seed        *int
	Extra       map[string]any
}

// Usage holds token accounting when the provider reports it.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// Response is the normalized provider reply. A Response always carries
// content; a reply without content is reported as an error, never as a
// partially filled Response.
type Response struct {
	Content   string
	Usage     *Usage
	Model     string
	Reasoning string
}

// Provider defines the interface each client variant must implement.
// Providers hold only credential and model state, never request-scoped
// state, so a fresh instance per worker is cheap.
type Provider interface {
	Name() string
	Endpoint() string
	Headers() map[string]string
	PrepareRequest(req *Request) ([]byte, error)
	ParseResponse(body []byte) (*Response, error)
	SetLogger(logger utils.Logger)
}

// ProviderConstructor creates a new provider instance. Each variant
// registers a constructor of this type with the registry.
type ProviderConstructor func(apiKey, model string, extraHeaders map[string]string) Provider
