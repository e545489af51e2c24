package providers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/personabench/lmeval/utils"
)

// providerRoutes maps model-name prefixes to the upstream provider that
// should serve them on OpenRouter. Longer prefixes are listed before
// shorter ones that share a stem.
var providerRoutes = []struct {
	prefix string
	order  []string
}{
	{"google/gemini-", []string{"Google AI Studio"}},
	{"deepseek/deepseek-", []string{"DeepInfra"}},
	{"qwen/qwq-32b", []string{"DeepInfra"}},
	{"qwen/qwen-", []string{"Alibaba"}},
	{"x-ai/grok-", []string{"xAI"}},
	{"meta-llama/llama-", []string{"Lambda"}},
	{"mistralai/mistral-", []string{"Mistral"}},
	{"anthropic", []string{"Anthropic"}},
}

// ProviderOrder determines the upstream routing order for a model name.
// An unmatched prefix yields an UnknownModelError; callers send the
// request without a routing hint in that case.
func ProviderOrder(model string) ([]string, error) {
	for _, route := range providerRoutes {
		if strings.HasPrefix(model, route.prefix) {
			return route.order, nil
		}
	}
	return nil, &UnknownModelError{Model: model}
}

// OpenRouterProvider implements the Provider interface for the OpenRouter
// aggregation API. Unlike the SDK-shaped providers it speaks the raw chat
// completions wire format with a provider-routing hint.
type OpenRouterProvider struct {
	apiKey       string
	model        string
	extraHeaders map[string]string
	logger       utils.Logger
}

// NewOpenRouterProvider creates a new OpenRouter provider instance.
func NewOpenRouterProvider(apiKey, model string, extraHeaders map[string]string) Provider {
	if extraHeaders == nil {
		extraHeaders = make(map[string]string)
	}
	return &OpenRouterProvider{
		apiKey:       apiKey,
		model:        model,
		extraHeaders: extraHeaders,
		logger:       utils.NewLogger(utils.LogLevelWarn),
	}
}

func (p *OpenRouterProvider) Name() string {
	return "openrouter"
}

func (p *OpenRouterProvider) Endpoint() string {
	return "https://openrouter.ai/api/v1/chat/completions"
}

func (p *OpenRouterProvider) SetLogger(logger utils.Logger) {
	p.logger = logger
}

func (p *OpenRouterProvider) Headers() map[string]string {
	headers := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + p.apiKey,
	}
	for key, value := range p.extraHeaders {
		headers[key] = value
	}
	return headers
}

// PrepareRequest builds the chat completion request with a provider
// routing block. An unknown model prefix degrades to an unhinted request
// rather than failing the call.
func (p *OpenRouterProvider) PrepareRequest(req *Request) ([]byte, error) {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	body := map[string]any{
		"model":       model,
		"messages":    req.Messages,
		"temperature": req.Temperature,
	}

	order, err := ProviderOrder(model)
	if err != nil {
		p.logger.Warn("no provider routing for model, sending without order hint",
			"model", model, "error", err)
	} else {
		body["provider"] = map[string]any{
			"order":              order,
			"allow_fallbacks":    false,
			"require_parameters": true,
		}
	}

	// Anthropic upstreams reject the seed parameter.
	if req.Seed != nil && !strings.HasPrefix(model, "anthropic") {
		body["seed"] = *req.Seed
	}

	// deepseek-r1 needs room to reason; a hard cap truncates the answer.
	if req.MaxTokens > 0 && model != "deepseek/deepseek-r1" {
		body["max_tokens"] = req.MaxTokens
	}

	for k, v := range req.Extra {
		body[k] = v
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return data, nil
}

// ParseResponse extracts the completion from an OpenRouter response.
// OpenRouter can return an embedded error object with a 200 status; those
// are surfaced as an APIError with the status recovered from the body.
func (p *OpenRouterProvider) ParseResponse(body []byte) (*Response, error) {
	var resp struct {
		Choices []struct {
			Message struct {
				Content   string `json:"content"`
				Reasoning string `json:"reasoning"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Model string `json:"model"`
		Usage *struct {
			PromptTokens     int64 `json:"prompt_tokens"`
			CompletionTokens int64 `json:"completion_tokens"`
			TotalTokens      int64 `json:"total_tokens"`
		} `json:"usage"`
	}

	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if resp.Error != nil {
		return nil, NewAPIError(p.Name(), 0, body, "")
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("empty response from API")
	}

	result := &Response{
		Content:   resp.Choices[0].Message.Content,
		Model:     resp.Model,
		Reasoning: resp.Choices[0].Message.Reasoning,
	}
	if resp.Usage != nil {
		result.Usage = &Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return result, nil
}
