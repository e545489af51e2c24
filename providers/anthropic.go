package providers

import (
	"encoding/json"
	"fmt"

	"github.com/personabench/lmeval/utils"
)

const anthropicDefaultMaxTokens = 64

// AnthropicProvider implements the Provider interface for Anthropic's
// messages API. The API accepts no seed parameter, so any configured seed
// is dropped, and max_tokens is mandatory.
type AnthropicProvider struct {
	apiKey       string
	model        string
	extraHeaders map[string]string
	logger       utils.Logger
}

// NewAnthropicProvider creates a new Anthropic provider instance.
func NewAnthropicProvider(apiKey, model string, extraHeaders map[string]string) Provider {
	if extraHeaders == nil {
		extraHeaders = make(map[string]string)
	}
	return &AnthropicProvider{
		apiKey:       apiKey,
		model:        model,
		extraHeaders: extraHeaders,
		logger:       utils.NewLogger(utils.LogLevelWarn),
	}
}

func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

func (p *AnthropicProvider) Endpoint() string {
	return "https://api.anthropic.com/v1/messages"
}

func (p *AnthropicProvider) SetLogger(logger utils.Logger) {
	p.logger = logger
}

func (p *AnthropicProvider) Headers() map[string]string {
	headers := map[string]string{
		"Content-Type":      "application/json",
		"x-api-key":         p.apiKey,
		"anthropic-version": "2023-06-01",
	}
	for key, value := range p.extraHeaders {
		headers[key] = value
	}
	return headers
}

// PrepareRequest builds the messages request body. Only user and assistant
// turns are forwarded; the seed is stripped since the API does not
// support it.
func (p *AnthropicProvider) PrepareRequest(req *Request) ([]byte, error) {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	messages := make([]Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if msg.Role == "user" || msg.Role == "assistant" {
			messages = append(messages, msg)
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	body := map[string]any{
		"model":       model,
		"messages":    messages,
		"temperature": req.Temperature,
		"max_tokens":  maxTokens,
	}

	for k, v := range req.Extra {
		if k == "seed" {
			continue
		}
		body[k] = v
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return data, nil
}

// ParseResponse extracts the completion from an Anthropic API response.
func (p *AnthropicProvider) ParseResponse(body []byte) (*Response, error) {
	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Model string `json:"model"`
		Usage *struct {
			InputTokens  int64 `json:"input_tokens"`
			OutputTokens int64 `json:"output_tokens"`
		} `json:"usage"`
	}

	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(resp.Content) == 0 || resp.Content[0].Text == "" {
		return nil, fmt.Errorf("empty response from API")
	}

	result := &Response{
		Content: resp.Content[0].Text,
		Model:   resp.Model,
	}
	if resp.Usage != nil {
		result.Usage = &Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		}
	}
	return result, nil
}
