package providers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/personabench/lmeval/utils"
)

const geminiDefaultMaxTokens = 64

// GeminiProvider implements the Provider interface for Google's Generative
// Language API. The generateContent endpoint takes a single text block, so
// multi-turn requests are collapsed into one role-prefixed conversation.
// The API reports no token usage.
type GeminiProvider struct {
	apiKey       string
	model        string
	extraHeaders map[string]string
	logger       utils.Logger
}

// NewGeminiProvider creates a new Gemini provider instance.
func NewGeminiProvider(apiKey, model string, extraHeaders map[string]string) Provider {
	if extraHeaders == nil {
		extraHeaders = make(map[string]string)
	}
	return &GeminiProvider{
		apiKey:       apiKey,
		model:        model,
		extraHeaders: extraHeaders,
		logger:       utils.NewLogger(utils.LogLevelWarn),
	}
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Endpoint inserts the model name into the generateContent path.
func (p *GeminiProvider) Endpoint() string {
	modelName := p.model
	if !strings.HasPrefix(modelName, "models/") {
		modelName = "models/" + modelName
	}
	return fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/%s:generateContent", modelName)
}

func (p *GeminiProvider) SetLogger(logger utils.Logger) {
	p.logger = logger
}

func (p *GeminiProvider) Headers() map[string]string {
	headers := map[string]string{
		"Content-Type":   "application/json",
		"x-goog-api-key": p.apiKey,
	}
	for key, value := range p.extraHeaders {
		headers[key] = value
	}
	return headers
}

// collapseMessages flattens a multi-turn conversation into a single
// role-prefixed text block.
func collapseMessages(messages []Message) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		prefix := "Assistant: "
		if msg.Role == "user" {
			prefix = "User: "
		}
		lines = append(lines, prefix+msg.Content)
	}
	return strings.Join(lines, "\n")
}

// PrepareRequest builds the generateContent request body.
func (p *GeminiProvider) PrepareRequest(req *Request) ([]byte, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = geminiDefaultMaxTokens
	}

	body := map[string]any{
		"contents": []map[string]any{
			{
				"parts": []map[string]string{
					{"text": collapseMessages(req.Messages)},
				},
			},
		},
		"generationConfig": map[string]any{
			"temperature":     req.Temperature,
			"maxOutputTokens": maxTokens,
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return data, nil
}

// ParseResponse extracts the completion from a generateContent response.
// Usage is left nil: the API does not report token counts here.
func (p *GeminiProvider) ParseResponse(body []byte) (*Response, error) {
	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		ModelVersion string `json:"modelVersion"`
	}

	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from API")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("empty response from API")
	}

	return &Response{
		Content: sb.String(),
		Model:   resp.ModelVersion,
	}, nil
}
