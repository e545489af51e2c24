// Package llm executes canonical requests against a provider over HTTP and
// normalizes every failure into the providers.APIError envelope.
package llm

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/personabench/lmeval/config"
	"github.com/personabench/lmeval/providers"
	"github.com/personabench/lmeval/utils"
)

// Client binds one provider instance to an HTTP client. Clients are not
// shared across workers; each worker constructs its own so no session
// state crosses a goroutine boundary.
type Client struct {
	provider providers.Provider
	http     *http.Client
	limiter  *rate.Limiter
	logger   utils.Logger
}

// NewClient creates a client for the given provider. When the config sets
// a requests-per-minute budget the client throttles itself before each
// call; this replaces ad hoc sleeps for strict-RPM providers.
func NewClient(provider providers.Provider, cfg *config.Config, logger utils.Logger) *Client {
	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}
	provider.SetLogger(logger)
	return &Client{
		provider: provider,
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  limiter,
		logger:   logger,
	}
}

// Provider exposes the underlying provider, mainly for logging.
func (c *Client) Provider() providers.Provider {
	return c.provider
}

// Invoke performs one provider call. It either returns a fully populated
// response or an *providers.APIError; no other error type escapes.
func (c *Client) Invoke(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	name := c.provider.Name()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, providers.NewTransportError(name, err)
		}
	}

	reqBody, err := c.provider.PrepareRequest(req)
	if err != nil {
		return nil, &providers.APIError{
			Kind:     providers.ErrorKindInvalidRequest,
			Provider: name,
			Message:  "failed to prepare request",
			Err:      err,
		}
	}

	c.logger.Debug("sending request", "provider", name, "model", req.Model, "body", string(reqBody))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.provider.Endpoint(), bytes.NewReader(reqBody))
	if err != nil {
		return nil, &providers.APIError{
			Kind:     providers.ErrorKindInvalidRequest,
			Provider: name,
			Message:  "failed to create request",
			Err:      err,
		}
	}
	for k, v := range c.provider.Headers() {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, providers.NewTransportError(name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, providers.NewTransportError(name, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("API error", "provider", name, "status", resp.StatusCode, "body", string(body))
		return nil, providers.NewAPIError(name, resp.StatusCode, body, resp.Header.Get("Retry-After"))
	}

	result, err := c.provider.ParseResponse(body)
	if err != nil {
		var apiErr *providers.APIError
		if errors.As(err, &apiErr) {
			// Embedded error object behind a 200; keep any Retry-After hint.
			if apiErr.RetryAfter == "" {
				apiErr.RetryAfter = resp.Header.Get("Retry-After")
			}
			return nil, apiErr
		}
		return nil, &providers.APIError{
			Kind:     providers.ErrorKindUnknown,
			Provider: name,
			Status:   resp.StatusCode,
			Message:  "failed to parse response: " + err.Error(),
			Body:     body,
		}
	}

	if result.Usage != nil {
		c.logger.Debug("token usage", "provider", name,
			"prompt_tokens", result.Usage.PromptTokens,
			"completion_tokens", result.Usage.CompletionTokens,
			"total_tokens", result.Usage.TotalTokens)
	}
	return result, nil
}
