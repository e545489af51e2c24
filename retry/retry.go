// Package retry implements the bounded backoff loop wrapped around every
// provider call.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/personabench/lmeval/providers"
	"github.com/personabench/lmeval/utils"
)

const jitterFraction = 0.1

// retryableStatuses are retried regardless of how the provider variant
// classified them.
var retryableStatuses = map[int]bool{
	408: true,
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// Handler retries a call with exponential backoff. The number of
// underlying calls is at most MaxRetries+1, and the error returned after
// exhaustion is always the last attempt's error, unmodified.
type Handler struct {
	MaxRetries      int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	ExponentialBase float64
	Jitter          bool
	logger          utils.Logger
}

// NewHandler creates a retry handler with the standard exponential base.
func NewHandler(maxRetries int, baseDelay, maxDelay time.Duration, jitter bool, logger utils.Logger) *Handler {
	return &Handler{
		MaxRetries:      maxRetries,
		BaseDelay:       baseDelay,
		MaxDelay:        maxDelay,
		ExponentialBase: 2.0,
		Jitter:          jitter,
		logger:          logger,
	}
}

// ShouldRetry reports whether an error is transient. Retryable: the
// RateLimited, ServiceUnavailable and Transport kinds, the 408/429/5xx
// status bucket, and any response whose body mentions quota exhaustion.
// Everything else, including parse failures, is fatal.
func ShouldRetry(err error) bool {
	var apiErr *providers.APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	switch apiErr.Kind {
	case providers.ErrorKindRateLimited, providers.ErrorKindServiceUnavailable, providers.ErrorKindTransport:
		return true
	}

	if retryableStatuses[apiErr.Status] {
		return true
	}

	body := strings.ToLower(string(apiErr.Body) + " " + apiErr.Message)
	if strings.Contains(body, "quota") || strings.Contains(body, "resource exhausted") {
		return true
	}

	return false
}

// retryAfterHint extracts the server-supplied Retry-After value, if any.
func retryAfterHint(err error) string {
	var apiErr *providers.APIError
	if errors.As(err, &apiErr) {
		return apiErr.RetryAfter
	}
	return ""
}

// Delay computes the backoff before attempt+1. A numeric Retry-After hint
// takes precedence over the exponential formula; both are capped at
// MaxDelay before jitter is applied.
func (h *Handler) Delay(attempt int, retryAfter string) time.Duration {
	var delay float64
	if retryAfter != "" {
		if v, err := strconv.ParseFloat(retryAfter, 64); err == nil {
			delay = v
		}
	}
	if delay == 0 {
		delay = h.BaseDelay.Seconds() * math.Pow(h.ExponentialBase, float64(attempt))
	}

	if maxSec := h.MaxDelay.Seconds(); delay > maxSec {
		delay = maxSec
	}

	if h.Jitter {
		delay += delay * jitterFraction * (rand.Float64()*2 - 1)
	}

	return time.Duration(delay * float64(time.Second))
}

// Execute runs fn, retrying transient failures up to MaxRetries times.
// Attempts are strictly sequential; the backoff sleep blocks only the
// calling goroutine and honors context cancellation.
func (h *Handler) Execute(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= h.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == h.MaxRetries || !ShouldRetry(err) {
			h.logger.Error("final attempt failed or non-retryable error", "error", err, "attempt", attempt+1)
			return lastErr
		}

		delay := h.Delay(attempt, retryAfterHint(err))
		h.logger.Warn("attempt failed, retrying",
			"attempt", attempt+1,
			"max_attempts", h.MaxRetries+1,
			"delay", delay,
			"error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}
