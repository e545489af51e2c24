package providers

import (
	"encoding/json"
	"fmt"
)

// ErrorKind is the closed set of canonical failure kinds. Every
// provider-specific HTTP status or SDK-style error shape is mapped into
// exactly one kind; the retry handler depends only on this taxonomy.
type ErrorKind int

const (
	ErrorKindUnknown ErrorKind = iota
	ErrorKindRateLimited
	ErrorKindServiceUnavailable
	ErrorKindInvalidRequest
	ErrorKindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindRateLimited:
		return "RateLimited"
	case ErrorKindServiceUnavailable:
		return "ServiceUnavailable"
	case ErrorKindInvalidRequest:
		return "InvalidRequest"
	case ErrorKindTransport:
		return "TransportError"
	default:
		return "UnknownError"
	}
}

// APIError is the canonical error envelope for a failed provider call.
type APIError struct {
	Kind       ErrorKind
	Provider   string
	Status     int
	Message    string
	RetryAfter string // raw Retry-After header value, if the response carried one
	Body       []byte // raw response body, kept for retry classification
	Err        error  // underlying transport error, if any
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s provider %s: %s: %v", e.Provider, e.Kind, e.Message, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s provider %s (status %d): %s", e.Provider, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s provider %s: %s", e.Provider, e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// ClassifyStatus maps an HTTP status code to an error kind.
func ClassifyStatus(status int) ErrorKind {
	switch {
	case status == 429:
		return ErrorKindRateLimited
	case status == 500 || status == 502 || status == 503 || status == 504:
		return ErrorKindServiceUnavailable
	case status == 408:
		return ErrorKindTransport
	case status >= 400 && status < 500:
		return ErrorKindInvalidRequest
	default:
		return ErrorKindUnknown
	}
}

// wireError is the JSON error object several providers return:
// {"error": {"message": ..., "code": ..., "metadata": {"raw": "<json>"}}}.
// The metadata.raw field may itself contain a JSON-encoded error from the
// upstream provider; classification unwraps exactly one level of it.
type wireError struct {
	Error struct {
		Message  string      `json:"message"`
		Code     json.Number `json:"code"`
		Metadata struct {
			Raw string `json:"raw"`
		} `json:"metadata"`
	} `json:"error"`
}

// ExtractStatusCode pulls a status code out of a JSON error body, looking
// first at error.code and then one level down inside error.metadata.raw.
func ExtractStatusCode(body []byte) (int, bool) {
	var we wireError
	if err := json.Unmarshal(body, &we); err != nil {
		return 0, false
	}
	if code, err := we.Error.Code.Int64(); err == nil && code != 0 {
		return int(code), true
	}
	if we.Error.Metadata.Raw != "" {
		var nested wireError
		if err := json.Unmarshal([]byte(we.Error.Metadata.Raw), &nested); err == nil {
			if code, err := nested.Error.Code.Int64(); err == nil && code != 0 {
				return int(code), true
			}
		}
	}
	return 0, false
}

// ExtractErrorMessage pulls the error message out of a JSON error body,
// appending the nested upstream message when metadata.raw carries one.
func ExtractErrorMessage(body []byte) string {
	var we wireError
	if err := json.Unmarshal(body, &we); err != nil {
		return ""
	}
	msg := we.Error.Message
	if we.Error.Metadata.Raw != "" {
		var nested wireError
		if err := json.Unmarshal([]byte(we.Error.Metadata.Raw), &nested); err == nil && nested.Error.Message != "" {
			msg = msg + " - " + nested.Error.Message
		}
	}
	return msg
}

// NewAPIError builds the canonical envelope for a non-2xx HTTP response.
// When the HTTP status is unusable (some providers return 200 with an
// embedded error object) the status is recovered from the body instead.
func NewAPIError(provider string, status int, body []byte, retryAfter string) *APIError {
	if status == 0 || status == 200 {
		if code, ok := ExtractStatusCode(body); ok {
			status = code
		}
	}
	msg := ExtractErrorMessage(body)
	if msg == "" {
		msg = fmt.Sprintf("API error: status code %d", status)
	}
	return &APIError{
		Kind:       ClassifyStatus(status),
		Provider:   provider,
		Status:     status,
		Message:    msg,
		RetryAfter: retryAfter,
		Body:       body,
	}
}

// NewTransportError wraps a network-level failure (connection refused,
// timeout, DNS) that never produced an HTTP response.
func NewTransportError(provider string, err error) *APIError {
	return &APIError{
		Kind:     ErrorKindTransport,
		Provider: provider,
		Message:  "request failed",
		Err:      err,
	}
}

// UnknownModelError reports that the routing table has no entry for a
// model name. Callers degrade to an unhinted request rather than failing.
type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string {
	return "unknown model: " + e.Model
}
