package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential is returned when a provider that needs an API key has none.
	ErrMissingCredential = errors.New("AI API key is required for analysis")
	// ErrUnsupportedProvider is returned for provider names this package does not know.
	ErrUnsupportedProvider = errors.New("unsupported AI provider")
)

// ServiceError is a failure talking to the reasoning service that may succeed
// on a later attempt: transport errors, rate limits, error statuses and error
// envelopes.
type ServiceError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s API error %d: %s", e.Provider, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
	}
}

func (e *ServiceError) Unwrap() error { return e.Err }

// EnvelopeError means a successful response body could not be decoded as the
// provider's documented envelope. It is never retried.
type EnvelopeError struct {
	Provider string
	Body     string
	Err      error
}

func (e *EnvelopeError) Error() string {
	return fmt.Sprintf("%s response parse: %v", e.Provider, e.Err)
}

func (e *EnvelopeError) Unwrap() error { return e.Err }

// Truncate shortens s to at most n bytes for logs and error messages.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
