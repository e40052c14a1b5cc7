package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable covers exhausted network retries and persistent 5xx answers.
	ErrUnavailable = errors.New("llm: service unavailable")
	// ErrRateLimited is returned on HTTP 429; it is never retried.
	ErrRateLimited = errors.New("llm: rate limited")
	// ErrMisconfigured is returned on HTTP 401 or a missing API key.
	ErrMisconfigured = errors.New("llm: misconfigured")
	// ErrGeneration is the target for errors.Is on *GenerationError.
	ErrGeneration = errors.New("llm: generation failed")
)

// HTTPError is a non-2xx answer from the completion endpoint.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("llm http %d: %s", e.StatusCode, body)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// GenerationError reports question output that stayed invalid after the stricter retry.
type GenerationError struct {
	Attempts int
	Reason   string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("llm: generation failed after %d attempts: %s", e.Attempts, e.Reason)
}

func (e *GenerationError) Unwrap() error { return ErrGeneration }
