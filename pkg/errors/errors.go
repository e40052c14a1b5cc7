package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error is the typed error every handler renders into the response envelope.
// Retryable marks failures of the graph store or the model that a client may
// retry unchanged.
type Error struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Status    int               `json:"status"`
	Retryable bool              `json:"retryable,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	Err       error             `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches on Code, so copies of a sentinel satisfy errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// WithStatus returns a copy answering with a different HTTP status.
func (e *Error) WithStatus(status int) *Error {
	clone := e.copy()
	clone.Status = status
	return clone
}

func (e *Error) copy() *Error {
	clone := *e
	if e.Fields != nil {
		clone.Fields = make(map[string]string, len(e.Fields))
		for k, v := range e.Fields {
			clone.Fields[k] = v
		}
	}
	return &clone
}

func newKind(code string, status int, message string, retryable bool) *Error {
	return &Error{Code: code, Status: status, Message: message, Retryable: retryable}
}

var (
	ErrInvalidCredentials = newKind("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid username or password", false)
	ErrNotFound           = newKind("NOT_FOUND", http.StatusNotFound, "resource not found", false)
	ErrForbidden          = newKind("FORBIDDEN", http.StatusForbidden, "forbidden", false)
	ErrUnauthorized       = newKind("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized", false)
	ErrConflict           = newKind("CONFLICT", http.StatusConflict, "conflict", false)
	ErrValidation         = newKind("VALIDATION_ERROR", http.StatusBadRequest, "validation failed", false)
	ErrInternal           = newKind("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error", false)
	ErrCacheMiss          = newKind("CACHE_MISS", http.StatusNotFound, "cache miss", false)
	ErrTooManyRequests    = newKind("TOO_MANY_REQUESTS", http.StatusTooManyRequests, "too many requests", true)
	ErrPageLoad           = newKind("PAGE_LOAD_ERROR", http.StatusInternalServerError, "page load error", false)

	// Graph store failures.
	ErrStoreUnavailable = newKind("STORE_UNAVAILABLE", http.StatusServiceUnavailable, "database offline", true)
	ErrStoreQuery       = newKind("STORE_QUERY_FAILED", http.StatusInternalServerError, "database query failed", false)

	// Model failures.
	ErrLLMUnavailable   = newKind("LLM_UNAVAILABLE", http.StatusServiceUnavailable, "AI service unavailable", true)
	ErrRateLimited      = newKind("LLM_RATE_LIMITED", http.StatusTooManyRequests, "rate limited", true)
	ErrLLMMisconfigured = newKind("LLM_MISCONFIGURED", http.StatusBadGateway, "misconfigured", false)
	ErrGeneration       = newKind("GENERATION_FAILED", http.StatusBadGateway, "generation failed, please retry", true)
)

// Wrap attaches cause to a copy of kind. An empty message keeps kind's.
func Wrap(cause error, kind *Error, message string) *Error {
	clone := kind.copy()
	clone.Err = cause
	if message != "" {
		clone.Message = message
	}
	return clone
}

// Clone copies kind with an optional message override.
func Clone(kind *Error, message string) *Error {
	if kind == nil {
		return nil
	}
	return Wrap(nil, kind, message)
}

// FromError normalises err into an *Error; unknown errors become ErrInternal.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal, "")
}

// Field reports an invalid input field.
func Field(field, reason string) *Error {
	return Fields(map[string]string{field: reason})
}

// Fields reports several invalid input fields at once. The message lists
// them in a stable order.
func Fields(reasons map[string]string) *Error {
	e := ErrValidation.copy()
	e.Fields = make(map[string]string, len(reasons))
	for k, v := range reasons {
		e.Fields[k] = v
	}
	e.Message = summarise(e.Fields)
	return e
}

func summarise(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + fields[k]
	}
	return strings.Join(parts, "; ")
}
