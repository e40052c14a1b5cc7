package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsKindAndCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Wrap(cause, ErrStoreUnavailable, "")

	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "database offline", err.Message)
	assert.True(t, err.Retryable)
	assert.Nil(t, ErrStoreUnavailable.Err)

	rejected := Wrap(cause, ErrLLMUnavailable, "AI request rejected").WithStatus(http.StatusBadGateway)
	assert.Equal(t, http.StatusBadGateway, rejected.Status)
	assert.Equal(t, http.StatusServiceUnavailable, ErrLLMUnavailable.Status)
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	wrapped := fmt.Errorf("load: %w", Clone(ErrNotFound, "lesson not found"))
	assert.Equal(t, "lesson not found", FromError(wrapped).Message)

	plain := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, plain.Code)
	assert.False(t, plain.Retryable)
}

func TestFieldsSerialise(t *testing.T) {
	err := Fields(map[string]string{"topic": "is required", "level": "must be one of simple, detailed"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "level: must be one of simple, detailed; topic: is required", err.Message)
	assert.Nil(t, ErrValidation.Fields)

	raw, jerr := json.Marshal(err)
	require.NoError(t, jerr)
	assert.JSONEq(t, `{
		"code": "VALIDATION_ERROR",
		"message": "level: must be one of simple, detailed; topic: is required",
		"status": 400,
		"fields": {"level": "must be one of simple, detailed", "topic": "is required"}
	}`, string(raw))

	assert.Equal(t, "format: must be one of csv, pdf", Field("format", "must be one of csv, pdf").Message)
}
