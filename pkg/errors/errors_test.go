package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- AppError behavior ---

func TestAppError_ErrorString_WithWrappedError(t *testing.T) {
	appErr := &AppError{Code: CodeServiceUnavail, Message: "catalog is unavailable", Err: fmt.Errorf("catalog timeout")}
	assert.Equal(t, "SERVICE_UNAVAILABLE: catalog is unavailable: catalog timeout", appErr.Error())
}

func TestAppError_ErrorString_WithoutWrappedError(t *testing.T) {
	appErr := &AppError{Code: CodeNotFound, Message: "session not found"}
	assert.Equal(t, "NOT_FOUND: session not found", appErr.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	appErr := &AppError{Code: CodeNotFound, Message: "nope", Err: ErrNotFound}
	assert.True(t, errors.Is(appErr, ErrNotFound))
	assert.Nil(t, (&AppError{Code: "X"}).Unwrap())
}

// --- Constructors ---

func TestNotFound(t *testing.T) {
	err := NotFound("session", "abc-123")
	require.NotNil(t, err)
	assert.Equal(t, CodeNotFound, err.Code)
	assert.Equal(t, "session with id abc-123 not found", err.Message)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		code     string
		status   int
		sentinel error
	}{
		{"invalid input", InvalidInput("product id must be a positive integer"), CodeInvalidInput, http.StatusBadRequest, ErrInvalidInput},
		{"unauthorized", Unauthorized("missing session"), CodeUnauthorized, http.StatusUnauthorized, ErrUnauthorized},
		{"unsupported media", UnsupportedMediaType("text/plain"), CodeUnsupportedMedia, http.StatusUnsupportedMediaType, ErrUnsupportedMedia},
		{"service unavailable", ServiceUnavailable("catalog", errors.New("refused")), CodeServiceUnavail, http.StatusServiceUnavailable, ErrServiceUnavail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.ErrorIs(t, tt.err, tt.sentinel)
		})
	}
}

func TestServiceUnavailable_KeepsCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: refused")
	err := ServiceUnavailable("catalog", cause)

	assert.Equal(t, "catalog is unavailable", err.Message)
	assert.ErrorIs(t, err, cause)
}

func TestUnsupportedMediaType_Message(t *testing.T) {
	err := UnsupportedMediaType("text/plain")
	assert.Equal(t, `Content-Type "text/plain" is not supported, use application/json`, err.Message)
}

// --- Status and code mapping ---

func TestHTTPStatusAndCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"app error", InvalidInput("bad"), http.StatusBadRequest, CodeInvalidInput},
		{"wrapped app error", fmt.Errorf("ctx: %w", NotFound("session", "x")), http.StatusNotFound, CodeNotFound},
		{"sentinel not found", ErrNotFound, http.StatusNotFound, CodeNotFound},
		{"wrapped sentinel invalid", fmt.Errorf("decode: %w", ErrInvalidInput), http.StatusBadRequest, CodeInvalidInput},
		{"sentinel unauthorized", ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized},
		{"sentinel media", ErrUnsupportedMedia, http.StatusUnsupportedMediaType, CodeUnsupportedMedia},
		{"sentinel unavailable", ErrServiceUnavail, http.StatusServiceUnavailable, CodeServiceUnavail},
		{"unknown", fmt.Errorf("anything"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
			assert.Equal(t, tt.code, Code(tt.err))
		})
	}
}
