package httpclient

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseResponseError_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode int
	}{
		{"not found", http.StatusNotFound, "", http.StatusNotFound},
		{"bad request", http.StatusBadRequest, "bad limit", http.StatusBadRequest},
		{"unauthorized", http.StatusUnauthorized, "", http.StatusUnauthorized},
		{"forbidden", http.StatusForbidden, "", http.StatusUnauthorized},
		{"rate limited", http.StatusTooManyRequests, "slow down", http.StatusServiceUnavailable},
		{"bad gateway", http.StatusBadGateway, "", http.StatusServiceUnavailable},
		{"unavailable", http.StatusServiceUnavailable, "", http.StatusServiceUnavailable},
		{"teapot", http.StatusTeapot, "short and stout", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(response(tt.status, tt.body), "catalog")
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.HTTPStatus(err))
		})
	}
}

func TestParseResponseError_StructuredBody(t *testing.T) {
	body := `{"error":{"code":"INVALID_INPUT","message":"limit must be positive"}}`
	err := ParseResponseError(response(http.StatusBadRequest, body), "catalog")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "catalog: limit must be positive", appErr.Message)
}

func TestParseResponseError_PlainTextBody(t *testing.T) {
	err := ParseResponseError(response(http.StatusTeapot, "  short and stout \n"), "catalog")
	assert.EqualError(t, err, "catalog returned status 418: short and stout")
}

func TestParseResponseError_EmptyBodyUsesStatusText(t *testing.T) {
	err := ParseResponseError(response(http.StatusNotFound, ""), "catalog")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Message, "Not Found")
}

func TestIsSuccess(t *testing.T) {
	assert.True(t, IsSuccess(200))
	assert.True(t, IsSuccess(204))
	assert.False(t, IsSuccess(301))
	assert.False(t, IsSuccess(404))
}
