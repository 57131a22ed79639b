package models

import (
	"net/http"
	"strings"
	"testing"

	"github.com/rmolinamir/alphawave/types"
	"github.com/stretchr/testify/assert"
)

func TestMapHTTPError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		msg       string
		wantCode  types.ErrorCode
		retryable bool
	}{
		{"unauthorized", http.StatusUnauthorized, "bad key", types.ErrUnauthorized, false},
		{"forbidden", http.StatusForbidden, "nope", types.ErrForbidden, false},
		{"rate limited", http.StatusTooManyRequests, "slow down", types.ErrRateLimited, true},
		{"quota", http.StatusBadRequest, "insufficient quota", types.ErrQuotaExceeded, false},
		{"context too long", http.StatusBadRequest, "maximum context length exceeded", types.ErrContextTooLong, false},
		{"bad request", http.StatusBadRequest, "missing field", types.ErrInvalidRequest, false},
		{"bad gateway", http.StatusBadGateway, "upstream", types.ErrUpstreamError, true},
		{"overloaded", 529, "overloaded", types.ErrModelOverloaded, true},
		{"teapot", http.StatusTeapot, "whatever", types.ErrUpstreamError, false},
		{"internal", http.StatusInternalServerError, "boom", types.ErrUpstreamError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapHTTPError(tt.status, tt.msg, "testprov")
			assert.Equal(t, tt.wantCode, err.Code)
			assert.Equal(t, tt.retryable, err.Retryable)
			assert.Equal(t, tt.status, err.HTTPStatus)
			assert.Equal(t, "testprov", err.Provider)
		})
	}
}

func TestReadErrorMessage(t *testing.T) {
	t.Run("openai envelope", func(t *testing.T) {
		msg := ReadErrorMessage(strings.NewReader(`{"error": {"message": "bad key", "type": "auth_error"}}`))
		assert.Equal(t, "bad key (type: auth_error)", msg)
	})

	t.Run("envelope without type", func(t *testing.T) {
		msg := ReadErrorMessage(strings.NewReader(`{"error": {"message": "bad key"}}`))
		assert.Equal(t, "bad key", msg)
	})

	t.Run("raw text fallback", func(t *testing.T) {
		msg := ReadErrorMessage(strings.NewReader("gateway timeout"))
		assert.Equal(t, "gateway timeout", msg)
	})
}

func TestResponseStatus(t *testing.T) {
	assert.Equal(t, types.StatusRateLimited, responseStatus(types.ErrRateLimited))
	assert.Equal(t, types.StatusRateLimited, responseStatus(types.ErrQuotaExceeded))
	assert.Equal(t, types.StatusRateLimited, responseStatus(types.ErrModelOverloaded))
	assert.Equal(t, types.StatusTooLong, responseStatus(types.ErrContextTooLong))
	assert.Equal(t, types.StatusError, responseStatus(types.ErrUpstreamError))
}
