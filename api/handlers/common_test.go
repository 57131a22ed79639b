package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmolinamir/alphawave/types"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestWriteError_DerivesStatusFromCode(t *testing.T) {
	tests := []struct {
		code types.ErrorCode
		want int
	}{
		{types.ErrInvalidRequest, http.StatusBadRequest},
		{types.ErrUnauthorized, http.StatusUnauthorized},
		{types.ErrForbidden, http.StatusForbidden},
		{types.ErrRateLimited, http.StatusTooManyRequests},
		{types.ErrPromptTooLong, http.StatusRequestEntityTooLarge},
		{types.ErrRepairExhausted, http.StatusUnprocessableEntity},
		{types.ErrUpstreamError, http.StatusBadGateway},
		{types.ErrModelOverloaded, http.StatusServiceUnavailable},
		{types.ErrTimeout, http.StatusGatewayTimeout},
		{types.ErrInternalError, http.StatusInternalServerError},
		{types.ErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, types.NewError(tt.code, "boom"), nil)

			assert.Equal(t, tt.want, rec.Code)
			resp := decodeEnvelope(t, rec)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, string(tt.code), resp.Error.Code)
			assert.Equal(t, "boom", resp.Error.Message)
		})
	}
}

func TestWriteError_ExplicitStatusWins(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, types.NewError(types.ErrInvalidRequest, "gone").WithHTTPStatus(http.StatusGone), nil)
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestDecodeJSONBody(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name": "aw"}`))
		rec := httptest.NewRecorder()

		var p payload
		require.NoError(t, DecodeJSONBody(rec, req, &p, nil))
		assert.Equal(t, "aw", p.Name)
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name": "aw", "extra": 1}`))
		rec := httptest.NewRecorder()

		var p payload
		require.Error(t, DecodeJSONBody(rec, req, &p, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
		rec := httptest.NewRecorder()

		var p payload
		require.Error(t, DecodeJSONBody(rec, req, &p, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestValidateContentType(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	assert.False(t, ValidateContentType(rec, req, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	assert.True(t, ValidateContentType(rec, req, nil))
}

func TestResponseWriter_CapturesStatusAndSize(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := NewResponseWriter(rec)

	rw.WriteHeader(http.StatusTeapot)
	n, err := rw.Write([]byte("short"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusTeapot, rw.StatusCode)
	assert.True(t, rw.Written)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, rw.Bytes)

	// A second WriteHeader must not overwrite the captured status.
	rw.WriteHeader(http.StatusOK)
	assert.Equal(t, http.StatusTeapot, rw.StatusCode)
}
