package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postValidate(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewValidateHandler(nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/validate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.HandleValidate(rec, req)
	return rec
}

func validateResult(t *testing.T, rec *httptest.ResponseRecorder) ValidateResult {
	t.Helper()
	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result ValidateResult
	require.NoError(t, json.Unmarshal(data, &result))
	return result
}

func TestValidateHandler_NoSchema(t *testing.T) {
	rec := postValidate(t, `{"text": "Sure! {\"answer\": \"blue\"}"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	result := validateResult(t, rec)
	assert.True(t, result.Valid)
	assert.Equal(t, map[string]any{"answer": "blue"}, result.Value)
	assert.Empty(t, result.Feedback)
}

func TestValidateHandler_SchemaViolation(t *testing.T) {
	rec := postValidate(t, `{
		"text": "{\"age\": \"forty\"}",
		"schema": {
			"type": "object",
			"properties": {"age": {"type": "number"}},
			"required": ["age"]
		}
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	result := validateResult(t, rec)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Feedback, `convert "age" to a number`)
}

func TestValidateHandler_NoJSONFound(t *testing.T) {
	rec := postValidate(t, `{"text": "no json here"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	result := validateResult(t, rec)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Feedback, "No valid JSON objects")
}

func TestValidateHandler_NullContent(t *testing.T) {
	rec := postValidate(t, `{"text": "", "null_content": true}`)

	require.Equal(t, http.StatusOK, rec.Code)
	result := validateResult(t, rec)
	assert.True(t, result.Valid)
	assert.Nil(t, result.Value)
}

func TestValidateHandler_BadRequests(t *testing.T) {
	t.Run("wrong method", func(t *testing.T) {
		h := NewValidateHandler(nil)
		rec := httptest.NewRecorder()
		h.HandleValidate(rec, httptest.NewRequest(http.MethodGet, "/v1/validate", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("wrong content type", func(t *testing.T) {
		h := NewValidateHandler(nil)
		req := httptest.NewRequest(http.MethodPost, "/v1/validate", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		h.HandleValidate(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed schema", func(t *testing.T) {
		rec := postValidate(t, `{"text": "{}", "schema": {"type": 5}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
