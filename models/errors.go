package models

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rmolinamir/alphawave/types"
)

// MapHTTPError maps an HTTP status code to a types.Error with the
// appropriate retryable flag. Shared by all HTTP-backed clients.
func MapHTTPError(status int, msg, provider string) *types.Error {
	switch status {
	case http.StatusUnauthorized:
		return &types.Error{Code: types.ErrUnauthorized, Message: msg, HTTPStatus: status, Provider: provider}
	case http.StatusForbidden:
		return &types.Error{Code: types.ErrForbidden, Message: msg, HTTPStatus: status, Provider: provider}
	case http.StatusTooManyRequests:
		return &types.Error{Code: types.ErrRateLimited, Message: msg, HTTPStatus: status, Retryable: true, Provider: provider}
	case http.StatusBadRequest:
		msgLower := strings.ToLower(msg)
		if strings.Contains(msgLower, "quota") ||
			strings.Contains(msgLower, "credit") ||
			strings.Contains(msgLower, "billing") {
			return &types.Error{Code: types.ErrQuotaExceeded, Message: msg, HTTPStatus: status, Provider: provider}
		}
		if strings.Contains(msgLower, "context length") ||
			strings.Contains(msgLower, "maximum context") ||
			strings.Contains(msgLower, "too many tokens") {
			return &types.Error{Code: types.ErrContextTooLong, Message: msg, HTTPStatus: status, Provider: provider}
		}
		return &types.Error{Code: types.ErrInvalidRequest, Message: msg, HTTPStatus: status, Provider: provider}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &types.Error{Code: types.ErrUpstreamError, Message: msg, HTTPStatus: status, Retryable: true, Provider: provider}
	case 529: // model overloaded, used by some providers
		return &types.Error{Code: types.ErrModelOverloaded, Message: msg, HTTPStatus: status, Retryable: true, Provider: provider}
	default:
		return &types.Error{Code: types.ErrUpstreamError, Message: msg, HTTPStatus: status, Retryable: status >= 500, Provider: provider}
	}
}

// ReadErrorMessage reads the error message from a response body, preferring
// the OpenAI-style {"error": {"message": ...}} envelope and falling back to
// the raw text.
func ReadErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil {
		return "failed to read error response"
	}

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    any    `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		if errResp.Error.Type != "" {
			return fmt.Sprintf("%s (type: %s)", errResp.Error.Message, errResp.Error.Type)
		}
		return errResp.Error.Message
	}

	return string(data)
}

// responseStatus maps an error code to the PromptResponse status the wave
// loop branches on.
func responseStatus(code types.ErrorCode) types.ResponseStatus {
	switch code {
	case types.ErrRateLimited, types.ErrQuotaExceeded, types.ErrModelOverloaded:
		return types.StatusRateLimited
	case types.ErrContextTooLong:
		return types.StatusTooLong
	default:
		return types.StatusError
	}
}

// errorResponse wraps a client error into a PromptResponse.
func errorResponse(err *types.Error) *types.PromptResponse {
	return types.NewErrorResponse(responseStatus(err.Code), err)
}
