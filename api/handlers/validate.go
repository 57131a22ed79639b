package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/rmolinamir/alphawave/memory"
	"github.com/rmolinamir/alphawave/schema"
	"github.com/rmolinamir/alphawave/tokenizer"
	"github.com/rmolinamir/alphawave/types"
	"github.com/rmolinamir/alphawave/validators"
)

// ValidateHandler exposes the JSON response validator over HTTP, so operators
// can reproduce a validation outcome for a given model output and schema
// without running a full turn.
type ValidateHandler struct {
	logger    *zap.Logger
	mem       memory.Memory
	tokenizer tokenizer.Tokenizer
}

// ValidateRequest is the POST /v1/validate body.
type ValidateRequest struct {
	// Text is the raw model output to validate.
	Text string `json:"text"`
	// Schema is an optional JSON Schema; absent, any JSON object passes.
	Schema json.RawMessage `json:"schema,omitempty"`
	// NullContent marks the text as an explicitly null assistant message.
	NullContent bool `json:"null_content,omitempty"`
	// RemainingAttempts is forwarded to the validator; it only matters for
	// validators that adapt feedback to the attempt budget.
	RemainingAttempts int `json:"remaining_attempts,omitempty"`
}

// ValidateResult is the response payload.
type ValidateResult struct {
	Valid    bool   `json:"valid"`
	Value    any    `json:"value,omitempty"`
	Feedback string `json:"feedback,omitempty"`
}

// NewValidateHandler creates the validation endpoint handler.
func NewValidateHandler(logger *zap.Logger) *ValidateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValidateHandler{
		logger:    logger.With(zap.String("component", "validate_handler")),
		mem:       memory.NewVolatileMemory(),
		tokenizer: tokenizer.ForModel(""),
	}
}

// HandleValidate serves POST /v1/validate.
func (h *ValidateHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req ValidateRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	var s *schema.Schema
	if len(req.Schema) > 0 {
		s = &schema.Schema{}
		if err := json.Unmarshal(req.Schema, s); err != nil {
			WriteError(w, types.NewError(types.ErrInvalidRequest, "invalid schema").
				WithCause(err).
				WithHTTPStatus(http.StatusBadRequest), h.logger)
			return
		}
	}

	resp := types.NewTextResponse(req.Text)
	resp.NullContent = req.NullContent

	validator := validators.NewJSONResponseValidator(s)
	validation, err := validator.ValidateResponse(r.Context(), h.mem, h.tokenizer, resp, req.RemainingAttempts)
	if err != nil {
		WriteError(w, types.NewError(types.ErrInternalError, "validation failed").
			WithCause(err), h.logger)
		return
	}

	WriteSuccess(w, ValidateResult{
		Valid:    validation.Valid,
		Value:    validation.Value,
		Feedback: validation.Feedback,
	})
}
