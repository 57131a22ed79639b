package validators

import (
	"context"

	"github.com/rmolinamir/alphawave/memory"
	"github.com/rmolinamir/alphawave/response"
	"github.com/rmolinamir/alphawave/schema"
	"github.com/rmolinamir/alphawave/tokenizer"
	"github.com/rmolinamir/alphawave/types"
)

const (
	// DefaultMissingJSONFeedback is sent back when the response contains no
	// parsable JSON object.
	DefaultMissingJSONFeedback = "No valid JSON objects were found in the response. Return a valid JSON object."

	// DefaultErrorFeedback is the header prefixed to schema-violation
	// feedback.
	DefaultErrorFeedback = "The JSON returned had errors. Apply these fixes:"
)

// JSONResponseValidator extracts JSON objects from a response and validates
// them against an optional schema.
//
// Candidates are scanned from the last object in the text backward to the
// first, since later output supersedes earlier drafts. Before validation each
// candidate is cleaned of empty object-valued properties so a partial
// generation like {"metadata": {}} is not rejected for its placeholders. The
// first candidate to validate wins; when none does, feedback is built from
// the last object's errors (the first candidate examined), not an aggregate
// across candidates.
//
// The validator holds only immutable configuration and is safe for concurrent
// use.
type JSONResponseValidator struct {
	schema              *schema.Schema
	validator           schema.Validator
	missingJSONFeedback string
	errorFeedback       string
}

// NewJSONResponseValidator creates a validator for the given schema. A nil
// schema accepts any JSON object and returns the last one found.
func NewJSONResponseValidator(s *schema.Schema) *JSONResponseValidator {
	return &JSONResponseValidator{
		schema:              s,
		validator:           schema.Default(),
		missingJSONFeedback: DefaultMissingJSONFeedback,
		errorFeedback:       DefaultErrorFeedback,
	}
}

// WithMissingJSONFeedback overrides the no-JSON-found feedback message.
func (v *JSONResponseValidator) WithMissingJSONFeedback(feedback string) *JSONResponseValidator {
	v.missingJSONFeedback = feedback
	return v
}

// WithErrorFeedback overrides the header prefixed to schema-violation
// feedback.
func (v *JSONResponseValidator) WithErrorFeedback(feedback string) *JSONResponseValidator {
	v.errorFeedback = feedback
	return v
}

// WithValidator swaps the schema validation backend.
func (v *JSONResponseValidator) WithValidator(backend schema.Validator) *JSONResponseValidator {
	v.validator = backend
	return v
}

// Schema returns the configured schema, or nil.
func (v *JSONResponseValidator) Schema() *schema.Schema {
	return v.schema
}

func (v *JSONResponseValidator) ValidateResponse(_ context.Context, _ memory.Memory, _ tokenizer.Tokenizer, resp *types.PromptResponse, _ int) (*Validation, error) {
	text := ""
	nullContent := false
	if resp != nil {
		text = resp.Text()
		nullContent = resp.NullContent
	}

	objects := response.ParseAllObjects(text)
	if len(objects) == 0 {
		// An explicitly null assistant message is the model intentionally
		// returning nothing, which is different from output that could not
		// be parsed.
		if nullContent {
			return &Validation{Valid: true, Value: nil}, nil
		}
		return &Validation{Valid: false, Feedback: v.missingJSONFeedback}, nil
	}

	if v.schema == nil {
		return &Validation{Valid: true, Value: objects[len(objects)-1]}, nil
	}

	var firstFailure []schema.ErrorDescriptor
	for i := len(objects) - 1; i >= 0; i-- {
		cleaned := response.RemoveEmptyValues(objects[i])

		result, err := v.validator.Validate(cleaned, v.schema)
		if err != nil {
			// Backend failure means the configured schema itself is broken.
			// The contract never raises, so surface it through feedback via
			// the fallback template.
			if firstFailure == nil {
				firstFailure = []schema.ErrorDescriptor{{
					Property: "(root)",
					Message:  err.Error(),
				}}
			}
			continue
		}

		if result.Valid {
			return &Validation{Valid: true, Value: cleaned}, nil
		}
		if firstFailure == nil {
			firstFailure = result.Errors
		}
	}

	return &Validation{Valid: false, Feedback: buildFeedback(v.errorFeedback, firstFailure)}, nil
}
