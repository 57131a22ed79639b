package validators

import (
	"context"
	"strings"

	"github.com/rmolinamir/alphawave/memory"
	"github.com/rmolinamir/alphawave/tokenizer"
	"github.com/rmolinamir/alphawave/types"
)

// Validation is the outcome of validating one model response.
type Validation struct {
	// Valid reports whether the response was accepted.
	Valid bool `json:"valid"`

	// Value carries the accepted payload when Valid. For JSON validation it
	// is the cleaned candidate object; a nil value with Valid set means the
	// model explicitly returned null content.
	Value any `json:"value,omitempty"`

	// Feedback carries repair instructions for the model when not Valid.
	Feedback string `json:"feedback,omitempty"`
}

// ResponseValidator checks a model response on behalf of the orchestration
// loop. remainingAttempts is informational: it tells the validator how many
// repair rounds the caller still has, but retry policy belongs to the caller.
// The error return is reserved for validators that perform I/O; validation
// failures are reported through the Validation, never as errors.
type ResponseValidator interface {
	ValidateResponse(ctx context.Context, mem memory.Memory, tok tokenizer.Tokenizer, resp *types.PromptResponse, remainingAttempts int) (*Validation, error)
}

// DefaultEmptyResponseFeedback is sent back when a response carries no text.
const DefaultEmptyResponseFeedback = "An empty response was returned. Return a response with your answer."

// DefaultResponseValidator accepts any response that carries non-empty text.
type DefaultResponseValidator struct{}

// NewDefaultResponseValidator creates the pass-through validator.
func NewDefaultResponseValidator() *DefaultResponseValidator {
	return &DefaultResponseValidator{}
}

func (v *DefaultResponseValidator) ValidateResponse(_ context.Context, _ memory.Memory, _ tokenizer.Tokenizer, resp *types.PromptResponse, _ int) (*Validation, error) {
	text := ""
	if resp != nil {
		text = resp.Text()
	}

	if strings.TrimSpace(text) == "" {
		return &Validation{Valid: false, Feedback: DefaultEmptyResponseFeedback}, nil
	}
	return &Validation{Valid: true, Value: text}, nil
}
