package models

import (
	"context"

	"github.com/rmolinamir/alphawave/types"
)

// RequestOptions carries per-call overrides for a completion request. A nil
// options value uses the client's configured defaults.
type RequestOptions struct {
	// Model overrides the client's default model.
	Model string

	// MaxTokens caps the completion length. Zero means the client default.
	MaxTokens int

	// Temperature overrides the sampling temperature when non-nil.
	Temperature *float32

	// TopP overrides nucleus sampling when non-nil.
	TopP *float32

	// Stop sets stop sequences for this request.
	Stop []string
}

// PromptCompletionModel completes a rendered prompt.
//
// Provider failures (auth, rate limits, upstream errors) come back as a
// PromptResponse with a non-success status and a populated Error field; the
// Go error return is reserved for request construction problems and context
// cancellation.
type PromptCompletionModel interface {
	// CompletePrompt sends the messages and returns the model's response.
	CompletePrompt(ctx context.Context, messages []types.Message, opts *RequestOptions) (*types.PromptResponse, error)

	// Name returns the client's name, e.g. "openai" or "gemini".
	Name() string
}

// StreamChunk is one increment of a streamed completion.
type StreamChunk struct {
	// Delta is the content fragment added by this chunk.
	Delta string

	// FinishReason is set on the final chunk of a choice.
	FinishReason string

	// Err is set when the stream failed mid-flight; the channel closes after
	// an error chunk.
	Err *types.Error
}

// StreamingModel is implemented by models that can stream completions.
type StreamingModel interface {
	PromptCompletionModel

	// StreamPrompt sends the messages and returns a channel of chunks. The
	// channel closes when the stream ends or ctx is cancelled.
	StreamPrompt(ctx context.Context, messages []types.Message, opts *RequestOptions) (<-chan StreamChunk, error)
}

func (o *RequestOptions) model(fallback string) string {
	if o != nil && o.Model != "" {
		return o.Model
	}
	return fallback
}
