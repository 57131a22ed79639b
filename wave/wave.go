package wave

import (
	"context"
	"time"

	"github.com/rmolinamir/alphawave/memory"
	"github.com/rmolinamir/alphawave/models"
	"github.com/rmolinamir/alphawave/prompts"
	"github.com/rmolinamir/alphawave/tokenizer"
	"github.com/rmolinamir/alphawave/types"
	"github.com/rmolinamir/alphawave/validators"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultRepairFeedback is fed back to the model when a validator rejects a
// response without providing its own feedback.
const DefaultRepairFeedback = "The response was invalid. Try another strategy."

// Recorder receives wave telemetry. All methods must be safe for concurrent
// use; a nil Recorder disables recording.
type Recorder interface {
	// RecordModelRequest is called once per model call.
	RecordModelRequest(model string, status types.ResponseStatus, duration time.Duration, usage types.TokenUsage)

	// RecordValidation is called once per validation outcome.
	RecordValidation(valid bool)

	// RecordRepairAttempts is called at the end of a turn with the number of
	// repair rounds it used.
	RecordRepairAttempts(attempts int)
}

// Options configures an AlphaWave.
type Options struct {
	// Model completes rendered prompts. Required.
	Model models.PromptCompletionModel

	// Prompt is the prompt to render each turn. Required.
	Prompt prompts.Section

	// Validator checks each response. Defaults to the validator that accepts
	// any non-empty text.
	Validator validators.ResponseValidator

	// Memory holds the wave's variables and conversation history. Defaults
	// to a fresh in-process memory.
	Memory memory.Memory

	// Tokenizer measures prompt budgets. Defaults to the registered
	// tokenizer for the model's name, or a heuristic estimator.
	Tokenizer tokenizer.Tokenizer

	// InputVariable is the memory variable the user input is written to
	// before rendering, for {{$input}} interpolation. Defaults to "input".
	InputVariable string

	// MaxHistoryMessages bounds the conversation history kept in memory.
	// Defaults to 10.
	MaxHistoryMessages int

	// MaxInputTokens is the prompt render budget. Defaults to 2048.
	MaxInputTokens int

	// MaxRepairAttempts bounds the repair loop. Defaults to 3; negative
	// disables repair entirely.
	MaxRepairAttempts int

	// RetryInvalidResponses re-sends the original prompt once before the
	// feedback-driven repair loop starts, for models that fail transiently.
	RetryInvalidResponses bool

	// Logger defaults to a nop logger.
	Logger *zap.Logger

	// Tracer enables a span per turn when set.
	Tracer trace.Tracer

	// Recorder receives telemetry when set.
	Recorder Recorder
}

// AlphaWave drives validated prompt completions against a model.
//
// The wave itself holds no per-turn state beyond the last validation, so a
// single wave can serve sequential turns of one conversation. Concurrent
// conversations get a wave each, sharing the model and validator.
type AlphaWave struct {
	opts   Options
	logger *zap.Logger

	lastValidation *validators.Validation
	lastAttempts   int
}

// New creates an AlphaWave. Model and Prompt are required; everything else
// has defaults.
func New(opts Options) (*AlphaWave, error) {
	if opts.Model == nil {
		return nil, types.NewError(types.ErrModelNotSet, "wave requires a model")
	}
	if opts.Prompt == nil {
		return nil, types.NewError(types.ErrInvalidRequest, "wave requires a prompt")
	}
	if opts.Validator == nil {
		opts.Validator = validators.NewDefaultResponseValidator()
	}
	if opts.Memory == nil {
		opts.Memory = memory.NewVolatileMemory()
	}
	if opts.Tokenizer == nil {
		opts.Tokenizer = tokenizer.ForModel(opts.Model.Name())
	}
	if opts.InputVariable == "" {
		opts.InputVariable = "input"
	}
	if opts.MaxHistoryMessages <= 0 {
		opts.MaxHistoryMessages = 10
	}
	if opts.MaxInputTokens <= 0 {
		opts.MaxInputTokens = 2048
	}
	if opts.MaxRepairAttempts == 0 {
		opts.MaxRepairAttempts = 3
	}
	if opts.MaxRepairAttempts < 0 {
		opts.MaxRepairAttempts = 0
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &AlphaWave{opts: opts, logger: opts.Logger}, nil
}

// Memory returns the wave's memory.
func (w *AlphaWave) Memory() memory.Memory { return w.opts.Memory }

// LastValidation returns the validation of the most recent successful turn,
// or nil before the first one.
func (w *AlphaWave) LastValidation() *validators.Validation { return w.lastValidation }

// LastRepairAttempts returns how many repair rounds the most recent turn
// used.
func (w *AlphaWave) LastRepairAttempts() int { return w.lastAttempts }

// CompletePrompt runs one turn: write the input, render the prompt, call the
// model, validate, and repair within the attempt budget.
//
// A non-success model status is returned as-is for caller policy. When the
// repair budget is exhausted the response carries StatusInvalidResponse and
// the last feedback in Raw.
func (w *AlphaWave) CompletePrompt(ctx context.Context, input string) (*types.PromptResponse, error) {
	if w.opts.Tracer != nil {
		var span trace.Span
		ctx, span = w.opts.Tracer.Start(ctx, "alphawave.complete_prompt",
			trace.WithAttributes(attribute.String("model", w.opts.Model.Name())))
		defer span.End()
	}

	if input != "" {
		if err := w.opts.Memory.Set(ctx, w.opts.InputVariable, input); err != nil {
			return nil, err
		}
	}

	resp, err := w.completeAndValidate(ctx, w.opts.Memory, w.opts.MaxRepairAttempts)
	if err != nil || !resp.response.IsSuccess() {
		if resp != nil {
			return resp.response, err
		}
		return nil, err
	}

	if resp.validation.Valid {
		if err := w.appendExchange(ctx, input, resp.response); err != nil {
			return nil, err
		}
		w.lastValidation = resp.validation
		w.lastAttempts = 0
		w.record(func(r Recorder) { r.RecordRepairAttempts(0) })
		return resp.response, nil
	}

	return w.repair(ctx, input, resp.validation)
}

// attempt bundles one model call with its validation.
type attempt struct {
	response   *types.PromptResponse
	validation *validators.Validation
}

func (w *AlphaWave) completeAndValidate(ctx context.Context, mem memory.Memory, remainingAttempts int) (*attempt, error) {
	rendered, err := w.opts.Prompt.RenderAsMessages(ctx, mem, w.opts.Tokenizer, w.opts.MaxInputTokens)
	if err != nil {
		return nil, err
	}
	if rendered.TooLong {
		return &attempt{response: types.NewErrorResponse(types.StatusTooLong,
			types.NewError(types.ErrPromptTooLong, "the rendered prompt exceeds the input token budget"),
		)}, nil
	}

	start := time.Now()
	resp, err := w.opts.Model.CompletePrompt(ctx, rendered.Messages, nil)
	if err != nil {
		return nil, err
	}
	w.record(func(r Recorder) {
		r.RecordModelRequest(w.opts.Model.Name(), resp.Status, time.Since(start), resp.Usage)
	})
	if !resp.IsSuccess() {
		return &attempt{response: resp}, nil
	}

	validation, err := w.opts.Validator.ValidateResponse(ctx, mem, w.opts.Tokenizer, resp, remainingAttempts)
	if err != nil {
		return nil, err
	}
	w.record(func(r Recorder) { r.RecordValidation(validation.Valid) })
	return &attempt{response: resp, validation: validation}, nil
}

// repair drives the feedback loop on a memory fork. Failed rounds stay in
// the fork; a validated exchange is written to the base memory.
func (w *AlphaWave) repair(ctx context.Context, input string, failed *validators.Validation) (*types.PromptResponse, error) {
	fork := memory.NewFork(w.opts.Memory)

	if w.opts.RetryInvalidResponses {
		// One plain retry before feedback, for transiently flaky models.
		retried, err := w.completeAndValidate(ctx, fork, w.opts.MaxRepairAttempts)
		if err != nil {
			return nil, err
		}
		if !retried.response.IsSuccess() {
			return retried.response, nil
		}
		if retried.validation.Valid {
			if err := w.appendExchange(ctx, input, retried.response); err != nil {
				return nil, err
			}
			w.lastValidation = retried.validation
			w.lastAttempts = 0
			w.record(func(r Recorder) { r.RecordRepairAttempts(0) })
			return retried.response, nil
		}
		failed = retried.validation
	}

	feedback := failed.Feedback
	for attempts := 1; attempts <= w.opts.MaxRepairAttempts; attempts++ {
		if feedback == "" {
			feedback = DefaultRepairFeedback
		}
		w.logger.Debug("repairing response",
			zap.Int("attempt", attempts),
			zap.Int("max_attempts", w.opts.MaxRepairAttempts),
			zap.String("feedback", feedback),
		)

		if err := fork.AppendMessage(ctx, types.NewUserMessage(feedback)); err != nil {
			return nil, err
		}

		remaining := w.opts.MaxRepairAttempts - attempts
		result, err := w.completeAndValidate(ctx, fork, remaining)
		if err != nil {
			return nil, err
		}
		if !result.response.IsSuccess() {
			return result.response, nil
		}
		if result.validation.Valid {
			if err := w.appendExchange(ctx, input, result.response); err != nil {
				return nil, err
			}
			w.lastValidation = result.validation
			w.lastAttempts = attempts
			w.record(func(r Recorder) { r.RecordRepairAttempts(attempts) })
			w.logger.Info("response repaired", zap.Int("attempts", attempts))
			return result.response, nil
		}

		if err := fork.AppendMessage(ctx, types.NewAssistantMessage(result.response.Text())); err != nil {
			return nil, err
		}
		feedback = result.validation.Feedback
	}

	w.lastAttempts = w.opts.MaxRepairAttempts
	w.record(func(r Recorder) { r.RecordRepairAttempts(w.opts.MaxRepairAttempts) })
	w.logger.Warn("repair budget exhausted",
		zap.Int("attempts", w.opts.MaxRepairAttempts),
		zap.String("last_feedback", feedback),
	)
	return &types.PromptResponse{
		Status: types.StatusInvalidResponse,
		Raw:    feedback,
		Error:  types.NewError(types.ErrRepairExhausted, "response failed validation after all repair attempts"),
	}, nil
}

// appendExchange writes the validated turn to the base history, bounded by
// MaxHistoryMessages.
func (w *AlphaWave) appendExchange(ctx context.Context, input string, resp *types.PromptResponse) error {
	mem := w.opts.Memory
	if input != "" {
		if err := mem.AppendMessage(ctx, types.NewUserMessage(input)); err != nil {
			return err
		}
	}
	if err := mem.AppendMessage(ctx, types.NewAssistantMessage(resp.Text())); err != nil {
		return err
	}

	msgs, err := mem.Messages(ctx)
	if err != nil {
		return err
	}
	if len(msgs) > w.opts.MaxHistoryMessages {
		return mem.SetMessages(ctx, msgs[len(msgs)-w.opts.MaxHistoryMessages:])
	}
	return nil
}

func (w *AlphaWave) record(fn func(Recorder)) {
	if w.opts.Recorder != nil {
		fn(w.opts.Recorder)
	}
}
