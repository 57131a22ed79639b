// Package alphawave provides a top-level convenience entry point for
// creating validated prompt-completion waves with minimal boilerplate.
//
// Usage:
//
//	import "github.com/rmolinamir/alphawave"
//
//	w, err := alphawave.New(
//		alphawave.WithOpenAI("gpt-4o-mini"),
//		alphawave.WithSystemPrompt("Answer as JSON."),
//		alphawave.WithSchema(mySchema),
//	)
//	resp, err := w.CompletePrompt(ctx, "What is the answer?")
//
// This is a thin wrapper around [wave.New]; use the wave package directly
// when you need full control over prompts, memory, or validators.
package alphawave

import (
	"fmt"
	"os"

	"github.com/rmolinamir/alphawave/models"
	"github.com/rmolinamir/alphawave/prompts"
	"github.com/rmolinamir/alphawave/schema"
	"github.com/rmolinamir/alphawave/types"
	"github.com/rmolinamir/alphawave/validators"
	"github.com/rmolinamir/alphawave/wave"
	"go.uber.org/zap"
)

// Option configures the wave created by [New].
type Option func(*options)

type options struct {
	model        models.PromptCompletionModel
	systemPrompt string
	schema       *schema.Schema
	validator    validators.ResponseValidator
	logger       *zap.Logger
	waveOpts     wave.Options

	// Model shortcut fields, used when model is nil.
	providerName string
	modelName    string
	apiKey       string
	baseURL      string
}

// WithModel sets a pre-built prompt completion model.
func WithModel(m models.PromptCompletionModel) Option {
	return func(o *options) { o.model = m }
}

// WithOpenAI creates an OpenAI client using the given model. The API key is
// read from the OPENAI_API_KEY environment variable unless [WithAPIKey]
// overrides it.
func WithOpenAI(model string) Option {
	return func(o *options) {
		o.providerName = "openai"
		o.modelName = model
		o.baseURL = "https://api.openai.com"
		if o.apiKey == "" {
			o.apiKey = os.Getenv("OPENAI_API_KEY")
		}
	}
}

// WithGemini creates a Gemini client using the given model. The API key is
// read from the GEMINI_API_KEY environment variable unless [WithAPIKey]
// overrides it.
func WithGemini(model string) Option {
	return func(o *options) {
		o.providerName = "gemini"
		o.modelName = model
		if o.apiKey == "" {
			o.apiKey = os.Getenv("GEMINI_API_KEY")
		}
	}
}

// WithAPIKey overrides the API key for the model shortcuts.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithBaseURL overrides the API base URL for the OpenAI shortcut, for
// OpenAI-compatible gateways.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithSystemPrompt sets the system prompt.
func WithSystemPrompt(text string) Option {
	return func(o *options) { o.systemPrompt = text }
}

// WithSchema validates every response against the schema with a
// [validators.JSONResponseValidator].
func WithSchema(s *schema.Schema) Option {
	return func(o *options) { o.schema = s }
}

// WithValidator sets a custom response validator. Takes precedence over
// [WithSchema].
func WithValidator(v validators.ResponseValidator) Option {
	return func(o *options) { o.validator = v }
}

// WithMaxRepairAttempts bounds the repair loop.
func WithMaxRepairAttempts(n int) Option {
	return func(o *options) { o.waveOpts.MaxRepairAttempts = n }
}

// WithMaxHistoryMessages bounds the conversation history.
func WithMaxHistoryMessages(n int) Option {
	return func(o *options) { o.waveOpts.MaxHistoryMessages = n }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New creates a [wave.AlphaWave] with minimal configuration. At minimum a
// model must be specified via [WithOpenAI], [WithGemini], or [WithModel].
func New(opts ...Option) (*wave.AlphaWave, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	model := o.model
	if model == nil {
		switch o.providerName {
		case "openai":
			if o.apiKey == "" {
				return nil, fmt.Errorf("alphawave: OPENAI_API_KEY is not set")
			}
			model = models.NewOpenAIModel(models.OpenAIConfig{
				APIKey:       o.apiKey,
				BaseURL:      o.baseURL,
				DefaultModel: o.modelName,
			}, o.logger)
		case "gemini":
			if o.apiKey == "" {
				return nil, fmt.Errorf("alphawave: GEMINI_API_KEY is not set")
			}
			model = models.NewGeminiModel(models.GeminiConfig{
				APIKey:       o.apiKey,
				DefaultModel: o.modelName,
			}, o.logger)
		default:
			return nil, types.NewError(types.ErrModelNotSet, "alphawave: no model configured")
		}
	}

	validator := o.validator
	if validator == nil && o.schema != nil {
		validator = validators.NewJSONResponseValidator(o.schema)
	}

	sections := []prompts.Section{}
	if o.systemPrompt != "" {
		sections = append(sections, prompts.NewSystemMessage(o.systemPrompt))
	}
	sections = append(sections,
		prompts.NewConversationHistory(o.waveOpts.MaxHistoryMessages),
		prompts.NewTemplateSection(types.RoleUser, "{{$input}}"),
	)

	waveOpts := o.waveOpts
	waveOpts.Model = model
	waveOpts.Prompt = prompts.NewPrompt(sections...)
	waveOpts.Validator = validator
	waveOpts.Logger = o.logger
	return wave.New(waveOpts)
}
