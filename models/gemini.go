package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rmolinamir/alphawave/types"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiConfig configures the Gemini client.
type GeminiConfig struct {
	// APIKey is the Google AI Studio API key. Required.
	APIKey string

	// DefaultModel is the model name, e.g. "gemini-2.0-flash". Required
	// unless every request names a model.
	DefaultModel string

	// Temperature is the default sampling temperature when non-nil.
	Temperature *float32

	// MaxOutputTokens caps the completion length. Zero sends no cap.
	MaxOutputTokens int32

	// ResponseMIMEType forces the response format, e.g. "application/json"
	// for schema-validated waves.
	ResponseMIMEType string
}

// GeminiModel is a PromptCompletionModel backed by the official genai SDK.
//
// System messages become the system instruction; the rest of the
// conversation maps onto a chat session with user/model roles, and the final
// user message is sent as the new turn.
type GeminiModel struct {
	cfg    GeminiConfig
	logger *zap.Logger
	opts   []option.ClientOption
}

var _ PromptCompletionModel = (*GeminiModel)(nil)

// NewGeminiModel creates a Gemini client. Extra client options (custom
// endpoint, credentials) are passed through to the SDK.
func NewGeminiModel(cfg GeminiConfig, logger *zap.Logger, opts ...option.ClientOption) *GeminiModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiModel{cfg: cfg, logger: logger, opts: opts}
}

// Name returns "gemini".
func (m *GeminiModel) Name() string { return "gemini" }

// CompletePrompt sends the messages as a chat turn and returns the model's
// response.
func (m *GeminiModel) CompletePrompt(ctx context.Context, messages []types.Message, opts *RequestOptions) (*types.PromptResponse, error) {
	if strings.TrimSpace(m.cfg.APIKey) == "" {
		return nil, errors.New("gemini: api key is empty")
	}

	clientOpts := append([]option.ClientOption{option.WithAPIKey(m.cfg.APIKey)}, m.opts...)
	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	defer client.Close()

	modelName := opts.model(m.cfg.DefaultModel)
	model := client.GenerativeModel(modelName)
	m.applyConfig(model, opts)

	system, history, last := splitConversation(messages)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	session := model.StartChat()
	session.History = history

	start := time.Now()
	resp, err := session.SendMessage(ctx, genai.Text(last))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return errorResponse(mapGeminiError(err)), nil
	}
	m.logger.Debug("gemini completion",
		zap.String("model", modelName),
		zap.Duration("latency", time.Since(start)),
	)

	return m.toPromptResponse(resp, modelName), nil
}

func (m *GeminiModel) applyConfig(model *genai.GenerativeModel, opts *RequestOptions) {
	if m.cfg.Temperature != nil {
		model.GenerationConfig.Temperature = m.cfg.Temperature
	}
	if m.cfg.MaxOutputTokens > 0 {
		tokens := m.cfg.MaxOutputTokens
		model.GenerationConfig.MaxOutputTokens = &tokens
	}
	if m.cfg.ResponseMIMEType != "" {
		model.GenerationConfig.ResponseMIMEType = m.cfg.ResponseMIMEType
	}
	if opts != nil {
		if opts.Temperature != nil {
			model.GenerationConfig.Temperature = opts.Temperature
		}
		if opts.TopP != nil {
			model.GenerationConfig.TopP = opts.TopP
		}
		if opts.MaxTokens > 0 {
			tokens := int32(opts.MaxTokens)
			model.GenerationConfig.MaxOutputTokens = &tokens
		}
		if len(opts.Stop) > 0 {
			model.GenerationConfig.StopSequences = opts.Stop
		}
	}
}

// splitConversation partitions messages into the system instruction, the
// chat history, and the final user turn. Gemini has no system role in chat
// history and rejects an empty final message, so a conversation that ends on
// an assistant turn gets an empty continuation prompt.
func splitConversation(messages []types.Message) (system string, history []*genai.Content, last string) {
	var systems []string
	var turns []types.Message
	for _, msg := range messages {
		if msg.Role == types.RoleSystem {
			systems = append(systems, msg.Content)
			continue
		}
		turns = append(turns, msg)
	}
	system = strings.Join(systems, "\n\n")

	if len(turns) == 0 {
		return system, nil, ""
	}

	lastIdx := len(turns) - 1
	if turns[lastIdx].Role == types.RoleUser {
		last = turns[lastIdx].Content
		turns = turns[:lastIdx]
	}

	for _, msg := range turns {
		role := "user"
		if msg.Role == types.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return system, history, last
}

func (m *GeminiModel) toPromptResponse(resp *genai.GenerateContentResponse, modelName string) *types.PromptResponse {
	out := &types.PromptResponse{Status: types.StatusSuccess, Model: modelName}

	text, found := firstCandidateText(resp)
	msg := types.NewAssistantMessage(text)
	out.Message = &msg
	if !found {
		// A candidate with no text part is the SDK's rendition of null
		// content (e.g. a function-call-only turn).
		out.NullContent = true
	}

	if resp != nil && resp.UsageMetadata != nil {
		out.Usage = types.TokenUsage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out
}

func firstCandidateText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil {
		return "", false
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t), true
			}
		}
	}
	return "", false
}

func mapGeminiError(err error) *types.Error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return MapHTTPError(apiErr.Code, apiErr.Message, "gemini")
	}
	return &types.Error{
		Code: types.ErrUpstreamError, Message: err.Error(),
		Retryable: true, Provider: "gemini", Cause: err,
	}
}
