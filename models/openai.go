package models

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rmolinamir/alphawave/internal/tlsutil"
	"github.com/rmolinamir/alphawave/types"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// OpenAIConfig configures an OpenAI-compatible chat completions client.
type OpenAIConfig struct {
	// ProviderName identifies the client in errors and logs. Defaults to
	// "openai".
	ProviderName string

	// APIKey is the bearer token sent with each request.
	APIKey string

	// BaseURL is the API base, e.g. "https://api.openai.com". Required.
	BaseURL string

	// DefaultModel is used when the request options name no model.
	DefaultModel string

	// EndpointPath is the chat completions path. Defaults to
	// "/v1/chat/completions".
	EndpointPath string

	// Timeout is the HTTP client timeout. Defaults to 30s.
	Timeout time.Duration

	// MaxTokens is the default completion cap. Zero sends no cap.
	MaxTokens int

	// Temperature is the default sampling temperature when non-nil.
	Temperature *float32

	// TopP is the default nucleus sampling parameter when non-nil.
	TopP *float32

	// RequestsPerSecond enables client-side pacing when positive. Requests
	// wait on a token bucket before being sent.
	RequestsPerSecond float64

	// Retry enables backoff retries of retryable failures when non-nil.
	Retry *RetryPolicy

	// BuildHeaders overrides the default "Authorization: Bearer" headers.
	BuildHeaders func(req *http.Request, apiKey string)

	// RequestHook can mutate the wire request before it is marshaled, for
	// provider-specific fields.
	RequestHook func(body *ChatRequest)
}

// OpenAIModel is a PromptCompletionModel speaking the OpenAI-compatible chat
// completions protocol. It also works against DeepSeek, Qwen, vLLM, Ollama,
// and other gateways that expose the same wire shape.
type OpenAIModel struct {
	cfg     OpenAIConfig
	client  *http.Client
	logger  *zap.Logger
	limiter *rate.Limiter
	retry   *retryer
}

var (
	_ PromptCompletionModel = (*OpenAIModel)(nil)
	_ StreamingModel        = (*OpenAIModel)(nil)
)

// NewOpenAIModel creates a client with the given config.
func NewOpenAIModel(cfg OpenAIConfig, logger *zap.Logger) *OpenAIModel {
	if cfg.ProviderName == "" {
		cfg.ProviderName = "openai"
	}
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/v1/chat/completions"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &OpenAIModel{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(timeout),
		logger: logger,
	}
	if cfg.RequestsPerSecond > 0 {
		m.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	if cfg.Retry != nil {
		m.retry = newRetryer(cfg.Retry, logger)
	}
	return m
}

// Name returns the configured provider name.
func (m *OpenAIModel) Name() string { return m.cfg.ProviderName }

// ChatRequest is the OpenAI-compatible chat completions request body.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float32      `json:"temperature,omitempty"`
	TopP        *float32      `json:"top_p,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

// chatMessage mirrors the wire message shape. Content is a pointer so an
// explicitly-null content field survives decoding; assistant turns that only
// carry tool calls arrive as "content": null and must not be confused with
// empty text.
type chatMessage struct {
	Role       string         `json:"role"`
	Content    *string        `json:"content"`
	Name       string         `json:"name,omitempty"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

type chatChoice struct {
	Index        int          `json:"index"`
	FinishReason string       `json:"finish_reason"`
	Message      chatMessage  `json:"message"`
	Delta        *chatMessage `json:"delta,omitempty"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
}

// CompletePrompt sends the messages and returns the model's response.
// Provider failures come back as a non-success PromptResponse.
func (m *OpenAIModel) CompletePrompt(ctx context.Context, messages []types.Message, opts *RequestOptions) (*types.PromptResponse, error) {
	if m.retry != nil {
		return m.retry.do(ctx, func() (*types.PromptResponse, error) {
			return m.completeOnce(ctx, messages, opts)
		})
	}
	return m.completeOnce(ctx, messages, opts)
}

func (m *OpenAIModel) completeOnce(ctx context.Context, messages []types.Message, opts *RequestOptions) (*types.PromptResponse, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	body := m.buildRequest(messages, opts, false)
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	m.buildHeaders(httpReq)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return errorResponse(&types.Error{
			Code: types.ErrUpstreamError, Message: err.Error(),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: m.Name(),
		}), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := ReadErrorMessage(resp.Body)
		return errorResponse(MapHTTPError(resp.StatusCode, msg, m.Name())), nil
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return errorResponse(&types.Error{
			Code: types.ErrUpstreamError, Message: err.Error(),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: m.Name(),
		}), nil
	}

	return m.toPromptResponse(decoded), nil
}

// StreamPrompt sends the messages and streams the completion via SSE.
func (m *OpenAIModel) StreamPrompt(ctx context.Context, messages []types.Message, opts *RequestOptions) (<-chan StreamChunk, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	body := m.buildRequest(messages, opts, true)
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	m.buildHeaders(httpReq)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, &types.Error{
			Code: types.ErrUpstreamError, Message: err.Error(),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: m.Name(),
		}
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		msg := ReadErrorMessage(resp.Body)
		return nil, MapHTTPError(resp.StatusCode, msg, m.Name())
	}

	return streamSSE(ctx, resp.Body, m.Name()), nil
}

func (m *OpenAIModel) buildRequest(messages []types.Message, opts *RequestOptions, stream bool) ChatRequest {
	body := ChatRequest{
		Model:       opts.model(m.cfg.DefaultModel),
		Messages:    toWireMessages(messages),
		MaxTokens:   m.cfg.MaxTokens,
		Temperature: m.cfg.Temperature,
		TopP:        m.cfg.TopP,
		Stream:      stream,
	}
	if opts != nil {
		if opts.MaxTokens > 0 {
			body.MaxTokens = opts.MaxTokens
		}
		if opts.Temperature != nil {
			body.Temperature = opts.Temperature
		}
		if opts.TopP != nil {
			body.TopP = opts.TopP
		}
		if len(opts.Stop) > 0 {
			body.Stop = opts.Stop
		}
	}
	if m.cfg.RequestHook != nil {
		m.cfg.RequestHook(&body)
	}
	return body
}

func (m *OpenAIModel) endpoint() string {
	return strings.TrimRight(m.cfg.BaseURL, "/") + m.cfg.EndpointPath
}

func (m *OpenAIModel) buildHeaders(req *http.Request) {
	if m.cfg.BuildHeaders != nil {
		m.cfg.BuildHeaders(req, m.cfg.APIKey)
		return
	}
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
}

func (m *OpenAIModel) wait(ctx context.Context) error {
	if m.limiter == nil {
		return nil
	}
	return m.limiter.Wait(ctx)
}

// toPromptResponse converts the wire response, resolving the null-content
// signal once at this boundary.
func (m *OpenAIModel) toPromptResponse(decoded chatResponse) *types.PromptResponse {
	out := &types.PromptResponse{
		Status: types.StatusSuccess,
		Model:  decoded.Model,
	}
	if len(decoded.Choices) > 0 {
		wire := decoded.Choices[0].Message
		msg := types.Message{Role: types.RoleAssistant, Name: wire.Name}
		if wire.Content != nil {
			msg.Content = *wire.Content
		} else {
			out.NullContent = true
		}
		for _, tc := range wire.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, types.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
		out.Message = &msg
	}
	if decoded.Usage != nil {
		out.Usage = types.TokenUsage{
			PromptTokens:     decoded.Usage.PromptTokens,
			CompletionTokens: decoded.Usage.CompletionTokens,
			TotalTokens:      decoded.Usage.TotalTokens,
		}
	}
	return out
}

func toWireMessages(msgs []types.Message) []chatMessage {
	out := make([]chatMessage, 0, len(msgs))
	for _, m := range msgs {
		content := m.Content
		wire := chatMessage{
			Role:       string(m.Role),
			Content:    &content,
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			wtc := chatToolCall{ID: tc.ID, Type: "function"}
			wtc.Function.Name = tc.Name
			wtc.Function.Arguments = tc.Arguments
			wire.ToolCalls = append(wire.ToolCalls, wtc)
		}
		out = append(out, wire)
	}
	return out
}

// streamSSE parses an OpenAI-compatible SSE stream into chunks. The caller
// must have checked the response status first; body is closed when the
// stream ends.
func streamSSE(ctx context.Context, body io.ReadCloser, provider string) <-chan StreamChunk {
	ch := make(chan StreamChunk)
	go func() {
		defer body.Close()
		defer close(ch)
		reader := bufio.NewReader(body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err != io.EOF {
					select {
					case <-ctx.Done():
					case ch <- StreamChunk{Err: &types.Error{
						Code: types.ErrUpstreamError, Message: err.Error(),
						HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: provider,
					}}:
					}
				}
				return
			}
			line = strings.TrimSpace(line)
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return
			}

			var decoded chatResponse
			if err := json.Unmarshal([]byte(data), &decoded); err != nil {
				select {
				case <-ctx.Done():
				case ch <- StreamChunk{Err: &types.Error{
					Code: types.ErrUpstreamError, Message: err.Error(),
					HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: provider,
				}}:
				}
				return
			}

			for _, choice := range decoded.Choices {
				chunk := StreamChunk{FinishReason: choice.FinishReason}
				if choice.Delta != nil && choice.Delta.Content != nil {
					chunk.Delta = *choice.Delta.Content
				}
				select {
				case <-ctx.Done():
					return
				case ch <- chunk:
				}
			}
		}
	}()
	return ch
}
