package bot

import (
	"context"
	"sync"
	"time"

	"github.com/rmolinamir/alphawave/audit"
	"github.com/rmolinamir/alphawave/store"
	"github.com/rmolinamir/alphawave/types"
	"github.com/rmolinamir/alphawave/wave"
	"go.uber.org/zap"
)

// DefaultInvalidReply is sent when the wave exhausts its repair budget.
const DefaultInvalidReply = "Sorry, I could not produce a valid answer for that. Please try rephrasing."

// DefaultBusyReply is sent when the model is rate limited or unavailable.
const DefaultBusyReply = "I'm a bit overloaded right now. Please try again in a moment."

// WaveFactory builds the wave for a new conversation. Each conversation gets
// its own wave so histories never mix; the factory typically shares one
// model and validator across all of them.
type WaveFactory func(conversationID string) (*wave.AlphaWave, error)

// WaveHandler runs each incoming turn through a per-conversation AlphaWave,
// optionally persisting transcripts and writing audit records.
//
// Turns of one conversation are serialized: a wave only supports sequential
// turns, and the webhook and websocket entry points both handle requests
// concurrently.
type WaveHandler struct {
	factory WaveFactory
	logger  *zap.Logger

	store store.Store
	audit audit.Writer

	invalidReply string
	busyReply    string

	mu            sync.Mutex
	conversations map[string]*conversation
}

// conversation pairs a wave with the lock that serializes its turns.
// Concurrent messages in the same chat queue behind the lock instead of
// racing on the wave's history and repair state.
type conversation struct {
	mu   sync.Mutex
	wave *wave.AlphaWave
}

var _ Handler = (*WaveHandler)(nil)

// WaveHandlerOption configures a WaveHandler.
type WaveHandlerOption func(*WaveHandler)

// WithStore persists each turn's transcripts.
func WithStore(s store.Store) WaveHandlerOption {
	return func(h *WaveHandler) { h.store = s }
}

// WithAudit writes an audit record per turn.
func WithAudit(w audit.Writer) WaveHandlerOption {
	return func(h *WaveHandler) { h.audit = w }
}

// WithLogger sets the handler's logger.
func WithLogger(logger *zap.Logger) WaveHandlerOption {
	return func(h *WaveHandler) { h.logger = logger }
}

// WithInvalidReply overrides the reply sent when repair is exhausted.
func WithInvalidReply(reply string) WaveHandlerOption {
	return func(h *WaveHandler) { h.invalidReply = reply }
}

// NewWaveHandler creates a handler that builds waves through factory.
func NewWaveHandler(factory WaveFactory, opts ...WaveHandlerOption) *WaveHandler {
	h := &WaveHandler{
		factory:       factory,
		logger:        zap.NewNop(),
		audit:         audit.NewNopWriter(),
		invalidReply:  DefaultInvalidReply,
		busyReply:     DefaultBusyReply,
		conversations: make(map[string]*conversation),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(zap.String("component", "wave_handler"))
	return h
}

// OnMessage runs the turn through the conversation's wave and returns the
// reply text. Turns of one conversation run one at a time; a second message
// in the same chat waits for the first to finish.
func (h *WaveHandler) OnMessage(ctx context.Context, turn *Turn) (string, error) {
	conv, err := h.conversation(turn.ConversationID)
	if err != nil {
		return "", err
	}

	// The wave mutates its memory and repair counters during a turn.
	conv.mu.Lock()
	start := time.Now()
	resp, err := conv.wave.CompletePrompt(ctx, turn.Text)
	if err != nil {
		conv.mu.Unlock()
		return "", err
	}
	attempts := conv.wave.LastRepairAttempts()
	conv.mu.Unlock()
	latency := time.Since(start)

	reply, valid := h.replyFor(resp)
	h.persist(ctx, turn, resp, reply, valid, attempts)
	h.record(ctx, turn, resp, valid, attempts, latency)

	h.logger.Debug("turn completed",
		zap.String("turn_id", turn.ID),
		zap.String("conversation_id", turn.ConversationID),
		zap.String("status", string(resp.Status)),
		zap.Duration("latency", latency),
	)
	return reply, nil
}

func (h *WaveHandler) conversation(conversationID string) (*conversation, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conv, ok := h.conversations[conversationID]; ok {
		return conv, nil
	}
	w, err := h.factory(conversationID)
	if err != nil {
		return nil, err
	}
	conv := &conversation{wave: w}
	h.conversations[conversationID] = conv
	return conv, nil
}

func (h *WaveHandler) replyFor(resp *types.PromptResponse) (reply string, valid bool) {
	switch resp.Status {
	case types.StatusSuccess:
		return resp.Text(), true
	case types.StatusInvalidResponse:
		return h.invalidReply, false
	case types.StatusRateLimited:
		return h.busyReply, false
	default:
		return h.busyReply, false
	}
}

func (h *WaveHandler) persist(ctx context.Context, turn *Turn, resp *types.PromptResponse, reply string, valid bool, attempts int) {
	if h.store == nil {
		return
	}

	feedback := ""
	if !valid {
		feedback = resp.Raw
	}
	err := h.store.SaveTurn(ctx,
		&store.Transcript{
			ConversationID: turn.ConversationID,
			TurnID:         turn.ID,
			Role:           string(types.RoleUser),
			Content:        turn.Text,
			Valid:          true,
		},
		&store.Transcript{
			ConversationID: turn.ConversationID,
			TurnID:         turn.ID,
			Role:           string(types.RoleAssistant),
			Content:        reply,
			Valid:          valid,
			Feedback:       feedback,
			Attempts:       attempts,
		},
	)
	if err != nil {
		h.logger.Warn("transcript save failed",
			zap.String("turn_id", turn.ID),
			zap.Error(err),
		)
	}
}

func (h *WaveHandler) record(ctx context.Context, turn *Turn, resp *types.PromptResponse, valid bool, attempts int, latency time.Duration) {
	rec := audit.Record{
		TurnID:         turn.ID,
		ConversationID: turn.ConversationID,
		Model:          resp.Model,
		Valid:          valid,
		Attempts:       attempts,
		Latency:        latency,
	}
	if !valid {
		rec.Feedback = resp.Raw
	}
	h.audit.Write(ctx, rec)
}
