package bot

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Turn is one incoming user message, normalized away from the chat
// platform's update shape.
type Turn struct {
	// ID uniquely identifies this turn.
	ID string

	// ConversationID groups turns of one chat.
	ConversationID string

	// UserID and Username identify the sender when the platform provides
	// them.
	UserID   int64
	Username string

	// Text is the message text.
	Text string

	// ReceivedAt is when the adapter accepted the update.
	ReceivedAt time.Time
}

// NewTurn creates a turn with a fresh ID and timestamp.
func NewTurn(conversationID, text string) *Turn {
	return &Turn{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Text:           text,
		ReceivedAt:     time.Now().UTC(),
	}
}

// Handler is the application behind the adapter: it receives a turn and
// returns the reply text. An empty reply with a nil error sends nothing.
type Handler interface {
	OnMessage(ctx context.Context, turn *Turn) (string, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, turn *Turn) (string, error)

func (f HandlerFunc) OnMessage(ctx context.Context, turn *Turn) (string, error) {
	return f(ctx, turn)
}
