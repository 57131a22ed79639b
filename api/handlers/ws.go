package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rmolinamir/alphawave/bot"
)

// ChatSocketHandler serves GET /v1/chat/ws: a websocket chat channel that
// runs each incoming turn through the same Handler as the bot webhook.
type ChatSocketHandler struct {
	handler bot.Handler
	logger  *zap.Logger

	// turnTimeout bounds one turn; websocket reads are bounded by the
	// request context instead.
	turnTimeout time.Duration
}

// ChatSocketMessage is one client turn on the wire.
type ChatSocketMessage struct {
	// ConversationID groups turns; empty gets a fresh conversation assigned
	// on the first message.
	ConversationID string `json:"conversation_id,omitempty"`
	Text           string `json:"text"`
}

// ChatSocketReply is one server reply on the wire.
type ChatSocketReply struct {
	ConversationID string `json:"conversation_id"`
	Reply          string `json:"reply,omitempty"`
	Error          string `json:"error,omitempty"`
}

// NewChatSocketHandler creates the websocket chat handler.
func NewChatSocketHandler(handler bot.Handler, logger *zap.Logger) *ChatSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatSocketHandler{
		handler:     handler,
		logger:      logger.With(zap.String("component", "chat_ws")),
		turnTimeout: 2 * time.Minute,
	}
}

// ServeHTTP upgrades the connection and relays turns until the client
// disconnects.
func (h *ChatSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	// Writes are mutex guarded: websocket connections reject concurrent
	// writers.
	var writeMu sync.Mutex
	write := func(ctx context.Context, reply ChatSocketReply) error {
		data, err := json.Marshal(reply)
		if err != nil {
			return err
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.Write(ctx, websocket.MessageText, data)
	}

	ctx := r.Context()
	conversationID := ""

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			h.logger.Debug("websocket read ended", zap.Error(err))
			return
		}

		var msg ChatSocketMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if writeErr := write(ctx, ChatSocketReply{Error: "invalid message"}); writeErr != nil {
				return
			}
			continue
		}
		if msg.Text == "" {
			continue
		}

		if msg.ConversationID != "" {
			conversationID = msg.ConversationID
		} else if conversationID == "" {
			conversationID = uuid.NewString()
		}

		turnCtx, cancel := context.WithTimeout(ctx, h.turnTimeout)
		reply, err := h.handler.OnMessage(turnCtx, bot.NewTurn(conversationID, msg.Text))
		cancel()
		if err != nil {
			h.logger.Error("turn failed",
				zap.String("conversation_id", conversationID),
				zap.Error(err),
			)
			if writeErr := write(ctx, ChatSocketReply{
				ConversationID: conversationID,
				Error:          "turn failed",
			}); writeErr != nil {
				return
			}
			continue
		}

		if err := write(ctx, ChatSocketReply{
			ConversationID: conversationID,
			Reply:          reply,
		}); err != nil {
			h.logger.Debug("websocket write ended", zap.Error(err))
			return
		}
	}
}
