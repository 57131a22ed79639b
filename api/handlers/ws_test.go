package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmolinamir/alphawave/bot"
)

func dialChatSocket(t *testing.T, handler bot.Handler) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(NewChatSocketHandler(handler, nil))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func sendSocketMessage(t *testing.T, conn *websocket.Conn, msg ChatSocketMessage) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
}

func readSocketReply(t *testing.T, conn *websocket.Conn) ChatSocketReply {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var reply ChatSocketReply
	require.NoError(t, json.Unmarshal(data, &reply))
	return reply
}

func TestChatSocket_RoundTrip(t *testing.T) {
	conn := dialChatSocket(t, bot.HandlerFunc(func(_ context.Context, turn *bot.Turn) (string, error) {
		return "echo: " + turn.Text, nil
	}))

	sendSocketMessage(t, conn, ChatSocketMessage{Text: "hello"})
	reply := readSocketReply(t, conn)

	assert.Equal(t, "echo: hello", reply.Reply)
	assert.Empty(t, reply.Error)
	assert.NotEmpty(t, reply.ConversationID)
}

func TestChatSocket_AssignedConversationIsSticky(t *testing.T) {
	var seen []string
	conn := dialChatSocket(t, bot.HandlerFunc(func(_ context.Context, turn *bot.Turn) (string, error) {
		seen = append(seen, turn.ConversationID)
		return "ok", nil
	}))

	sendSocketMessage(t, conn, ChatSocketMessage{Text: "first"})
	first := readSocketReply(t, conn)
	sendSocketMessage(t, conn, ChatSocketMessage{Text: "second"})
	second := readSocketReply(t, conn)

	assert.Equal(t, first.ConversationID, second.ConversationID)
	require.Len(t, seen, 2)
	assert.Equal(t, seen[0], seen[1])
}

func TestChatSocket_ExplicitConversationID(t *testing.T) {
	conn := dialChatSocket(t, bot.HandlerFunc(func(_ context.Context, turn *bot.Turn) (string, error) {
		return turn.ConversationID, nil
	}))

	sendSocketMessage(t, conn, ChatSocketMessage{ConversationID: "chat-42", Text: "hi"})
	reply := readSocketReply(t, conn)

	assert.Equal(t, "chat-42", reply.ConversationID)
	assert.Equal(t, "chat-42", reply.Reply)
}

func TestChatSocket_HandlerErrorReported(t *testing.T) {
	conn := dialChatSocket(t, bot.HandlerFunc(func(context.Context, *bot.Turn) (string, error) {
		return "", assert.AnError
	}))

	sendSocketMessage(t, conn, ChatSocketMessage{Text: "boom"})
	reply := readSocketReply(t, conn)

	assert.Empty(t, reply.Reply)
	assert.Equal(t, "turn failed", reply.Error)
}

func TestChatSocket_InvalidPayloadReported(t *testing.T) {
	conn := dialChatSocket(t, bot.HandlerFunc(func(context.Context, *bot.Turn) (string, error) {
		t.Fatal("handler should not run")
		return "", nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("{not json")))

	reply := readSocketReply(t, conn)
	assert.Equal(t, "invalid message", reply.Error)
}
