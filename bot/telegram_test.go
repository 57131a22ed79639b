package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTelegram records sent messages and serves a scripted update channel.
type fakeTelegram struct {
	mu      sync.Mutex
	sent    []tgbotapi.MessageConfig
	sendErr error

	requests []tgbotapi.Chattable

	updates chan tgbotapi.Update
}

func newFakeTelegram() *fakeTelegram {
	return &fakeTelegram{updates: make(chan tgbotapi.Update, 8)}
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if mc, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, mc)
	}
	return tgbotapi.Message{}, f.sendErr
}

func (f *fakeTelegram) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeTelegram) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeTelegram) StopReceivingUpdates() {
	close(f.updates)
}

func (f *fakeTelegram) sentMessages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]tgbotapi.MessageConfig, len(f.sent))
	copy(out, f.sent)
	return out
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			MessageID: 1,
			Text:      text,
			Chat:      &tgbotapi.Chat{ID: chatID},
			From:      &tgbotapi.User{ID: 7, UserName: "alice"},
		},
	}
}

func postUpdate(t *testing.T, a *TelegramAdapter, update tgbotapi.Update) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(update)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, req)
	return rec
}

func TestTelegramAdapterWebhook(t *testing.T) {
	api := newFakeTelegram()
	var gotTurn *Turn
	adapter := NewTelegramAdapter(api, HandlerFunc(func(_ context.Context, turn *Turn) (string, error) {
		gotTurn = turn
		return "pong", nil
	}))

	rec := postUpdate(t, adapter, textUpdate(42, "ping"))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotTurn)
	assert.Equal(t, "42", gotTurn.ConversationID)
	assert.Equal(t, "ping", gotTurn.Text)
	assert.Equal(t, int64(7), gotTurn.UserID)
	assert.Equal(t, "alice", gotTurn.Username)
	assert.NotEmpty(t, gotTurn.ID)

	sent := api.sentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(42), sent[0].ChatID)
	assert.Equal(t, "pong", sent[0].Text)
}

func TestTelegramAdapterWebhookRejectsNonPOST(t *testing.T) {
	adapter := NewTelegramAdapter(newFakeTelegram(), HandlerFunc(func(context.Context, *Turn) (string, error) {
		t.Fatal("handler should not run")
		return "", nil
	}))

	req := httptest.NewRequest(http.MethodGet, "/telegram/webhook", nil)
	rec := httptest.NewRecorder()
	adapter.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTelegramAdapterWebhookMalformedBody(t *testing.T) {
	adapter := NewTelegramAdapter(newFakeTelegram(), HandlerFunc(func(context.Context, *Turn) (string, error) {
		t.Fatal("handler should not run")
		return "", nil
	}))

	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	adapter.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTelegramAdapterIgnoresNonTextUpdates(t *testing.T) {
	api := newFakeTelegram()
	called := false
	adapter := NewTelegramAdapter(api, HandlerFunc(func(context.Context, *Turn) (string, error) {
		called = true
		return "reply", nil
	}))

	// No message at all.
	rec := postUpdate(t, adapter, tgbotapi.Update{UpdateID: 2})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Message without text (e.g. a photo).
	rec = postUpdate(t, adapter, tgbotapi.Update{
		UpdateID: 3,
		Message:  &tgbotapi.Message{MessageID: 3, Chat: &tgbotapi.Chat{ID: 42}},
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.False(t, called)
	assert.Empty(t, api.sentMessages())
}

func TestTelegramAdapterHandlerErrorStillAcks(t *testing.T) {
	api := newFakeTelegram()
	adapter := NewTelegramAdapter(api, HandlerFunc(func(context.Context, *Turn) (string, error) {
		return "", assert.AnError
	}))

	rec := postUpdate(t, adapter, textUpdate(42, "ping"))

	// Telegram redelivers on non-2xx, so failures are acked and logged.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, api.sentMessages())
}

func TestTelegramAdapterEmptyReplySendsNothing(t *testing.T) {
	api := newFakeTelegram()
	adapter := NewTelegramAdapter(api, HandlerFunc(func(context.Context, *Turn) (string, error) {
		return "", nil
	}))

	rec := postUpdate(t, adapter, textUpdate(42, "ping"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, api.sentMessages())
}

func TestTelegramAdapterPolling(t *testing.T) {
	api := newFakeTelegram()
	handled := make(chan string, 1)
	adapter := NewTelegramAdapter(api, HandlerFunc(func(_ context.Context, turn *Turn) (string, error) {
		handled <- turn.Text
		return "ack", nil
	}), WithHandleTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- adapter.RunPolling(ctx) }()

	api.updates <- textUpdate(42, "from polling")

	select {
	case text := <-handled:
		assert.Equal(t, "from polling", text)
	case <-time.After(2 * time.Second):
		t.Fatal("update was not handled")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("polling did not stop")
	}

	sent := api.sentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "ack", sent[0].Text)
}

func TestTelegramAdapterSetWebhook(t *testing.T) {
	api := newFakeTelegram()
	adapter := NewTelegramAdapter(api, HandlerFunc(func(context.Context, *Turn) (string, error) {
		return "", nil
	}))

	require.NoError(t, adapter.SetWebhook("https://bot.example.com/telegram/webhook"))
	require.Len(t, api.requests, 1)
	_, ok := api.requests[0].(tgbotapi.WebhookConfig)
	assert.True(t, ok)
}
