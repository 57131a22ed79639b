package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// telegramAPI is the slice of *tgbotapi.BotAPI the adapter uses; tests
// substitute a fake.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

var _ telegramAPI = (*tgbotapi.BotAPI)(nil)

// UpdateRecorder counts processed updates by transport and outcome;
// internal/metrics.Collector implements it.
type UpdateRecorder interface {
	RecordBotUpdate(transport, outcome string)
}

// TelegramAdapter forwards Telegram updates to a Handler and sends the
// replies. It serves webhook updates as an http.Handler and can long-poll as
// an alternative transport.
type TelegramAdapter struct {
	api     telegramAPI
	handler Handler
	logger  *zap.Logger

	// handleTimeout bounds one handler invocation during polling, where no
	// request context exists.
	handleTimeout time.Duration

	recorder UpdateRecorder
}

var _ http.Handler = (*TelegramAdapter)(nil)

// AdapterOption configures a TelegramAdapter.
type AdapterOption func(*TelegramAdapter)

// WithAdapterLogger sets the adapter's logger.
func WithAdapterLogger(logger *zap.Logger) AdapterOption {
	return func(a *TelegramAdapter) { a.logger = logger }
}

// WithHandleTimeout bounds a single handler call during polling. Defaults to
// 2 minutes.
func WithHandleTimeout(d time.Duration) AdapterOption {
	return func(a *TelegramAdapter) { a.handleTimeout = d }
}

// WithUpdateRecorder counts updates as they are processed.
func WithUpdateRecorder(r UpdateRecorder) AdapterOption {
	return func(a *TelegramAdapter) { a.recorder = r }
}

// NewTelegramAdapter creates an adapter around a connected bot API.
func NewTelegramAdapter(api telegramAPI, handler Handler, opts ...AdapterOption) *TelegramAdapter {
	a := &TelegramAdapter{
		api:           api,
		handler:       handler,
		logger:        zap.NewNop(),
		handleTimeout: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(zap.String("component", "telegram"))
	return a
}

// ServeHTTP handles one webhook update: parse, delegate, reply, 200.
//
// Errors after parsing still return 200 so Telegram does not redeliver the
// same update; failures are logged instead.
func (a *TelegramAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		a.logger.Warn("malformed webhook update", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	a.handleUpdate(r.Context(), update, "webhook")
	w.WriteHeader(http.StatusOK)
}

// SetWebhook registers url as the bot's webhook endpoint.
func (a *TelegramAdapter) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return err
	}
	_, err = a.api.Request(wh)
	return err
}

// RunPolling long-polls for updates until ctx is cancelled. It is the
// webhook's local-development stand-in and never returns a non-nil error
// other than ctx's.
func (a *TelegramAdapter) RunPolling(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := a.api.GetUpdatesChan(cfg)

	a.logger.Info("polling for updates")
	for {
		select {
		case <-ctx.Done():
			a.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			handleCtx, cancel := context.WithTimeout(context.Background(), a.handleTimeout)
			a.handleUpdate(handleCtx, update, "polling")
			cancel()
		}
	}
}

func (a *TelegramAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update, transport string) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		a.recordUpdate(transport, "ignored")
		return
	}

	turn := &Turn{
		ID:             uuid.NewString(),
		ConversationID: strconv.FormatInt(msg.Chat.ID, 10),
		Text:           msg.Text,
		ReceivedAt:     time.Now().UTC(),
	}
	if msg.From != nil {
		turn.UserID = msg.From.ID
		turn.Username = msg.From.UserName
	}

	reply, err := a.handler.OnMessage(ctx, turn)
	if err != nil {
		a.logger.Error("handler failed",
			zap.String("turn_id", turn.ID),
			zap.String("conversation_id", turn.ConversationID),
			zap.Error(err),
		)
		a.recordUpdate(transport, "error")
		return
	}
	if reply == "" {
		a.recordUpdate(transport, "handled")
		return
	}

	if _, err := a.api.Send(tgbotapi.NewMessage(msg.Chat.ID, reply)); err != nil {
		a.logger.Error("send reply failed",
			zap.String("turn_id", turn.ID),
			zap.Error(err),
		)
		a.recordUpdate(transport, "error")
		return
	}
	a.recordUpdate(transport, "handled")
}

func (a *TelegramAdapter) recordUpdate(transport, outcome string) {
	if a.recorder != nil {
		a.recorder.RecordBotUpdate(transport, outcome)
	}
}
