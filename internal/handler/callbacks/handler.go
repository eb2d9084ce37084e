// Package callbacks drives the private admin panel through inline buttons.
package callbacks

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/kabozek1/tgbot-final02/internal/repository"
	"github.com/kabozek1/tgbot-final02/internal/service"
	"github.com/kabozek1/tgbot-final02/internal/settings"
	"github.com/kabozek1/tgbot-final02/internal/transport"
)

// SettingsView is the read side of the settings store.
type SettingsView interface {
	Antiflood() settings.Antiflood
	Antimat() settings.Antimat
	Captcha() settings.Captcha
	Reputation() settings.Reputation
	Poll() settings.Poll
}

type AdminChecker interface {
	IsBotAdmin(ctx context.Context, userID int64) bool
}

type CallbackHandler struct {
	logger        *slog.Logger
	svc           service.Service
	settings      SettingsView
	messenger     transport.Messenger
	userStateRepo repository.UserStateRepository
	admins        AdminChecker
	tracer        trace.Tracer
}

func NewCallbackHandler(
	logger *slog.Logger,
	svc service.Service,
	settings SettingsView,
	messenger transport.Messenger,
	userStateRepo repository.UserStateRepository,
	admins AdminChecker,
	tracer trace.Tracer,
) *CallbackHandler {
	return &CallbackHandler{
		logger:        logger,
		svc:           svc,
		settings:      settings,
		messenger:     messenger,
		userStateRepo: userStateRepo,
		admins:        admins,
		tracer:        tracer,
	}
}

// Screen is the panel message being drawn. A zero MessageID sends a new one.
type Screen struct {
	ChatID    int64
	MessageID int
	UserID    int64
}

func (h *CallbackHandler) show(ctx context.Context, s Screen, text string, buttons [][]transport.Button) {
	if s.MessageID != 0 {
		err := h.messenger.EditText(ctx, s.ChatID, s.MessageID, text, buttons)
		if err == nil {
			return
		}
		h.logger.Warn("Failed to edit panel, sending a new one", "chat_id", s.ChatID, "error", err)
	}
	if _, err := h.messenger.Send(ctx, transport.OutgoingMessage{ChatID: s.ChatID, Text: text, Buttons: buttons}); err != nil {
		h.logger.Error("Failed to send panel", "chat_id", s.ChatID, "error", err)
	}
}

func (h *CallbackHandler) sendText(ctx context.Context, chatID int64, text string) {
	if _, err := h.messenger.Send(ctx, transport.OutgoingMessage{ChatID: chatID, Text: text}); err != nil {
		h.logger.Error("Failed to send text message", "chat_id", chatID, "error", err)
	}
}

func button(text, data string) []transport.Button {
	return []transport.Button{{Text: text, Data: data}}
}
