package handler

import (
	"context"
	"errors"
	"time"

	"github.com/kabozek1/tgbot-final02/internal/event"
	"github.com/kabozek1/tgbot-final02/internal/messages"
	"github.com/kabozek1/tgbot-final02/internal/metrics"
	"github.com/kabozek1/tgbot-final02/internal/moderation"
	"github.com/kabozek1/tgbot-final02/internal/transport"
)

// replyTransient posts text in the thread of msg and removes it after ttl.
func (h *Handler) replyTransient(ctx context.Context, msg event.Message, text string, ttl time.Duration) {
	_, err := h.deps.Notifier.Transient(ctx, transport.OutgoingMessage{
		ChatID:   msg.ChatID,
		ThreadID: msg.ThreadID,
		Text:     text,
	}, ttl)
	if err != nil {
		h.logger.Error("Failed to send temporary message", "chat_id", msg.ChatID, "error", err)
	}
}

// reply answers msg and keeps the answer.
func (h *Handler) reply(ctx context.Context, msg event.Message, text string) {
	_, err := h.deps.Messenger.Send(ctx, transport.OutgoingMessage{
		ChatID:   msg.ChatID,
		ThreadID: msg.ThreadID,
		Text:     text,
		ReplyTo:  msg.MessageID,
	})
	if err != nil {
		h.logger.Error("Failed to send reply", "chat_id", msg.ChatID, "error", err)
	}
}

func (h *Handler) sendText(ctx context.Context, chatID int64, text string) {
	if _, err := h.deps.Messenger.Send(ctx, transport.OutgoingMessage{ChatID: chatID, Text: text}); err != nil {
		h.logger.Error("Failed to send text message", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) deleteMessage(ctx context.Context, chatID int64, messageID int, reason string) error {
	if err := h.deps.Messenger.Delete(ctx, chatID, messageID); err != nil {
		if transport.IsBenign(err) {
			h.logger.Debug("Message already gone or not deletable", "chat_id", chatID, "message_id", messageID, "error", err)
		} else {
			h.logger.Error("Failed to delete message", "chat_id", chatID, "message_id", messageID, "error", err)
		}
		return err
	}
	h.logger.Info("Deleted message", "chat_id", chatID, "message_id", messageID, "reason", reason)
	metrics.IncDeletedMessages(reason)
	return nil
}

// errorText turns an action error into the notice shown in the chat.
func errorText(err error) string {
	switch {
	case errors.Is(err, moderation.ErrNotAdmin):
		return messages.MsgNotAdmin
	case errors.Is(err, moderation.ErrTargetProtected):
		return messages.MsgTargetProtected
	case errors.Is(err, moderation.ErrTargetNotFound):
		return messages.MsgUserNotFound
	case errors.Is(err, moderation.ErrNoTarget):
		return messages.MsgNoTarget
	case errors.Is(err, moderation.ErrInvalidDuration):
		return messages.MsgInvalidDuration
	case errors.Is(err, moderation.ErrNothingToDelete):
		return messages.MsgNothingToDelete
	case errors.Is(err, transport.ErrForbidden):
		return messages.MsgNoRights
	default:
		return messages.MsgActionFailed
	}
}
