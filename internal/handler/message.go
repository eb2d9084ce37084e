package handler

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kabozek1/tgbot-final02/internal/event"
	"github.com/kabozek1/tgbot-final02/internal/metrics"
)

func (h *Handler) handleMessage(ctx context.Context, msg event.Message) {
	start := time.Now()
	defer func() {
		metrics.ObserveUpdateProcessing("message", time.Since(start).Seconds(), nil)
	}()

	ctx, span := h.tracer.Start(ctx, "handleMessage")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("chat_id", msg.ChatID),
		attribute.Int64("user_id", msg.From.ID),
		attribute.Int("thread_id", msg.ThreadID),
	)

	h.logger.Debug("Dispatching message",
		"chat_id", msg.ChatID,
		"sender_id", msg.From.ID,
		"content_type", msg.ContentType,
	)

	if msg.IsGroup() {
		h.handleGroupMessage(ctx, msg)
	} else {
		h.handlePrivateMessage(ctx, msg)
	}
}

// parseCommand splits "/cmd@bot rest" into "cmd" and "rest". Commands
// addressed to another bot are not ours.
func parseCommand(text, botUsername string) (string, string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, rest := text, ""
	if i := strings.IndexAny(text, " \n\t"); i >= 0 {
		head, rest = text[:i], text[i+1:]
	}
	cmd := strings.TrimPrefix(head, "/")
	if name, target, ok := strings.Cut(cmd, "@"); ok {
		if botUsername != "" && !strings.EqualFold(target, botUsername) {
			return "", "", false
		}
		cmd = name
	}
	if cmd == "" {
		return "", "", false
	}
	return strings.ToLower(cmd), strings.TrimSpace(rest), true
}
