package handler

import (
	"context"
	"strings"
	"time"

	"github.com/kabozek1/tgbot-final02/internal/event"
	"github.com/kabozek1/tgbot-final02/internal/metrics"
	"github.com/kabozek1/tgbot-final02/internal/poll"
	"github.com/kabozek1/tgbot-final02/internal/verification"
)

// handleCallback routes a button press by its data prefix: challenges,
// poll votes, then the admin panel.
func (h *Handler) handleCallback(ctx context.Context, press event.CallbackPress) {
	start := time.Now()
	var err error
	defer func() {
		metrics.ObserveUpdateProcessing("callback_query", time.Since(start).Seconds(), err)
	}()

	switch {
	case strings.HasPrefix(press.Data, verification.CallbackPrefix):
		if err = h.deps.Verifier.Confirm(ctx, press); err != nil {
			h.logger.Warn("Failed to confirm verification", "chat_id", press.ChatID, "user_id", press.From.ID, "error", err)
		}
	case strings.HasPrefix(press.Data, poll.CallbackPrefix):
		var text string
		text, err = h.deps.Polls.Vote(ctx, press)
		if err != nil {
			h.logger.Error("Failed to register poll vote", "chat_id", press.ChatID, "user_id", press.From.ID, "error", err)
		}
		if answerErr := h.deps.Messenger.AnswerCallback(ctx, press.QueryID, text, false); answerErr != nil {
			h.logger.Warn("Failed to answer callback", "error", answerErr)
		}
	default:
		h.callbackHandler.Handle(ctx, press)
	}
}
