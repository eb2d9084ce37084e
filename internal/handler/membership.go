package handler

import (
	"context"
	"time"

	"github.com/kabozek1/tgbot-final02/internal/event"
	"github.com/kabozek1/tgbot-final02/internal/metrics"
	"github.com/kabozek1/tgbot-final02/internal/repository"
	"github.com/kabozek1/tgbot-final02/internal/stats"
)

// handleMembership logs a status change and starts or drops verification.
func (h *Handler) handleMembership(ctx context.Context, ev event.MembershipChange) {
	start := time.Now()
	var err error
	defer func() {
		metrics.ObserveUpdateProcessing("chat_member", time.Since(start).Seconds(), err)
	}()

	if err = h.deps.Stats.RecordMembership(ctx, ev); err != nil {
		h.logger.Error("Failed to record membership change", "chat_id", ev.ChatID, "user_id", ev.Member.ID, "error", err)
	}

	switch {
	case stats.ClassifyTransition(ev.OldStatus, ev.NewStatus) == repository.MemberJoin:
		if joinErr := h.deps.Verifier.HandleJoin(ctx, ev.ChatID, 0, ev.Member); joinErr != nil {
			h.logger.Error("Failed to start verification", "chat_id", ev.ChatID, "user_id", ev.Member.ID, "error", joinErr)
		}
	case ev.NewStatus == event.StatusLeft || ev.NewStatus == event.StatusKicked:
		h.deps.Verifier.Forget(ev.ChatID, ev.Member.ID)
	}
}

func (h *Handler) handlePollVote(ctx context.Context, ev event.PollVote) {
	start := time.Now()
	err := h.deps.Stats.RecordPollVote(ctx, ev)
	metrics.ObserveUpdateProcessing("poll_answer", time.Since(start).Seconds(), err)
	if err != nil {
		h.logger.Error("Failed to record poll answer", "poll_id", ev.PollID, "user_id", ev.From.ID, "error", err)
	}
}
