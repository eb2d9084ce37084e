package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kabozek1/tgbot-final02/internal/event"
	"github.com/kabozek1/tgbot-final02/internal/messages"
	"github.com/kabozek1/tgbot-final02/internal/pipeline"
	"github.com/kabozek1/tgbot-final02/internal/repository"
	"github.com/kabozek1/tgbot-final02/internal/reputation"
	"github.com/kabozek1/tgbot-final02/internal/transport"
)

func (h *Handler) handleGroupMessage(ctx context.Context, msg event.Message) {
	if len(msg.NewMembers) > 0 {
		h.handleNewMembers(ctx, msg)
		return
	}

	h.logger.Info("Received group message",
		"chat_id", msg.ChatID,
		"sender", msg.From.ID,
		"message_id", msg.MessageID,
		"content_type", msg.ContentType,
	)

	payload := pipeline.Payload{
		ChatID:      msg.ChatID,
		SenderID:    msg.From.ID,
		Username:    msg.From.Username,
		FirstName:   msg.From.FirstName,
		MessageID:   msg.MessageID,
		ThreadID:    msg.ThreadID,
		Text:        msg.Text,
		ContentType: msg.ContentType,
		Date:        msg.Date,
	}
	if msg.ReplyTo != nil {
		payload.ReplyToMessageID = msg.ReplyTo.MessageID
	}
	res, err := h.deps.Pipeline.Process(ctx, payload)
	if err != nil {
		h.logger.Error("Failed to run moderation stage", "chat_id", msg.ChatID, "error", err)
	}
	if res != nil && !res.IsAllowed {
		h.applyVerdict(ctx, msg, res)
		return
	}

	if cmd, rest, ok := parseCommand(msg.Text, h.deps.BotUsername); ok {
		h.handleGroupCommand(ctx, msg, cmd, rest)
		return
	}
	if strings.EqualFold(strings.TrimSpace(msg.Text), "ping") {
		h.reply(ctx, msg, messages.MsgPong)
		return
	}
	if delta, ok := reputation.Delta(msg.Text); ok && msg.ReplyTo != nil && msg.ReplyTo.From.ID != 0 {
		h.handleReputationReaction(ctx, msg, delta)
		return
	}
	h.deps.Moderator.RememberMessage(msg.ChatID, msg.MessageID)
}

// applyVerdict carries out what the blocking stage asked for.
func (h *Handler) applyVerdict(ctx context.Context, msg event.Message, res *pipeline.Result) {
	h.logger.Info("Message blocked",
		"chat_id", msg.ChatID,
		"user_id", msg.From.ID,
		"reason", res.Reason,
		"filter", res.FilterName,
	)
	if res.Reply != "" {
		h.reply(ctx, msg, res.Reply)
	}
	if !res.ShouldDelete {
		return
	}
	if err := h.deleteMessage(ctx, msg.ChatID, msg.MessageID, res.Reason); err != nil {
		notice := res.FallbackNotice
		if notice == "" {
			notice = res.Notice
		}
		if notice != "" {
			h.replyTransient(ctx, msg, notice, res.NoticeTTL)
		}
		return
	}
	if field := statField(res.Reason); field != "" {
		if err := h.deps.ChatStats.IncrementChatStat(ctx, msg.ChatID, field); err != nil {
			h.logger.Error("Failed to increment chat stat", "chat_id", msg.ChatID, "field", field, "error", err)
		}
	}
	if res.Notice != "" {
		h.replyTransient(ctx, msg, res.Notice, res.NoticeTTL)
	}
}

func statField(reason string) string {
	switch reason {
	case messages.MsgReasonFlood:
		return repository.StatFloodDeletions
	case messages.MsgReasonBlacklist:
		return repository.StatBlacklistDeletions
	}
	return ""
}

func (h *Handler) handleReputationReaction(ctx context.Context, msg event.Message, delta int) {
	if !h.deps.Reputation.Enabled() {
		h.deps.Moderator.RememberMessage(msg.ChatID, msg.MessageID)
		return
	}
	ttl := h.config.Delays.Rep
	actor, target := msg.From, msg.ReplyTo.From
	score, err := h.deps.Reputation.Apply(ctx, msg.ChatID, actor, target, delta)
	if err != nil {
		switch {
		case errors.Is(err, reputation.ErrSelf):
			h.replyTransient(ctx, msg, messages.MsgRepSelf, ttl)
		case errors.Is(err, reputation.ErrBot):
			h.replyTransient(ctx, msg, messages.MsgRepBot, ttl)
		case errors.Is(err, reputation.ErrCooldown):
			h.replyTransient(ctx, msg, messages.MsgRepCooldown, ttl)
		case errors.Is(err, reputation.ErrDisabled):
		default:
			h.logger.Error("Failed to change reputation", "chat_id", msg.ChatID, "actor_id", actor.ID, "target_id", target.ID, "error", err)
			h.replyTransient(ctx, msg, messages.MsgGenericFailure, ttl)
		}
		_ = h.deleteMessage(ctx, msg.ChatID, msg.MessageID, "reputation")
		return
	}
	format := messages.MsgRepUp
	if delta < 0 {
		format = messages.MsgRepDown
	}
	h.replyTransient(ctx, msg, fmt.Sprintf(format, actor.DisplayName(), target.DisplayName(), score), ttl)
	_ = h.deleteMessage(ctx, msg.ChatID, msg.MessageID, "reputation")
}

// handleNewMembers challenges members announced by a join service message.
func (h *Handler) handleNewMembers(ctx context.Context, msg event.Message) {
	for _, member := range msg.NewMembers {
		if err := h.deps.Verifier.HandleJoin(ctx, msg.ChatID, msg.ThreadID, member); err != nil {
			h.logger.Error("Failed to start verification", "chat_id", msg.ChatID, "user_id", member.ID, "error", err)
			if errors.Is(err, transport.ErrForbidden) {
				h.replyTransient(ctx, msg, messages.MsgNoRights, h.config.Delays.Captcha)
			}
		}
	}
}
