package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kabozek1/tgbot-final02/internal/event"
	"github.com/kabozek1/tgbot-final02/internal/messages"
	"github.com/kabozek1/tgbot-final02/internal/metrics"
	"github.com/kabozek1/tgbot-final02/internal/moderation"
	"github.com/kabozek1/tgbot-final02/internal/poll"
	"github.com/kabozek1/tgbot-final02/internal/utils"
)

const maxTopicName = 100

var minuteForms = utils.Forms{One: messages.MsgMinutesOne, Few: messages.MsgMinutesFew, Many: messages.MsgMinutesMany}

// handleGroupCommand runs a command sent in a group. The command message
// itself is always removed.
func (h *Handler) handleGroupCommand(ctx context.Context, msg event.Message, cmd, rest string) {
	args := strings.Fields(rest)
	switch cmd {
	case "start":
		h.replyTransient(ctx, msg, messages.MsgStart, h.config.Delays.Warn)
	case "help":
		h.reply(ctx, msg, messages.MsgHelp)
	case "ping":
		h.reply(ctx, msg, messages.MsgPong)
	case "stats":
		h.handleReport(ctx, msg, "stats")
	case "invites":
		h.handleReport(ctx, msg, "invites")
	case "rep":
		h.handleRep(ctx, msg, args)
	case "top":
		h.handleTop(ctx, msg)
	case "warn", "mute", "unmute", "kick", "ban":
		h.handleModeration(ctx, msg, cmd, args, rest)
	case "delete":
		h.handleDelete(ctx, msg, args)
	case "poll":
		h.handlePoll(ctx, msg, rest)
	case "set_name_topic":
		h.handleTopicName(ctx, msg, rest)
	default:
		h.deps.Moderator.RememberMessage(msg.ChatID, msg.MessageID)
		return
	}
	metrics.IncBotAction("command_" + cmd)
	_ = h.deleteMessage(ctx, msg.ChatID, msg.MessageID, "command")
}

func (h *Handler) handleReport(ctx context.Context, msg event.Message, kind string) {
	if !h.deps.Admins.IsAdmin(ctx, msg.ChatID, msg.From.ID) {
		h.replyTransient(ctx, msg, messages.MsgNotAdmin, h.config.Delays.Warn)
		return
	}
	var (
		text string
		err  error
	)
	if kind == "invites" {
		text, err = h.deps.Stats.InviteReport(ctx, msg.ChatID)
	} else {
		text, err = h.deps.Stats.ChatReport(ctx, msg.ChatID)
	}
	if err != nil {
		h.logger.Error("Failed to build report", "chat_id", msg.ChatID, "report", kind, "error", err)
		h.replyTransient(ctx, msg, messages.MsgGenericFailure, h.config.Delays.Warn)
		return
	}
	h.reply(ctx, msg, text)
}

// handleRep shows the score of the mentioned or replied-to member, or the sender's own.
func (h *Handler) handleRep(ctx context.Context, msg event.Message, args []string) {
	ttl := h.config.Delays.Rep
	target, err := h.deps.Moderator.ResolveTarget(ctx, msg, args)
	if errors.Is(err, moderation.ErrNoTarget) {
		target, err = msg.From, nil
	}
	if err != nil {
		h.replyTransient(ctx, msg, errorText(err), ttl)
		return
	}
	score, err := h.deps.Reputation.Score(ctx, msg.ChatID, target.ID)
	if err != nil {
		h.logger.Error("Failed to get reputation", "chat_id", msg.ChatID, "user_id", target.ID, "error", err)
		h.replyTransient(ctx, msg, messages.MsgGenericFailure, ttl)
		return
	}
	h.replyTransient(ctx, msg, fmt.Sprintf(messages.MsgRepScore, target.DisplayName(), score), ttl)
}

func (h *Handler) handleTop(ctx context.Context, msg event.Message) {
	text, err := h.deps.Reputation.TopReport(ctx, msg.ChatID)
	if err != nil {
		h.logger.Error("Failed to build reputation top", "chat_id", msg.ChatID, "error", err)
		text = messages.MsgGenericFailure
	}
	h.replyTransient(ctx, msg, text, h.config.Delays.Rep)
}

func (h *Handler) handleModeration(ctx context.Context, msg event.Message, cmd string, args []string, rest string) {
	ttl := h.delayFor(cmd)
	target, err := h.deps.Moderator.ResolveTarget(ctx, msg, args)
	if err != nil {
		h.replyTransient(ctx, msg, errorText(err), ttl)
		return
	}
	req := moderation.Request{ChatID: msg.ChatID, Actor: msg.From, Target: target}
	name := target.DisplayName()

	var text string
	switch cmd {
	case "warn":
		var out moderation.WarnOutcome
		out, err = h.deps.Moderator.Warn(ctx, req, warnReason(rest))
		switch {
		case err == nil && out.Banned:
			text = fmt.Sprintf(messages.MsgWarnBanned, name, out.Max)
		case err == nil:
			text = fmt.Sprintf(messages.MsgWarned, name, out.Count, out.Max)
		}
	case "mute":
		var d time.Duration
		d, err = moderation.ParseMuteDuration(args, h.config.DefaultMuteDuration)
		if err == nil {
			_, err = h.deps.Moderator.Mute(ctx, req, d)
		}
		text = fmt.Sprintf(messages.MsgMuted, name, utils.Plural(int(d/time.Minute), minuteForms))
	case "unmute":
		err = h.deps.Moderator.Unmute(ctx, req)
		text = fmt.Sprintf(messages.MsgUnmuted, name)
	case "kick":
		err = h.deps.Moderator.Kick(ctx, req)
		text = fmt.Sprintf(messages.MsgKicked, name)
	case "ban":
		err = h.deps.Moderator.Ban(ctx, req)
		text = fmt.Sprintf(messages.MsgBanned, name)
	}
	if err != nil {
		h.logger.Warn("Moderation command failed", "command", cmd, "chat_id", msg.ChatID, "actor_id", msg.From.ID, "target_id", target.ID, "error", err)
		h.replyTransient(ctx, msg, errorText(err), ttl)
		return
	}
	h.logger.Info("Moderation command done", "command", cmd, "chat_id", msg.ChatID, "actor_id", msg.From.ID, "target_id", target.ID)
	h.replyTransient(ctx, msg, text, ttl)
}

// warnReason drops target mentions from the command arguments.
func warnReason(rest string) string {
	var words []string
	for _, w := range strings.Fields(rest) {
		if !strings.HasPrefix(w, "@") {
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}

func (h *Handler) delayFor(cmd string) time.Duration {
	switch cmd {
	case "mute", "unmute":
		return h.config.Delays.Mute
	case "kick":
		return h.config.Delays.Kick
	case "ban":
		return h.config.Delays.Ban
	default:
		return h.config.Delays.Warn
	}
}

func (h *Handler) handleDelete(ctx context.Context, msg event.Message, args []string) {
	ttl := h.config.Delays.Warn
	id, err := h.deps.Moderator.DeletionTarget(msg, args)
	if err == nil {
		err = h.deps.Moderator.DeleteMessage(ctx, msg.ChatID, msg.From, id)
	}
	if err != nil {
		h.replyTransient(ctx, msg, errorText(err), ttl)
		return
	}
	h.replyTransient(ctx, msg, messages.MsgMessageDeleted, ttl)
}

func (h *Handler) handlePoll(ctx context.Context, msg event.Message, rest string) {
	ttl := h.config.Delays.Warn
	if !h.deps.Admins.IsAdmin(ctx, msg.ChatID, msg.From.ID) {
		h.replyTransient(ctx, msg, messages.MsgNotAdmin, ttl)
		return
	}
	_, err := h.deps.Polls.Create(ctx, msg.ChatID, msg.ThreadID, msg.From.ID, rest)
	switch {
	case err == nil:
	case errors.Is(err, poll.ErrDisabled):
		h.replyTransient(ctx, msg, messages.MsgPollDisabled, ttl)
	case errors.Is(err, poll.ErrUsage):
		h.replyTransient(ctx, msg, messages.MsgPollUsage, ttl)
	case errors.Is(err, poll.ErrTooManyOptions):
		h.replyTransient(ctx, msg, fmt.Sprintf(messages.MsgPollTooManyOptions, h.deps.Settings.Poll().MaxOptions), ttl)
	default:
		h.logger.Error("Failed to create poll", "chat_id", msg.ChatID, "error", err)
		h.replyTransient(ctx, msg, errorText(err), ttl)
	}
}

func (h *Handler) handleTopicName(ctx context.Context, msg event.Message, name string) {
	ttl := h.config.Delays.Warn
	if msg.ThreadID == 0 {
		h.replyTransient(ctx, msg, messages.MsgTopicOnlyInTopic, ttl)
		return
	}
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxTopicName {
		h.replyTransient(ctx, msg, messages.MsgTopicNameUsage, ttl)
		return
	}
	if err := h.deps.Topics.SetName(ctx, msg.ChatID, msg.ThreadID, name); err != nil {
		h.logger.Error("Failed to save topic name", "chat_id", msg.ChatID, "topic_id", msg.ThreadID, "error", err)
		h.replyTransient(ctx, msg, messages.MsgGenericFailure, ttl)
		return
	}
	h.replyTransient(ctx, msg, fmt.Sprintf(messages.MsgTopicNameSet, name), ttl)
}
