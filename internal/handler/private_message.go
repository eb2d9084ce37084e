package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kabozek1/tgbot-final02/internal/event"
	"github.com/kabozek1/tgbot-final02/internal/handler/callbacks"
	"github.com/kabozek1/tgbot-final02/internal/messages"
	"github.com/kabozek1/tgbot-final02/internal/metrics"
	"github.com/kabozek1/tgbot-final02/internal/repository"
	"github.com/kabozek1/tgbot-final02/internal/service"
	"github.com/kabozek1/tgbot-final02/internal/utils"
)

func (h *Handler) handlePrivateMessage(ctx context.Context, msg event.Message) {
	h.logger.Info("Received private message",
		"sender", msg.From.ID,
		"content_type", msg.ContentType,
	)
	text := strings.TrimSpace(msg.Text)
	cmd, rest, isCommand := parseCommand(text, h.deps.BotUsername)

	if !isCommand {
		state, err := h.deps.UserStates.GetState(ctx, msg.From.ID)
		if err != nil {
			h.logger.Error("Failed to get user state", "user_id", msg.From.ID, "error", err)
		}
		if state != nil {
			h.handleUserInput(ctx, msg, text, state)
			return
		}
		h.sendText(ctx, msg.ChatID, messages.MsgUnknownCommand)
		return
	}

	switch cmd {
	case "start":
		h.sendText(ctx, msg.ChatID, messages.MsgStart)
	case "help":
		h.sendText(ctx, msg.ChatID, messages.MsgHelp)
	case "ping":
		h.sendText(ctx, msg.ChatID, messages.MsgPong)
	case "cancel":
		if err := h.deps.UserStates.ClearState(ctx, msg.From.ID); err != nil {
			h.logger.Error("Failed to delete user state", "user_id", msg.From.ID, "error", err)
		}
		h.sendText(ctx, msg.ChatID, messages.MsgCancelled)
	case "admin":
		h.handleAdminCommand(ctx, msg, strings.Fields(rest))
	case "schedule":
		h.handleSchedule(ctx, msg, rest)
	default:
		h.sendText(ctx, msg.ChatID, messages.MsgUnknownCommand)
	}
}

func (h *Handler) screen(msg event.Message) callbacks.Screen {
	return callbacks.Screen{ChatID: msg.ChatID, UserID: msg.From.ID}
}

// handleAdminCommand opens the panel, or manages stored admins for
// configured ones: "/admin add <id>", "/admin remove <id>".
func (h *Handler) handleAdminCommand(ctx context.Context, msg event.Message, args []string) {
	if len(args) == 0 {
		if !h.deps.Admins.IsBotAdmin(ctx, msg.From.ID) {
			h.sendText(ctx, msg.ChatID, messages.MsgAdminOnly)
			return
		}
		h.callbackHandler.ShowPanel(ctx, h.screen(msg))
		return
	}
	if !h.deps.Admins.IsConfigured(msg.From.ID) {
		h.sendText(ctx, msg.ChatID, messages.MsgAdminOnly)
		return
	}
	if len(args) != 2 {
		h.sendText(ctx, msg.ChatID, messages.MsgAdminUsage)
		return
	}
	userID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || userID == 0 {
		h.sendText(ctx, msg.ChatID, messages.MsgAdminUsage)
		return
	}
	switch args[0] {
	case "add":
		err = h.deps.Service.AddAdmin(ctx, userID)
		if err == nil {
			h.sendText(ctx, msg.ChatID, fmt.Sprintf(messages.MsgAdminAdded, userID))
		}
	case "remove":
		err = h.deps.Service.RemoveAdmin(ctx, userID)
		if err == nil {
			h.sendText(ctx, msg.ChatID, fmt.Sprintf(messages.MsgAdminRemoved, userID))
		}
	default:
		h.sendText(ctx, msg.ChatID, messages.MsgAdminUsage)
		return
	}
	if err != nil {
		h.logger.Error("Failed to update admins", "action", args[0], "user_id", userID, "error", err)
		h.sendText(ctx, msg.ChatID, messages.MsgGenericFailure)
		return
	}
	metrics.IncBotAction("admin_" + args[0])
}

func (h *Handler) handleSchedule(ctx context.Context, msg event.Message, rest string) {
	if !h.deps.Admins.IsBotAdmin(ctx, msg.From.ID) {
		h.sendText(ctx, msg.ChatID, messages.MsgAdminOnly)
		return
	}
	post, err := h.deps.Service.SchedulePost(ctx, msg.From.ID, rest)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			h.sendText(ctx, msg.ChatID, messages.MsgScheduleUsage)
		case errors.Is(err, service.ErrPastTime):
			h.sendText(ctx, msg.ChatID, messages.MsgPastTime)
		default:
			h.logger.Error("Failed to schedule post", "user_id", msg.From.ID, "error", err)
			h.sendText(ctx, msg.ChatID, messages.MsgGenericFailure)
		}
		return
	}
	metrics.IncScheduledPost("created")
	h.sendText(ctx, msg.ChatID, fmt.Sprintf(messages.MsgScheduled, post.ID, post.PublishTime.In(time.Local).Format(service.ScheduleLayout)))
}

// handleUserInput answers the prompt the admin opened in the panel. The
// prompt stays open after invalid input so the admin can retry.
func (h *Handler) handleUserInput(ctx context.Context, msg event.Message, text string, state *repository.UserState) {
	userID := msg.From.ID
	if !h.deps.Admins.IsBotAdmin(ctx, userID) {
		h.clearState(ctx, userID)
		h.sendText(ctx, msg.ChatID, messages.MsgAdminOnly)
		return
	}
	if text == "" {
		h.sendText(ctx, msg.ChatID, messages.MsgInvalidInput)
		return
	}

	s := h.screen(msg)
	var (
		err  error
		next func()
	)
	switch state.Action {
	case callbacks.StateWord:
		err = h.addTerms(ctx, text, h.deps.Service.AddBlacklistWords)
		next = func() { h.callbackHandler.ShowWords(ctx, s) }
	case callbacks.StateLink:
		err = h.addTerms(ctx, text, h.deps.Service.AddBlacklistLinks)
		next = func() { h.callbackHandler.ShowLinks(ctx, s) }
	case callbacks.StateFlood:
		var maxMessages, window int
		if maxMessages, window, err = service.ParseFloodLimits(text); err == nil {
			err = h.deps.Service.SetFloodLimits(ctx, maxMessages, window)
		}
		next = func() { h.callbackHandler.ShowPanel(ctx, s) }
	case callbacks.StateTrigger:
		_, err = h.deps.Service.AddTrigger(ctx, text)
		next = func() { h.callbackHandler.ShowTriggers(ctx, s) }
	case callbacks.StatePostText, callbacks.StatePostTime, callbacks.StatePostButtons:
		id, parseErr := strconv.ParseUint(state.Data, 10, 64)
		if parseErr != nil {
			h.logger.Warn("Invalid post id in user state", "user_id", userID, "data", state.Data)
			h.clearState(ctx, userID)
			h.sendText(ctx, msg.ChatID, messages.MsgPostNotFound)
			return
		}
		err = h.editPost(ctx, state.Action, uint(id), text)
		next = func() { h.callbackHandler.ShowPost(ctx, s, uint(id)) }
	default:
		h.logger.Warn("Unknown user state", "user_id", userID, "action", state.Action)
		h.clearState(ctx, userID)
		h.sendText(ctx, msg.ChatID, messages.MsgUnknownCommand)
		return
	}

	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidInput):
		h.sendText(ctx, msg.ChatID, messages.MsgInvalidInput)
		return
	case errors.Is(err, service.ErrPastTime):
		h.sendText(ctx, msg.ChatID, messages.MsgPastTime)
		return
	case errors.Is(err, repository.ErrPostNotFound), errors.Is(err, repository.ErrPostNotPending):
		h.clearState(ctx, userID)
		h.sendText(ctx, msg.ChatID, messages.MsgPostNotFound)
		h.callbackHandler.ShowPosts(ctx, s)
		return
	default:
		h.logger.Error("Failed to apply admin input", "user_id", userID, "action", state.Action, "error", err)
		h.clearState(ctx, userID)
		h.sendText(ctx, msg.ChatID, messages.MsgGenericFailure)
		return
	}

	h.clearState(ctx, userID)
	metrics.IncBotAction("panel_" + state.Action)
	h.sendText(ctx, msg.ChatID, messages.MsgSaved)
	next()
}

func (h *Handler) addTerms(ctx context.Context, text string, add func(context.Context, []string) (int, error)) error {
	items := utils.SplitList(text)
	if len(items) == 0 {
		return service.ErrInvalidInput
	}
	_, err := add(ctx, items)
	return err
}

func (h *Handler) editPost(ctx context.Context, action string, id uint, text string) error {
	switch action {
	case callbacks.StatePostText:
		return h.deps.Service.EditPostText(ctx, id, text)
	case callbacks.StatePostTime:
		_, err := h.deps.Service.ReschedulePost(ctx, id, text)
		return err
	default:
		return h.deps.Service.SetPostButtons(ctx, id, text)
	}
}

func (h *Handler) clearState(ctx context.Context, userID int64) {
	if err := h.deps.UserStates.ClearState(ctx, userID); err != nil {
		h.logger.Error("Failed to delete user state", "user_id", userID, "error", err)
	}
}
