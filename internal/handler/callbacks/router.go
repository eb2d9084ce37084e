package callbacks

import (
	"context"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kabozek1/tgbot-final02/internal/event"
	"github.com/kabozek1/tgbot-final02/internal/messages"
)

// Callback payloads, "<action>[:<argument>]".
const (
	PayloadPanel      = "panel"
	PayloadToggle     = "toggle"
	PayloadPrompt     = "prompt"
	PayloadWords      = "words"
	PayloadLinks      = "links"
	PayloadTriggers   = "triggers"
	PayloadPosts      = "posts"
	PayloadPost       = "post"
	PayloadDelWord    = "del_word"
	PayloadDelLink    = "del_link"
	PayloadDelTrigger = "del_trigger"
	PayloadDelPost    = "del_post"
)

// Pending inputs an admin is asked for. Post prompts carry the post id as data.
const (
	StateWord        = "word"
	StateLink        = "link"
	StateFlood       = "flood"
	StateTrigger     = "trigger"
	StatePostText    = "post_text"
	StatePostTime    = "post_time"
	StatePostButtons = "post_buttons"
)

func (h *CallbackHandler) Handle(ctx context.Context, press event.CallbackPress) {
	ctx, span := h.tracer.Start(ctx, "handleCallback")
	defer span.End()

	span.SetAttributes(
		attribute.String("payload", press.Data),
		attribute.Int64("chat_id", press.ChatID),
		attribute.Int64("user_id", press.From.ID),
	)

	h.logger.Info("Received callback", "payload", press.Data, "chat_id", press.ChatID, "user_id", press.From.ID)

	if !h.admins.IsBotAdmin(ctx, press.From.ID) {
		h.answer(ctx, press.QueryID, messages.MsgAdminOnly, true)
		return
	}
	h.answer(ctx, press.QueryID, "", false)

	s := Screen{ChatID: press.ChatID, MessageID: press.MessageID, UserID: press.From.ID}
	action, arg, _ := strings.Cut(press.Data, ":")
	switch action {
	case PayloadPanel:
		h.ShowPanel(ctx, s)
	case PayloadToggle:
		h.handleToggle(ctx, s, arg)
	case PayloadPrompt:
		h.handlePrompt(ctx, s, arg)
	case PayloadWords:
		h.ShowWords(ctx, s)
	case PayloadLinks:
		h.ShowLinks(ctx, s)
	case PayloadTriggers:
		h.ShowTriggers(ctx, s)
	case PayloadPosts:
		h.ShowPosts(ctx, s)
	case PayloadPost:
		if id, ok := parseID(arg); ok {
			h.ShowPost(ctx, s, id)
		}
	case PayloadDelWord:
		if i, err := strconv.Atoi(arg); err == nil {
			h.handleDeleteWord(ctx, s, i)
		}
	case PayloadDelLink:
		if i, err := strconv.Atoi(arg); err == nil {
			h.handleDeleteLink(ctx, s, i)
		}
	case PayloadDelTrigger:
		if id, ok := parseID(arg); ok {
			h.handleDeleteTrigger(ctx, s, id)
		}
	case PayloadDelPost:
		if id, ok := parseID(arg); ok {
			h.handleDeletePost(ctx, s, id)
		}
	default:
		h.logger.Warn("Unknown callback payload", "payload", press.Data)
	}
}

func (h *CallbackHandler) answer(ctx context.Context, queryID, text string, alert bool) {
	if err := h.messenger.AnswerCallback(ctx, queryID, text, alert); err != nil {
		h.logger.Warn("Failed to answer callback", "error", err)
	}
}

func parseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
