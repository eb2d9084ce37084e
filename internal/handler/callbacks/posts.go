package callbacks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kabozek1/tgbot-final02/internal/messages"
	"github.com/kabozek1/tgbot-final02/internal/metrics"
	"github.com/kabozek1/tgbot-final02/internal/repository"
	"github.com/kabozek1/tgbot-final02/internal/scheduler"
	"github.com/kabozek1/tgbot-final02/internal/service"
	"github.com/kabozek1/tgbot-final02/internal/transport"
)

func formatTime(t time.Time) string {
	return t.In(time.Local).Format(service.ScheduleLayout)
}

func (h *CallbackHandler) ShowPosts(ctx context.Context, s Screen) {
	posts, err := h.svc.ListPendingPosts(ctx)
	if err != nil {
		h.logger.Error("Failed to list pending posts", "error", err)
		h.sendText(ctx, s.ChatID, messages.MsgGenericFailure)
		return
	}
	body := messages.MsgListEmpty
	var (
		lines   []string
		buttons [][]transport.Button
	)
	for _, p := range posts {
		line := fmt.Sprintf(messages.MsgPostLine, p.ID, formatTime(p.PublishTime), p.ChatID)
		lines = append(lines, line)
		buttons = append(buttons, button(line, fmt.Sprintf("%s:%d", PayloadPost, p.ID)))
	}
	if len(lines) > 0 {
		body = strings.Join(lines, "\n") + "\n\n" + messages.MsgScheduleUsage
	}
	buttons = append(buttons, button(messages.MsgBtnBack, PayloadPanel))
	h.show(ctx, s, fmt.Sprintf(messages.MsgPostsList, body), buttons)
}

// ShowPost draws one pending post with its edit actions.
func (h *CallbackHandler) ShowPost(ctx context.Context, s Screen, id uint) {
	post, err := h.svc.GetPost(ctx, id)
	if err != nil || post.Status != repository.PostPending {
		if err != nil && !errors.Is(err, repository.ErrPostNotFound) {
			h.logger.Error("Failed to get post", "post_id", id, "error", err)
		}
		h.sendText(ctx, s.ChatID, messages.MsgPostNotFound)
		h.ShowPosts(ctx, s)
		return
	}
	postButtons, err := scheduler.DecodeButtons(post.Buttons)
	if err != nil {
		h.logger.Warn("Failed to decode post buttons", "post_id", id, "error", err)
	}
	text := fmt.Sprintf(messages.MsgPostView, post.ID, post.ChatID, formatTime(post.PublishTime), len(postButtons), post.Text)
	prompt := func(state string) string { return fmt.Sprintf("%s:%s:%d", PayloadPrompt, state, id) }
	buttons := [][]transport.Button{
		button(messages.MsgBtnPostText, prompt(StatePostText)),
		button(messages.MsgBtnPostTime, prompt(StatePostTime)),
		button(messages.MsgBtnPostButtons, prompt(StatePostButtons)),
		button(messages.MsgBtnPostDelete, fmt.Sprintf("%s:%d", PayloadDelPost, id)),
		button(messages.MsgBtnBack, PayloadPosts),
	}
	h.show(ctx, s, text, buttons)
}

func (h *CallbackHandler) handleDeletePost(ctx context.Context, s Screen, id uint) {
	if err := h.svc.DeletePost(ctx, id); err != nil {
		h.logger.Error("Failed to delete post", "post_id", id, "error", err)
		h.sendText(ctx, s.ChatID, messages.MsgPostNotFound)
	} else {
		metrics.IncBotAction("delete_post")
		h.logger.Info("Post deleted", "post_id", id, "user_id", s.UserID)
	}
	h.ShowPosts(ctx, s)
}
