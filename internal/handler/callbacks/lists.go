package callbacks

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kabozek1/tgbot-final02/internal/messages"
	"github.com/kabozek1/tgbot-final02/internal/metrics"
	"github.com/kabozek1/tgbot-final02/internal/transport"
)

// maxListButtons keeps keyboards under the platform limit.
const maxListButtons = 50

func (h *CallbackHandler) ShowWords(ctx context.Context, s Screen) {
	h.showTerms(ctx, s, h.settings.Antimat().BlacklistWords, messages.MsgWordsList, PayloadDelWord, StateWord)
}

func (h *CallbackHandler) ShowLinks(ctx context.Context, s Screen) {
	h.showTerms(ctx, s, h.settings.Antimat().BlacklistLinks, messages.MsgLinksList, PayloadDelLink, StateLink)
}

func (h *CallbackHandler) showTerms(ctx context.Context, s Screen, terms []string, format, delPayload, prompt string) {
	body := messages.MsgListEmpty
	if len(terms) > 0 {
		body = strings.Join(terms, "\n")
	}
	var buttons [][]transport.Button
	for i, term := range terms {
		if i == maxListButtons {
			break
		}
		buttons = append(buttons, button(fmt.Sprintf(messages.MsgBtnDelete, term), delPayload+":"+strconv.Itoa(i)))
	}
	buttons = append(buttons,
		button(messages.MsgBtnAdd, PayloadPrompt+":"+prompt),
		button(messages.MsgBtnBack, PayloadPanel),
	)
	h.show(ctx, s, fmt.Sprintf(format, body), buttons)
}

func (h *CallbackHandler) handleDeleteWord(ctx context.Context, s Screen, index int) {
	words := h.settings.Antimat().BlacklistWords
	if index < 0 || index >= len(words) {
		h.ShowWords(ctx, s)
		return
	}
	if err := h.svc.RemoveBlacklistWord(ctx, words[index]); err != nil {
		h.logger.Error("Failed to remove blacklist word", "error", err)
		h.sendText(ctx, s.ChatID, messages.MsgGenericFailure)
	} else {
		metrics.IncBotAction("remove_word")
	}
	h.ShowWords(ctx, s)
}

func (h *CallbackHandler) handleDeleteLink(ctx context.Context, s Screen, index int) {
	links := h.settings.Antimat().BlacklistLinks
	if index < 0 || index >= len(links) {
		h.ShowLinks(ctx, s)
		return
	}
	if err := h.svc.RemoveBlacklistLink(ctx, links[index]); err != nil {
		h.logger.Error("Failed to remove blacklist link", "error", err)
		h.sendText(ctx, s.ChatID, messages.MsgGenericFailure)
	} else {
		metrics.IncBotAction("remove_link")
	}
	h.ShowLinks(ctx, s)
}

func (h *CallbackHandler) ShowTriggers(ctx context.Context, s Screen) {
	triggers, err := h.svc.ListTriggers(ctx)
	if err != nil {
		h.logger.Error("Failed to list triggers", "error", err)
		h.sendText(ctx, s.ChatID, messages.MsgGenericFailure)
		return
	}
	body := messages.MsgListEmpty
	var (
		lines   []string
		buttons [][]transport.Button
	)
	for i, t := range triggers {
		lines = append(lines, fmt.Sprintf("#%d %s => %s", t.ID, t.TriggerText, t.ResponseText))
		if i < maxListButtons {
			buttons = append(buttons, button(fmt.Sprintf(messages.MsgBtnDelete, "#"+strconv.FormatUint(uint64(t.ID), 10)), fmt.Sprintf("%s:%d", PayloadDelTrigger, t.ID)))
		}
	}
	if len(lines) > 0 {
		body = strings.Join(lines, "\n")
	}
	buttons = append(buttons,
		button(messages.MsgBtnAdd, PayloadPrompt+":"+StateTrigger),
		button(messages.MsgBtnBack, PayloadPanel),
	)
	h.show(ctx, s, fmt.Sprintf(messages.MsgTriggersList, body), buttons)
}

func (h *CallbackHandler) handleDeleteTrigger(ctx context.Context, s Screen, id uint) {
	if err := h.svc.DeleteTrigger(ctx, id); err != nil {
		h.logger.Error("Failed to delete trigger", "trigger_id", id, "error", err)
		h.sendText(ctx, s.ChatID, messages.MsgGenericFailure)
	} else {
		metrics.IncBotAction("delete_trigger")
	}
	h.ShowTriggers(ctx, s)
}
