package callbacks

import (
	"context"
	"fmt"
	"strings"

	"github.com/kabozek1/tgbot-final02/internal/messages"
	"github.com/kabozek1/tgbot-final02/internal/metrics"
	"github.com/kabozek1/tgbot-final02/internal/service"
	"github.com/kabozek1/tgbot-final02/internal/transport"
)

func status(enabled bool) string {
	if enabled {
		return messages.MsgAdminStatusOn
	}
	return messages.MsgAdminStatusOff
}

// ShowPanel draws the main panel and drops any prompt the admin left open.
func (h *CallbackHandler) ShowPanel(ctx context.Context, s Screen) {
	if err := h.userStateRepo.ClearState(ctx, s.UserID); err != nil {
		h.logger.Warn("Failed to delete user state in panel", "user_id", s.UserID, "error", err)
	}

	flood := h.settings.Antiflood()
	antimat := h.settings.Antimat()
	toggle := func(setting string) string { return PayloadToggle + ":" + setting }

	buttons := [][]transport.Button{
		button(fmt.Sprintf(messages.MsgBtnAntiflood, status(flood.Enabled), flood.MaxMessages, flood.WindowSeconds), toggle(service.SettingAntiflood)),
		button(messages.MsgBtnFloodLimits, PayloadPrompt+":"+StateFlood),
		button(fmt.Sprintf(messages.MsgBtnAntimat, status(antimat.Enabled)), toggle(service.SettingAntimat)),
		button(fmt.Sprintf(messages.MsgBtnAntimatWarnings, status(antimat.WarningsEnabled)), toggle(service.SettingAntimatWarnings)),
		button(fmt.Sprintf(messages.MsgBtnCaptcha, status(h.settings.Captcha().Enabled)), toggle(service.SettingCaptcha)),
		button(fmt.Sprintf(messages.MsgBtnReputation, status(h.settings.Reputation().Enabled)), toggle(service.SettingReputation)),
		button(fmt.Sprintf(messages.MsgBtnPolls, status(h.settings.Poll().Enabled)), toggle(service.SettingPoll)),
		button(messages.MsgBtnWords, PayloadWords),
		button(messages.MsgBtnLinks, PayloadLinks),
		button(messages.MsgBtnTriggers, PayloadTriggers),
		button(messages.MsgBtnPosts, PayloadPosts),
	}
	h.show(ctx, s, messages.MsgAdminPanel, buttons)
}

func (h *CallbackHandler) handleToggle(ctx context.Context, s Screen, setting string) {
	h.logger.Info("Toggle setting requested", "setting", setting, "user_id", s.UserID)
	val, err := h.svc.ToggleSetting(ctx, setting)
	if err != nil {
		h.logger.Error("Failed to toggle setting", "setting", setting, "error", err)
		h.sendText(ctx, s.ChatID, messages.MsgGenericFailure)
	} else {
		h.logger.Info("Toggle setting success", "setting", setting, "old_value", !val, "new_value", val)
		metrics.IncBotAction("toggle_setting")
	}
	h.ShowPanel(ctx, s)
}

var prompts = map[string]struct {
	text string
	back string
}{
	StateWord:        {messages.MsgPromptWord, PayloadWords},
	StateLink:        {messages.MsgPromptLink, PayloadLinks},
	StateFlood:       {messages.MsgPromptFlood, PayloadPanel},
	StateTrigger:     {messages.MsgPromptTrigger, PayloadTriggers},
	StatePostText:    {messages.MsgPromptPostText, PayloadPost},
	StatePostTime:    {messages.MsgPromptPostTime, PayloadPost},
	StatePostButtons: {messages.MsgPromptPostButtons, PayloadPost},
}

// handlePrompt asks for free-text input; the answer arrives as a private message.
func (h *CallbackHandler) handlePrompt(ctx context.Context, s Screen, arg string) {
	action, data, _ := strings.Cut(arg, ":")
	p, ok := prompts[action]
	if !ok {
		h.logger.Warn("Unknown prompt", "prompt", arg)
		return
	}
	back := p.back
	if back == PayloadPost {
		if _, ok := parseID(data); !ok {
			h.logger.Warn("Invalid post id in prompt", "prompt", arg)
			return
		}
		back += ":" + data
	}
	if err := h.userStateRepo.SetState(ctx, s.UserID, action, data); err != nil {
		h.logger.Error("Failed to set user state", "user_id", s.UserID, "error", err)
		h.sendText(ctx, s.ChatID, messages.MsgGenericFailure)
		return
	}
	h.show(ctx, s, p.text, [][]transport.Button{button(messages.MsgBtnBack, back)})
}
