package filters

import (
	"context"
	"strings"
	"time"

	"github.com/kabozek1/tgbot-final02/internal/messages"
	"github.com/kabozek1/tgbot-final02/internal/pipeline"
	"github.com/kabozek1/tgbot-final02/internal/settings"
)

// KnownCommands are never checked against the blacklist.
var KnownCommands = []string{
	"/start", "/help", "/ping", "/set_name_topic", "/stats", "/rep", "/top",
	"/delete", "/poll", "/mute", "/unmute", "/invites", "/kick", "/ban", "/warn", "/admin",
}

type AntimatSource interface {
	Antimat() settings.Antimat
}

type ContentFilter struct {
	cfg         AntimatSource
	noticeDelay time.Duration
}

func NewContentFilter(cfg AntimatSource, noticeDelay time.Duration) *ContentFilter {
	return &ContentFilter{cfg: cfg, noticeDelay: noticeDelay}
}

func (f *ContentFilter) Name() string {
	return "content_filter"
}

// IsCommand reports whether text starts with one of KnownCommands.
func IsCommand(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, cmd := range KnownCommands {
		if strings.HasPrefix(lower, cmd) {
			return true
		}
	}
	return false
}

func (f *ContentFilter) IsBlacklisted(text string) bool {
	cfg := f.cfg.Antimat()
	if !cfg.Enabled || strings.TrimSpace(text) == "" || IsCommand(text) {
		return false
	}
	lower := strings.ToLower(text)
	for _, list := range [][]string{cfg.BlacklistWords, cfg.BlacklistLinks} {
		for _, term := range list {
			term = strings.ToLower(strings.TrimSpace(term))
			if term != "" && strings.Contains(lower, term) {
				return true
			}
		}
	}
	return false
}

func (f *ContentFilter) Process(_ context.Context, payload pipeline.Payload) (*pipeline.Result, error) {
	if !f.IsBlacklisted(payload.Text) {
		return pipeline.Allow(), nil
	}
	res := &pipeline.Result{
		IsAllowed:      false,
		Reason:         messages.MsgReasonBlacklist,
		FilterName:     f.Name(),
		ShouldDelete:   true,
		FallbackNotice: messages.MsgBlacklistFallback,
		NoticeTTL:      f.noticeDelay,
	}
	if f.cfg.Antimat().WarningsEnabled {
		res.Notice = messages.MsgBlacklistDeleted
	}
	return res, nil
}
