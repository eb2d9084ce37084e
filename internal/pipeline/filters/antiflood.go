package filters

import (
	"context"
	"fmt"
	"time"

	"github.com/kabozek1/tgbot-final02/internal/event"
	"github.com/kabozek1/tgbot-final02/internal/messages"
	"github.com/kabozek1/tgbot-final02/internal/pipeline"
	"github.com/kabozek1/tgbot-final02/internal/settings"
	"github.com/kabozek1/tgbot-final02/internal/state"
)

type AntifloodSource interface {
	Antiflood() settings.Antiflood
}

// FloodDetector keeps a sliding window of message times per chat member.
type FloodDetector struct {
	cfg     AntifloodSource
	windows state.Store[[]time.Time]
}

func NewFloodDetector(cfg AntifloodSource, windows state.Store[[]time.Time]) *FloodDetector {
	return &FloodDetector{cfg: cfg, windows: windows}
}

// Check records a message at now and reports whether the sender exceeded
// the configured rate. Nothing is recorded while antiflood is disabled.
func (d *FloodDetector) Check(chatID, userID int64, now time.Time) bool {
	cfg := d.cfg.Antiflood()
	if !cfg.Enabled {
		return false
	}
	window := cfg.Window()
	var flooded bool
	d.windows.Update(fmt.Sprintf("%d:%d", chatID, userID), func(timestamps []time.Time, _ bool) []time.Time {
		valid := make([]time.Time, 0, len(timestamps)+1)
		for _, ts := range timestamps {
			if now.Sub(ts) <= window {
				valid = append(valid, ts)
			}
		}
		valid = append(valid, now)
		flooded = len(valid) > cfg.MaxMessages
		return valid
	})
	return flooded
}

type AntifloodFilter struct {
	detector    *FloodDetector
	noticeDelay time.Duration
	now         func() time.Time
}

func NewAntifloodFilter(detector *FloodDetector, noticeDelay time.Duration) *AntifloodFilter {
	return &AntifloodFilter{detector: detector, noticeDelay: noticeDelay, now: time.Now}
}

func (f *AntifloodFilter) Name() string {
	return "antiflood_filter"
}

// Process counts text messages only; media, stickers and captions pass.
func (f *AntifloodFilter) Process(_ context.Context, payload pipeline.Payload) (*pipeline.Result, error) {
	if payload.ContentType != event.ContentText || payload.Text == "" {
		return pipeline.Allow(), nil
	}
	at := payload.Date
	if at.IsZero() {
		at = f.now()
	}
	if !f.detector.Check(payload.ChatID, payload.SenderID, at) {
		return pipeline.Allow(), nil
	}
	notice := fmt.Sprintf(messages.MsgFloodWarning, payload.Sender().DisplayName())
	return &pipeline.Result{
		IsAllowed:      false,
		Reason:         messages.MsgReasonFlood,
		FilterName:     f.Name(),
		ShouldDelete:   true,
		Notice:         notice,
		FallbackNotice: notice,
		NoticeTTL:      f.noticeDelay,
	}, nil
}
