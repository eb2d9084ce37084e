package polling

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kabozek1/tgbot-final02/internal/event"
	"github.com/kabozek1/tgbot-final02/internal/transport/telegram"
)

const (
	pollTimeout  = 60
	retryBackoff = 3 * time.Second
)

type Poller struct {
	logger *slog.Logger
	bot    *tgbotapi.BotAPI
}

func NewPoller(logger *slog.Logger, bot *tgbotapi.BotAPI) *Poller {
	return &Poller{
		logger: logger,
		bot:    bot,
	}
}

// Start runs getUpdates in a loop until ctx is cancelled. Updates are read
// raw so forum thread ids survive decoding.
func (p *Poller) Start(ctx context.Context) <-chan event.Event {
	p.logger.Info("Starting Long Polling")
	events := make(chan event.Event, 100)

	if _, err := p.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		p.logger.Warn("Failed to remove webhook before polling", "error", err)
	}

	go func() {
		defer close(events)
		offset := 0
		for {
			if ctx.Err() != nil {
				return
			}
			raws, err := p.fetch(offset)
			if err != nil {
				p.logger.Error("Failed to get updates, retrying", "error", err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(retryBackoff):
				}
				continue
			}
			for _, raw := range raws {
				updateID, ev, err := telegram.Decode(raw)
				if updateID >= offset {
					offset = updateID + 1
				}
				if err != nil {
					p.logger.Error("Failed to decode update", "error", err)
					continue
				}
				if ev == nil {
					continue
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return events
}

func (p *Poller) fetch(offset int) ([]json.RawMessage, error) {
	params := tgbotapi.Params{}
	params.AddNonZero("offset", offset)
	params.AddNonZero("timeout", pollTimeout)
	if err := params.AddInterface("allowed_updates", telegram.AllowedUpdates); err != nil {
		return nil, err
	}
	resp, err := p.bot.MakeRequest("getUpdates", params)
	if err != nil {
		return nil, err
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(resp.Result, &raws); err != nil {
		return nil, err
	}
	return raws, nil
}
