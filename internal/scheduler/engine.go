// Package scheduler publishes scheduled posts when they fall due.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kabozek1/tgbot-final02/internal/metrics"
	"github.com/kabozek1/tgbot-final02/internal/repository"
	"github.com/kabozek1/tgbot-final02/internal/transport"
)

const DefaultInterval = time.Minute

type Engine struct {
	posts     repository.ScheduledPostRepository
	messenger transport.Messenger
	log       *slog.Logger
	interval  time.Duration
	now       func() time.Time
}

func NewEngine(posts repository.ScheduledPostRepository, messenger transport.Messenger, log *slog.Logger, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Engine{posts: posts, messenger: messenger, log: log, interval: interval, now: time.Now}
}

// Start runs Sweep on every tick until ctx is cancelled.
func (e *Engine) Start(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	e.log.Info("Scheduler started", "interval", e.interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				e.log.Info("Scheduler stopped")
				return
			case <-ticker.C:
				e.Sweep(ctx)
			}
		}
	}()
}

// Sweep publishes every due post. Failures are logged and recorded on the post.
func (e *Engine) Sweep(ctx context.Context) {
	published, failed, err := e.posts.ProcessDue(ctx, e.now(), e.deliver)
	if err != nil {
		e.log.Error("Failed to process scheduled posts", "error", err)
		metrics.IncScheduledPost("sweep_error")
		return
	}
	if published+failed > 0 {
		e.log.Info("Processed scheduled posts", "published", published, "failed", failed)
	}
}

func (e *Engine) deliver(ctx context.Context, post *repository.ScheduledPost) (int, error) {
	msg, err := Render(post)
	if err != nil {
		metrics.IncScheduledPost("failed")
		e.log.Warn("Failed to render scheduled post", "post_id", post.ID, "error", err)
		return 0, err
	}
	id, err := e.messenger.Send(ctx, msg)
	if err != nil {
		metrics.IncScheduledPost("failed")
		e.log.Error("Failed to publish scheduled post", "post_id", post.ID, "chat_id", post.ChatID, "error", err)
		return 0, err
	}
	metrics.IncScheduledPost("published")
	e.log.Debug("Published scheduled post", "post_id", post.ID, "chat_id", post.ChatID, "msg_id", id)
	return id, nil
}

// Render builds the outgoing message of post. Each button gets its own row and
// the topic is only applied in groups.
func Render(post *repository.ScheduledPost) (transport.OutgoingMessage, error) {
	msg := transport.OutgoingMessage{ChatID: post.ChatID, Text: post.Text}
	if post.TopicID != nil && post.ChatID < 0 {
		msg.ThreadID = *post.TopicID
	}
	if post.MediaFileID != "" {
		kind, ok := transport.ParseMediaKind(post.MediaType)
		if !ok {
			return msg, fmt.Errorf("unsupported media type %q", post.MediaType)
		}
		msg.Media = &transport.Media{Kind: kind, FileID: post.MediaFileID}
	}
	buttons, err := DecodeButtons(post.Buttons)
	if err != nil {
		return msg, err
	}
	for _, b := range buttons {
		if b.Text == "" || b.URL == "" {
			continue
		}
		msg.Buttons = append(msg.Buttons, []transport.Button{{Text: b.Text, URL: b.URL}})
	}
	return msg, nil
}

func DecodeButtons(raw []byte) ([]repository.PostButton, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var buttons []repository.PostButton
	if err := json.Unmarshal(raw, &buttons); err != nil {
		return nil, fmt.Errorf("failed to decode buttons: %w", err)
	}
	return buttons, nil
}

func EncodeButtons(buttons []repository.PostButton) ([]byte, error) {
	if len(buttons) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(buttons)
	if err != nil {
		return nil, fmt.Errorf("failed to encode buttons: %w", err)
	}
	return raw, nil
}
