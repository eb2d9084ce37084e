// Package notify posts bot notices that remove themselves after a delay.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/kabozek1/tgbot-final02/internal/transport"
)

type DeletionQueue interface {
	Add(ctx context.Context, chatID int64, messageID int, delay time.Duration) error
}

type Notifier struct {
	messenger transport.Messenger
	queue     DeletionQueue
	log       *slog.Logger
}

func New(messenger transport.Messenger, queue DeletionQueue, log *slog.Logger) *Notifier {
	return &Notifier{messenger: messenger, queue: queue, log: log}
}

// Transient sends msg and queues its deletion after ttl. A zero ttl keeps the message.
func (n *Notifier) Transient(ctx context.Context, msg transport.OutgoingMessage, ttl time.Duration) (int, error) {
	id, err := n.messenger.Send(ctx, msg)
	if err != nil {
		return 0, err
	}
	n.DeleteLater(ctx, msg.ChatID, id, ttl)
	return id, nil
}

func (n *Notifier) DeleteLater(ctx context.Context, chatID int64, messageID int, ttl time.Duration) {
	if ttl <= 0 || messageID == 0 {
		return
	}
	if err := n.queue.Add(ctx, chatID, messageID, ttl); err != nil {
		n.log.Error("Failed to schedule message deletion", "chat_id", chatID, "msg_id", messageID, "error", err)
	}
}
