package service

import (
	"context"
	"time"

	"github.com/kabozek1/tgbot-final02/internal/metrics"
	"github.com/kabozek1/tgbot-final02/internal/transport"
)

const cleanupBatch = 50

type Deleter interface {
	Delete(ctx context.Context, chatID int64, messageID int) error
}

type MuteExpirer interface {
	ExpireMutes(ctx context.Context)
}

// StartCleanupTask deletes queued bot notices once they expire.
func (s *AdminService) StartCleanupTask(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *AdminService) cleanupExpired(ctx context.Context) {
	expired, err := s.tempMessageRepo.GetExpired(ctx, cleanupBatch)
	if err != nil {
		s.logger.Error("Failed to get expired messages", "error", err)
		return
	}
	if len(expired) == 0 {
		return
	}

	s.logger.Debug("Found expired messages to delete", "count", len(expired))

	ids := make([]int64, 0, len(expired))
	for _, msg := range expired {
		if err := s.messenger.Delete(ctx, msg.ChatID, msg.MessageID); err != nil {
			if !transport.IsBenign(err) {
				s.logger.Warn("Failed to delete expired message from chat (will delete from DB)",
					"msg_id", msg.MessageID, "chat_id", msg.ChatID, "error", err)
			}
		} else {
			metrics.IncDeletedMessages("temp_expired")
		}
		ids = append(ids, msg.ID)
	}

	if err := s.tempMessageRepo.Delete(ctx, ids); err != nil {
		s.logger.Error("Failed to delete messages from DB", "error", err)
	}
}

// StartMuteSweeper lifts mutes whose timers were lost, e.g. after a restart.
func (s *AdminService) StartMuteSweeper(ctx context.Context, expirer MuteExpirer, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)

	go expirer.ExpireMutes(ctx)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				expirer.ExpireMutes(ctx)
			}
		}
	}()
}
