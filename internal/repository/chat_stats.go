package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Daily moderation counters kept in chat_stats.
const (
	StatFloodDeletions     = "flood_deletions"
	StatBlacklistDeletions = "blacklist_deletions"
	StatWarnCount          = "warn_count"
	StatMuteCount          = "mute_count"
	StatKickCount          = "kick_count"
	StatBanCount           = "ban_count"
)

type ChatStatsRepository interface {
	IncrementChatStat(ctx context.Context, chatID int64, field string) error
	GetChatTotalStats(ctx context.Context, chatID int64, since time.Time) (*ChatStats, error)
}

type PostgresChatStatsRepository struct {
	db *gorm.DB
}

func NewChatStatsRepository(db *gorm.DB) ChatStatsRepository {
	return &PostgresChatStatsRepository{db: db}
}

func (r *PostgresChatStatsRepository) IncrementChatStat(ctx context.Context, chatID int64, field string) error {
	row := ChatStats{ChatID: chatID, Date: time.Now().UTC().Truncate(24 * time.Hour)}
	switch field {
	case StatFloodDeletions:
		row.FloodDeletions = 1
	case StatBlacklistDeletions:
		row.BlacklistDeletions = 1
	case StatWarnCount:
		row.WarnCount = 1
	case StatMuteCount:
		row.MuteCount = 1
	case StatKickCount:
		row.KickCount = 1
	case StatBanCount:
		row.BanCount = 1
	default:
		return fmt.Errorf("unknown chat stat: %s", field)
	}
	slog.Debug("Incrementing chat stat", "chat_id", chatID, "field", field)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			return nil
		}
		return tx.Model(&ChatStats{}).
			Where("chat_id = ? AND date = ?", row.ChatID, row.Date).
			UpdateColumn(field, gorm.Expr(field+" + 1")).Error
	})
	if err != nil {
		return fmt.Errorf("failed to increment chat stat: %w", err)
	}
	return nil
}

func (r *PostgresChatStatsRepository) GetChatTotalStats(ctx context.Context, chatID int64, since time.Time) (*ChatStats, error) {
	var stats ChatStats
	err := r.db.WithContext(ctx).Model(&ChatStats{}).
		Select("chat_id, SUM(flood_deletions) as flood_deletions, SUM(blacklist_deletions) as blacklist_deletions, SUM(warn_count) as warn_count, SUM(mute_count) as mute_count, SUM(kick_count) as kick_count, SUM(ban_count) as ban_count").
		Where("chat_id = ? AND date >= ?", chatID, since.UTC().Truncate(24*time.Hour)).
		Group("chat_id").
		Take(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ChatStats{ChatID: chatID}, nil
		}
		return nil, fmt.Errorf("failed to get chat stats: %w", err)
	}
	return &stats, nil
}
