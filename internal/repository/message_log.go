package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type PosterCount struct {
	UserID   int64
	Messages int64
}

type ChatSummary struct {
	Messages    int64
	ActiveUsers int64
	TopPosters  []PosterCount
}

type MessageLogRepository interface {
	// Log inserts entry and bumps replies_count of the replied-to row in the same transaction.
	Log(ctx context.Context, entry *MessageLog) error
	Summary(ctx context.Context, chatID int64, since time.Time, top int) (*ChatSummary, error)
}

type PostgresMessageLogRepository struct {
	db *gorm.DB
}

func NewMessageLogRepository(db *gorm.DB) MessageLogRepository {
	return &PostgresMessageLogRepository{db: db}
}

func (r *PostgresMessageLogRepository) Log(ctx context.Context, entry *MessageLog) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		if entry.ReplyToMessageID == nil {
			return nil
		}
		return tx.Model(&MessageLog{}).
			Where("chat_id = ? AND message_id = ?", entry.ChatID, *entry.ReplyToMessageID).
			UpdateColumn("replies_count", gorm.Expr("replies_count + 1")).Error
	})
	if err != nil {
		return fmt.Errorf("failed to log message: %w", err)
	}
	return nil
}

func (r *PostgresMessageLogRepository) Summary(ctx context.Context, chatID int64, since time.Time, top int) (*ChatSummary, error) {
	db := r.db.WithContext(ctx)
	base := func() *gorm.DB {
		return db.Model(&MessageLog{}).Where("chat_id = ? AND date >= ?", chatID, since)
	}

	var summary ChatSummary
	if err := base().Count(&summary.Messages).Error; err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}
	if err := base().Distinct("user_id").Count(&summary.ActiveUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}
	err := base().
		Select("user_id, COUNT(*) AS messages").
		Group("user_id").
		Order("messages DESC").
		Limit(top).
		Scan(&summary.TopPosters).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get top posters: %w", err)
	}
	return &summary, nil
}
