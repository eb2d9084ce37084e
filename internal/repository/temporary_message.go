package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// TemporaryMessageRepository tracks bot notices that must disappear after a delay.
type TemporaryMessageRepository interface {
	Add(ctx context.Context, chatID int64, messageID int, delay time.Duration) error
	GetExpired(ctx context.Context, limit int) ([]TemporaryMessage, error)
	Delete(ctx context.Context, ids []int64) error
}

type PostgresTemporaryMessageRepository struct {
	db *gorm.DB
}

func NewTemporaryMessageRepository(db *gorm.DB) TemporaryMessageRepository {
	return &PostgresTemporaryMessageRepository{db: db}
}

func (r *PostgresTemporaryMessageRepository) Add(ctx context.Context, chatID int64, messageID int, delay time.Duration) error {
	msg := TemporaryMessage{
		ChatID:    chatID,
		MessageID: messageID,
		DeleteAt:  time.Now().Add(delay),
	}
	if err := r.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return fmt.Errorf("failed to schedule message deletion: %w", err)
	}
	return nil
}

func (r *PostgresTemporaryMessageRepository) GetExpired(ctx context.Context, limit int) ([]TemporaryMessage, error) {
	var messages []TemporaryMessage
	err := r.db.WithContext(ctx).Where("delete_at <= ?", time.Now()).Order("delete_at ASC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get expired messages: %w", err)
	}
	return messages, nil
}

func (r *PostgresTemporaryMessageRepository) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Delete(&TemporaryMessage{}, ids).Error; err != nil {
		return fmt.Errorf("failed to delete temporary messages: %w", err)
	}
	return nil
}
