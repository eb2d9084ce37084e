package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type WarningRepository interface {
	// AddWarning stores w and returns the number of active warnings for the
	// same chat and user created after since, w included.
	AddWarning(ctx context.Context, w *Warning, since time.Time) (int, error)
	CountActive(ctx context.Context, chatID, userID int64, since time.Time) (int, error)
	ClearWarnings(ctx context.Context, chatID, userID int64) error
}

type PostgresWarningRepository struct {
	db *gorm.DB
}

func NewWarningRepository(db *gorm.DB) WarningRepository {
	return &PostgresWarningRepository{db: db}
}

func (r *PostgresWarningRepository) AddWarning(ctx context.Context, w *Warning, since time.Time) (int, error) {
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(w).Error; err != nil {
			return err
		}
		return activeWarnings(tx, w.ChatID, w.UserID, since).Count(&count).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add warning: %w", err)
	}
	return int(count), nil
}

func (r *PostgresWarningRepository) CountActive(ctx context.Context, chatID, userID int64, since time.Time) (int, error) {
	var count int64
	if err := activeWarnings(r.db.WithContext(ctx), chatID, userID, since).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count warnings: %w", err)
	}
	return int(count), nil
}

func (r *PostgresWarningRepository) ClearWarnings(ctx context.Context, chatID, userID int64) error {
	err := r.db.WithContext(ctx).Model(&Warning{}).
		Where("chat_id = ? AND user_id = ? AND cleared_at IS NULL", chatID, userID).
		Update("cleared_at", time.Now()).Error
	if err != nil {
		return fmt.Errorf("failed to clear warnings: %w", err)
	}
	return nil
}

func activeWarnings(db *gorm.DB, chatID, userID int64, since time.Time) *gorm.DB {
	return db.Model(&Warning{}).
		Where("chat_id = ? AND user_id = ? AND cleared_at IS NULL AND created_at >= ?", chatID, userID, since)
}
