package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type MuteRepository interface {
	MuteUser(ctx context.Context, chatID, userID int64, userName string, until time.Time) error
	UnmuteUser(ctx context.Context, chatID, userID int64) error
	IsMuted(ctx context.Context, chatID, userID int64) (bool, time.Time, error)
	GetExpired(ctx context.Context, now time.Time, limit int) ([]Mute, error)
	GetActiveMutes(ctx context.Context, chatID int64) ([]Mute, error)
	CountActiveMutes(ctx context.Context) (int64, error)
}

type PostgresMuteRepository struct {
	db *gorm.DB
}

func NewMuteRepository(db *gorm.DB) MuteRepository {
	return &PostgresMuteRepository{db: db}
}

// MuteUser records a mute; an existing row is overwritten with the new expiry.
func (r *PostgresMuteRepository) MuteUser(ctx context.Context, chatID, userID int64, userName string, until time.Time) error {
	db := r.db.WithContext(ctx)
	var existing Mute
	err := db.Where("chat_id = ? AND user_id = ?", chatID, userID).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			mute := Mute{ChatID: chatID, UserID: userID, UserName: userName, ExpiresAt: until}
			if err := db.Create(&mute).Error; err != nil {
				return fmt.Errorf("failed to create mute: %w", err)
			}
			return nil
		}
		return fmt.Errorf("failed to check existing mute: %w", err)
	}

	updates := map[string]interface{}{"expires_at": until}
	if userName != "" && userName != existing.UserName {
		updates["user_name"] = userName
	}
	if err := db.Model(&existing).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update mute: %w", err)
	}
	return nil
}

func (r *PostgresMuteRepository) UnmuteUser(ctx context.Context, chatID, userID int64) error {
	if err := r.db.WithContext(ctx).Where("chat_id = ? AND user_id = ?", chatID, userID).Delete(&Mute{}).Error; err != nil {
		return fmt.Errorf("failed to unmute user: %w", err)
	}
	return nil
}

func (r *PostgresMuteRepository) IsMuted(ctx context.Context, chatID, userID int64) (bool, time.Time, error) {
	var mute Mute
	err := r.db.WithContext(ctx).Where("chat_id = ? AND user_id = ?", chatID, userID).
		Where("expires_at > ?", time.Now()).
		First(&mute).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, time.Time{}, nil
		}
		return false, time.Time{}, fmt.Errorf("failed to check mute status: %w", err)
	}
	return true, mute.ExpiresAt, nil
}

func (r *PostgresMuteRepository) GetExpired(ctx context.Context, now time.Time, limit int) ([]Mute, error) {
	var mutes []Mute
	err := r.db.WithContext(ctx).Where("expires_at <= ?", now).Order("expires_at ASC").Limit(limit).Find(&mutes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get expired mutes: %w", err)
	}
	return mutes, nil
}

func (r *PostgresMuteRepository) GetActiveMutes(ctx context.Context, chatID int64) ([]Mute, error) {
	var mutes []Mute
	if err := r.db.WithContext(ctx).Where("chat_id = ? AND expires_at > ?", chatID, time.Now()).Order("expires_at ASC").Find(&mutes).Error; err != nil {
		return nil, fmt.Errorf("failed to get active mutes: %w", err)
	}
	return mutes, nil
}

func (r *PostgresMuteRepository) CountActiveMutes(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Mute{}).Where("expires_at > ?", time.Now()).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count active mutes: %w", err)
	}
	return count, nil
}
