package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// UserStateRepository keeps the pending admin-panel prompt per user.
type UserStateRepository interface {
	SetState(ctx context.Context, userID int64, action, data string) error
	GetState(ctx context.Context, userID int64) (*UserState, error)
	ClearState(ctx context.Context, userID int64) error
}

type PostgresUserStateRepository struct {
	db *gorm.DB
}

func NewUserStateRepository(db *gorm.DB) UserStateRepository {
	return &PostgresUserStateRepository{db: db}
}

func (r *PostgresUserStateRepository) SetState(ctx context.Context, userID int64, action, data string) error {
	state := UserState{
		UserID:    userID,
		Action:    action,
		Data:      data,
		CreatedAt: time.Now(),
	}
	if err := r.db.WithContext(ctx).Save(&state).Error; err != nil {
		return fmt.Errorf("failed to set user state: %w", err)
	}
	return nil
}

func (r *PostgresUserStateRepository) GetState(ctx context.Context, userID int64) (*UserState, error) {
	var state UserState
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user state: %w", err)
	}
	return &state, nil
}

func (r *PostgresUserStateRepository) ClearState(ctx context.Context, userID int64) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&UserState{}).Error; err != nil {
		return fmt.Errorf("failed to clear user state: %w", err)
	}
	return nil
}
