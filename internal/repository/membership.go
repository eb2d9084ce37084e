package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Membership event types derived from status transitions.
const (
	MemberJoin   = "join"
	MemberLeave  = "leave"
	MemberBan    = "ban"
	MemberUnban  = "unban"
	MemberMute   = "mute"
	MemberUnmute = "unmute"
)

type MembershipRepository interface {
	LogEvent(ctx context.Context, ev *MembershipEvent) error
	CountByType(ctx context.Context, chatID int64, eventType string) (int64, error)
}

type PostgresMembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &PostgresMembershipRepository{db: db}
}

func (r *PostgresMembershipRepository) LogEvent(ctx context.Context, ev *MembershipEvent) error {
	if err := r.db.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("failed to log membership event: %w", err)
	}
	return nil
}

func (r *PostgresMembershipRepository) CountByType(ctx context.Context, chatID int64, eventType string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&MembershipEvent{}).
		Where("chat_id = ? AND event_type = ?", chatID, eventType).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count membership events: %w", err)
	}
	return count, nil
}
