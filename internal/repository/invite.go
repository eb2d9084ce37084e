package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Invite link sources.
const (
	SourceInvite  = "invite"
	SourceVirtual = "virtual"
	SourceCaptcha = "captcha"
)

type InviteRepository interface {
	RecordJoin(ctx context.Context, link InviteLink, userID int64, at time.Time) error
	RecordLeave(ctx context.Context, chatID, userID int64, at time.Time) error
	MarkFirstMessage(ctx context.Context, chatID, userID int64, at time.Time) error
	TopLinks(ctx context.Context, chatID int64, limit int) ([]InviteLink, error)
}

type PostgresInviteRepository struct {
	db *gorm.DB
}

func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &PostgresInviteRepository{db: db}
}

// RecordJoin upserts the link counters and appends a click row for userID.
func (r *PostgresInviteRepository) RecordJoin(ctx context.Context, link InviteLink, userID int64, at time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		link.FirstClick = &at
		link.LastClick = &at
		link.TotalClicks = 1
		link.CreatedAt = at
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			err := tx.Model(&InviteLink{}).Where("link_url = ?", link.LinkURL).Updates(map[string]interface{}{
				"total_clicks": gorm.Expr("total_clicks + 1"),
				"last_click":   at,
			}).Error
			if err != nil {
				return err
			}
		}
		click := InviteClick{ChatID: link.ChatID, UserID: userID, LinkURL: link.LinkURL, JoinDate: at}
		return tx.Create(&click).Error
	})
	if err != nil {
		return fmt.Errorf("failed to record join: %w", err)
	}
	return nil
}

// RecordLeave closes the latest open click of the user, if any.
func (r *PostgresInviteRepository) RecordLeave(ctx context.Context, chatID, userID int64, at time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var click InviteClick
		err := tx.Where("chat_id = ? AND user_id = ? AND left_date IS NULL", chatID, userID).
			Order("join_date DESC").First(&click).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Model(&click).Update("left_date", at).Error; err != nil {
			return err
		}
		return tx.Model(&InviteLink{}).Where("link_url = ?", click.LinkURL).
			UpdateColumn("left_count", gorm.Expr("left_count + 1")).Error
	})
	if err != nil {
		return fmt.Errorf("failed to record leave: %w", err)
	}
	return nil
}

func (r *PostgresInviteRepository) MarkFirstMessage(ctx context.Context, chatID, userID int64, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&InviteClick{}).
		Where("chat_id = ? AND user_id = ? AND left_date IS NULL AND first_message_date IS NULL", chatID, userID).
		Update("first_message_date", at).Error
	if err != nil {
		return fmt.Errorf("failed to mark first message: %w", err)
	}
	return nil
}

func (r *PostgresInviteRepository) TopLinks(ctx context.Context, chatID int64, limit int) ([]InviteLink, error) {
	var links []InviteLink
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND is_archived = ?", chatID, false).
		Order("total_clicks DESC, id ASC").
		Limit(limit).
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get invite links: %w", err)
	}
	return links, nil
}
