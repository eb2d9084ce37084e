package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReputationRepository interface {
	// Change applies delta to the target's score and returns the new score.
	Change(ctx context.Context, chatID, actorID, targetID int64, delta int) (int, error)
	Score(ctx context.Context, chatID, userID int64) (int, error)
	Top(ctx context.Context, chatID int64, limit int) ([]Reputation, error)
}

type PostgresReputationRepository struct {
	db *gorm.DB
}

func NewReputationRepository(db *gorm.DB) ReputationRepository {
	return &PostgresReputationRepository{db: db}
}

func (r *PostgresReputationRepository) Change(ctx context.Context, chatID, actorID, targetID int64, delta int) (int, error) {
	var score int
	now := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := Reputation{ChatID: chatID, UserID: targetID, UpdatedAt: now}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return err
		}
		err := tx.Model(&Reputation{}).
			Where("chat_id = ? AND user_id = ?", chatID, targetID).
			Updates(map[string]interface{}{"score": gorm.Expr("score + ?", delta), "updated_at": now}).Error
		if err != nil {
			return err
		}
		entry := ReputationLog{ChatID: chatID, ActorID: actorID, TargetID: targetID, Delta: delta, CreatedAt: now}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return tx.Model(&Reputation{}).Select("score").
			Where("chat_id = ? AND user_id = ?", chatID, targetID).Scan(&score).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to change reputation: %w", err)
	}
	return score, nil
}

func (r *PostgresReputationRepository) Score(ctx context.Context, chatID, userID int64) (int, error) {
	var rep Reputation
	err := r.db.WithContext(ctx).Where("chat_id = ? AND user_id = ?", chatID, userID).First(&rep).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get reputation: %w", err)
	}
	return rep.Score, nil
}

func (r *PostgresReputationRepository) Top(ctx context.Context, chatID int64, limit int) ([]Reputation, error) {
	var top []Reputation
	err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).
		Order("score DESC, updated_at ASC").Limit(limit).Find(&top).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get top reputation: %w", err)
	}
	return top, nil
}
