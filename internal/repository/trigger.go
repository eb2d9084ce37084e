package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type TriggerRepository interface {
	ListActive(ctx context.Context) ([]Trigger, error)
	List(ctx context.Context) ([]Trigger, error)
	Create(ctx context.Context, phrases, response string) (*Trigger, error)
	Delete(ctx context.Context, id uint) error
	RecordHit(ctx context.Context, id uint, at time.Time) error
	Count(ctx context.Context) (int64, error)
}

type PostgresTriggerRepository struct {
	db *gorm.DB
}

func NewTriggerRepository(db *gorm.DB) TriggerRepository {
	return &PostgresTriggerRepository{db: db}
}

// SplitVariants turns a pipe-delimited phrase list into trimmed lower-case variants.
func SplitVariants(phrases string) []string {
	var out []string
	for _, v := range strings.Split(phrases, "|") {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (r *PostgresTriggerRepository) ListActive(ctx context.Context) ([]Trigger, error) {
	var triggers []Trigger
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("position ASC, id ASC").Find(&triggers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active triggers: %w", err)
	}
	return triggers, nil
}

func (r *PostgresTriggerRepository) List(ctx context.Context) ([]Trigger, error) {
	var triggers []Trigger
	if err := r.db.WithContext(ctx).Order("position ASC, id ASC").Find(&triggers).Error; err != nil {
		return nil, fmt.Errorf("failed to list triggers: %w", err)
	}
	return triggers, nil
}

func (r *PostgresTriggerRepository) Create(ctx context.Context, phrases, response string) (*Trigger, error) {
	variants := SplitVariants(phrases)
	if len(variants) == 0 || strings.TrimSpace(response) == "" {
		return nil, fmt.Errorf("failed to create trigger: empty phrase or response")
	}
	t := &Trigger{
		TriggerText:  phrases,
		Variants:     pq.StringArray(variants),
		ResponseText: response,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxPos int
		if err := tx.Model(&Trigger{}).Select("COALESCE(MAX(position), 0)").Scan(&maxPos).Error; err != nil {
			return err
		}
		t.Position = maxPos + 1
		return tx.Create(t).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create trigger: %w", err)
	}
	return t, nil
}

func (r *PostgresTriggerRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&Trigger{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete trigger: %w", err)
	}
	return nil
}

func (r *PostgresTriggerRepository) RecordHit(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&Trigger{}).Where("id = ?", id).Updates(map[string]interface{}{
		"trigger_count":  gorm.Expr("trigger_count + 1"),
		"last_triggered": at,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to record trigger hit: %w", err)
	}
	return nil
}

func (r *PostgresTriggerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Trigger{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count triggers: %w", err)
	}
	return count, nil
}
