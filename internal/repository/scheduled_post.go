package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPostNotFound   = errors.New("scheduled post not found")
	ErrPostNotPending = errors.New("scheduled post is not pending")
)

// DeliverFunc publishes a post and returns the resulting chat message id.
type DeliverFunc func(ctx context.Context, post *ScheduledPost) (int, error)

type ScheduledPostRepository interface {
	Create(ctx context.Context, post *ScheduledPost) error
	Get(ctx context.Context, id uint) (*ScheduledPost, error)
	ListPending(ctx context.Context, limit int) ([]ScheduledPost, error)
	EditPending(ctx context.Context, id uint, edit func(*ScheduledPost)) error
	MarkDeleted(ctx context.Context, id uint) error
	// ProcessDue delivers every pending post due at now inside one transaction.
	ProcessDue(ctx context.Context, now time.Time, deliver DeliverFunc) (published, failed int, err error)
}

type PostgresScheduledPostRepository struct {
	db *gorm.DB
}

func NewScheduledPostRepository(db *gorm.DB) ScheduledPostRepository {
	return &PostgresScheduledPostRepository{db: db}
}

func (r *PostgresScheduledPostRepository) Create(ctx context.Context, post *ScheduledPost) error {
	if post.Status == "" {
		post.Status = PostPending
	}
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("failed to create scheduled post: %w", err)
	}
	return nil
}

func (r *PostgresScheduledPostRepository) Get(ctx context.Context, id uint) (*ScheduledPost, error) {
	var post ScheduledPost
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get scheduled post: %w", err)
	}
	return &post, nil
}

func (r *PostgresScheduledPostRepository) ListPending(ctx context.Context, limit int) ([]ScheduledPost, error) {
	var posts []ScheduledPost
	err := r.db.WithContext(ctx).Where("status = ?", PostPending).
		Order("publish_time ASC, id ASC").Limit(limit).Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending posts: %w", err)
	}
	return posts, nil
}

func (r *PostgresScheduledPostRepository) EditPending(ctx context.Context, id uint, edit func(*ScheduledPost)) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post ScheduledPost
		if err := tx.First(&post, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return fmt.Errorf("failed to get scheduled post: %w", err)
		}
		if post.Status != PostPending {
			return ErrPostNotPending
		}
		edit(&post)
		post.Status = PostPending
		if err := tx.Save(&post).Error; err != nil {
			return fmt.Errorf("failed to update scheduled post: %w", err)
		}
		return nil
	})
}

func (r *PostgresScheduledPostRepository) MarkDeleted(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&ScheduledPost{}).Where("id = ?", id).Update("status", PostDeleted)
	if res.Error != nil {
		return fmt.Errorf("failed to delete scheduled post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *PostgresScheduledPostRepository) ProcessDue(ctx context.Context, now time.Time, deliver DeliverFunc) (int, int, error) {
	var published, failed int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var due []ScheduledPost
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? AND publish_time <= ?", PostPending, now).
			Order("publish_time ASC, id ASC").
			Find(&due).Error
		if err != nil {
			return fmt.Errorf("failed to select due posts: %w", err)
		}
		for i := range due {
			post := &due[i]
			msgID, sendErr := deliver(ctx, post)
			updates := map[string]interface{}{}
			if sendErr != nil {
				updates["status"] = PostFailed
				updates["last_error"] = sendErr.Error()
				failed++
			} else {
				updates["status"] = PostPublished
				updates["published_at"] = now
				updates["telegram_message_id"] = msgID
				published++
			}
			res := tx.Model(&ScheduledPost{}).
				Where("id = ? AND status = ?", post.ID, PostPending).
				Updates(updates)
			if res.Error != nil {
				return fmt.Errorf("failed to update post %d: %w", post.ID, res.Error)
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return published, failed, nil
}
