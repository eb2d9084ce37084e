package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrPollNotFound = errors.New("poll not found")

type PollRepository interface {
	Create(ctx context.Context, poll *Poll) error
	SetMessageID(ctx context.Context, pollID string, messageID int) error
	Get(ctx context.Context, pollID string) (*Poll, error)
	// Vote stores the first vote of userID; later votes report false.
	Vote(ctx context.Context, pollID string, userID int64, option int) (bool, error)
	Counts(ctx context.Context, pollID string) (map[int]int, error)
	LogAnswer(ctx context.Context, answer *PollAnswer) error
}

type PostgresPollRepository struct {
	db *gorm.DB
}

func NewPollRepository(db *gorm.DB) PollRepository {
	return &PostgresPollRepository{db: db}
}

func (r *PostgresPollRepository) Create(ctx context.Context, poll *Poll) error {
	if err := r.db.WithContext(ctx).Create(poll).Error; err != nil {
		return fmt.Errorf("failed to create poll: %w", err)
	}
	return nil
}

func (r *PostgresPollRepository) SetMessageID(ctx context.Context, pollID string, messageID int) error {
	if err := r.db.WithContext(ctx).Model(&Poll{}).Where("id = ?", pollID).Update("message_id", messageID).Error; err != nil {
		return fmt.Errorf("failed to set poll message: %w", err)
	}
	return nil
}

func (r *PostgresPollRepository) Get(ctx context.Context, pollID string) (*Poll, error) {
	var poll Poll
	if err := r.db.WithContext(ctx).Where("id = ?", pollID).First(&poll).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	return &poll, nil
}

func (r *PostgresPollRepository) Vote(ctx context.Context, pollID string, userID int64, option int) (bool, error) {
	vote := PollVote{PollID: pollID, UserID: userID, OptionIndex: option, CreatedAt: time.Now()}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&vote)
	if res.Error != nil {
		return false, fmt.Errorf("failed to store vote: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *PostgresPollRepository) Counts(ctx context.Context, pollID string) (map[int]int, error) {
	var rows []struct {
		OptionIndex int
		Votes       int
	}
	err := r.db.WithContext(ctx).Model(&PollVote{}).
		Select("option_index, COUNT(*) AS votes").
		Where("poll_id = ?", pollID).
		Group("option_index").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}
	counts := make(map[int]int, len(rows))
	for _, row := range rows {
		counts[row.OptionIndex] = row.Votes
	}
	return counts, nil
}

func (r *PostgresPollRepository) LogAnswer(ctx context.Context, answer *PollAnswer) error {
	if err := r.db.WithContext(ctx).Create(answer).Error; err != nil {
		return fmt.Errorf("failed to log poll answer: %w", err)
	}
	return nil
}
