package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatTopicRepository interface {
	SetName(ctx context.Context, chatID int64, topicID int, name string) error
	Touch(ctx context.Context, chatID int64, topicID int) error
	Name(ctx context.Context, chatID int64, topicID int) (string, error)
}

type PostgresChatTopicRepository struct {
	db *gorm.DB
}

func NewChatTopicRepository(db *gorm.DB) ChatTopicRepository {
	return &PostgresChatTopicRepository{db: db}
}

func (r *PostgresChatTopicRepository) SetName(ctx context.Context, chatID int64, topicID int, name string) error {
	topic := ChatTopic{ChatID: chatID, TopicID: topicID, TopicName: name, UpdatedAt: time.Now()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "topic_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"topic_name", "updated_at"}),
	}).Create(&topic).Error
	if err != nil {
		return fmt.Errorf("failed to set topic name: %w", err)
	}
	return nil
}

// Touch registers a topic seen in traffic without overwriting its name.
func (r *PostgresChatTopicRepository) Touch(ctx context.Context, chatID int64, topicID int) error {
	topic := ChatTopic{ChatID: chatID, TopicID: topicID, UpdatedAt: time.Now()}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&topic).Error; err != nil {
		return fmt.Errorf("failed to register topic: %w", err)
	}
	return nil
}

func (r *PostgresChatTopicRepository) Name(ctx context.Context, chatID int64, topicID int) (string, error) {
	var topic ChatTopic
	err := r.db.WithContext(ctx).Where("chat_id = ? AND topic_id = ?", chatID, topicID).First(&topic).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get topic: %w", err)
	}
	return topic.TopicName, nil
}
