package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PluginSettingsRepository interface {
	// Get returns nil without an error when nothing is stored for plugin.
	Get(ctx context.Context, plugin string) (*PluginSettings, error)
	Save(ctx context.Context, plugin string, version int, blob []byte) error
}

type PostgresPluginSettingsRepository struct {
	db *gorm.DB
}

func NewPluginSettingsRepository(db *gorm.DB) PluginSettingsRepository {
	return &PostgresPluginSettingsRepository{db: db}
}

func (r *PostgresPluginSettingsRepository) Get(ctx context.Context, plugin string) (*PluginSettings, error) {
	var row PluginSettings
	err := r.db.WithContext(ctx).First(&row, "plugin_name = ?", plugin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return &row, nil
}

func (r *PostgresPluginSettingsRepository) Save(ctx context.Context, plugin string, version int, blob []byte) error {
	row := PluginSettings{
		PluginName: plugin,
		Version:    version,
		Settings:   datatypes.JSON(blob),
		UpdatedAt:  time.Now(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "plugin_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "settings", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
