package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type AdminRepository interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	AddAdmin(ctx context.Context, userID int64, role string) error
	RemoveAdmin(ctx context.Context, userID int64) error
	ListAdmins(ctx context.Context) ([]Admin, error)
}

type PostgresAdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &PostgresAdminRepository{db: db}
}

func (r *PostgresAdminRepository) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Admin{}).Where("telegram_id = ?", userID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check admin status: %w", err)
	}
	return count > 0, nil
}

func (r *PostgresAdminRepository) AddAdmin(ctx context.Context, userID int64, role string) error {
	if role == "" {
		role = "admin"
	}
	admin := Admin{TelegramID: userID, Role: role}
	if err := r.db.WithContext(ctx).Where(Admin{TelegramID: userID}).FirstOrCreate(&admin).Error; err != nil {
		return fmt.Errorf("failed to add admin: %w", err)
	}
	return nil
}

func (r *PostgresAdminRepository) RemoveAdmin(ctx context.Context, userID int64) error {
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", userID).Delete(&Admin{}).Error; err != nil {
		return fmt.Errorf("failed to remove admin: %w", err)
	}
	return nil
}

func (r *PostgresAdminRepository) ListAdmins(ctx context.Context) ([]Admin, error) {
	var admins []Admin
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&admins).Error; err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	return admins, nil
}
