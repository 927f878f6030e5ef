package repository

import (
	"context"
	"time"

	"investx/internal/models"

	"gorm.io/gorm"
)

type AdminUserRepository struct {
	db *gorm.DB
}

func NewAdminUserRepository(db *gorm.DB) *AdminUserRepository {
	return &AdminUserRepository{db: db}
}

func (r *AdminUserRepository) Create(ctx context.Context, u *models.AdminUser) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *AdminUserRepository) GetByID(ctx context.Context, id uint) (*models.AdminUser, error) {
	var u models.AdminUser
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *AdminUserRepository) GetByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	var u models.AdminUser
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *AdminUserRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.db.WithContext(ctx).Model(&models.AdminUser{}).Where("id = ?", id).Update("password_hash", hash).Error
}

func (r *AdminUserRepository) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.AdminUser{}).Where("id = ?", id).Update("last_login", at).Error
}
