package repository

import (
	"context"

	"investx/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepository) ListByAccountID(ctx context.Context, accountID uint, limit, offset int) ([]models.Notification, error) {
	var list []models.Notification
	err := pageQuery(r.db.WithContext(ctx).Where("account_id = ?", accountID), limit, offset).
		Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *NotificationRepository) CountUnread(ctx context.Context, accountID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("account_id = ? AND read_at IS NULL", accountID).Count(&n).Error
	return n, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, accountID uint) error {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND account_id = ?", id, accountID).
		Update("read_at", gorm.Expr("CURRENT_TIMESTAMP"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
