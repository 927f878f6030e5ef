package repository

import (
	"context"

	"investx/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WithdrawalRepo struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepo {
	return &WithdrawalRepo{db: db}
}

func (r *WithdrawalRepo) Create(ctx context.Context, w *models.WithdrawalRequest) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(w).Error
}

func (r *WithdrawalRepo) Update(ctx context.Context, w *models.WithdrawalRequest) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(w).Error
}

func (r *WithdrawalRepo) GetByIDForUpdate(ctx context.Context, id uint) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&w, id).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WithdrawalRepo) ListByAccount(ctx context.Context, accountID uint, status string, limit, offset int) ([]models.WithdrawalRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.WithdrawalRequest{}).Where("account_id = ?", accountID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.WithdrawalRequest
	err := pageQuery(q, limit, offset).Order("request_date DESC").Find(&list).Error
	return list, total, err
}
