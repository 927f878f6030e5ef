package repository

import (
	"context"

	"investx/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepo struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

func (r *PaymentRepo) Create(ctx context.Context, p *models.PaymentRequest) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (r *PaymentRepo) Update(ctx context.Context, p *models.PaymentRequest) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error
}

func (r *PaymentRepo) GetByIDForUpdate(ctx context.Context, id uint) (*models.PaymentRequest, error) {
	var p models.PaymentRequest
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepo) ListByAccount(ctx context.Context, accountID uint, status string, limit, offset int) ([]models.PaymentRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.PaymentRequest{}).Where("account_id = ?", accountID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.PaymentRequest
	err := pageQuery(q, limit, offset).Order("request_date DESC").Find(&list).Error
	return list, total, err
}
