package repository

import (
	"context"
	"time"

	"investx/internal/domain"
	"investx/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvestmentRepo struct {
	db *gorm.DB
}

func NewInvestmentRepository(db *gorm.DB) *InvestmentRepo {
	return &InvestmentRepo{db: db}
}

func (r *InvestmentRepo) Create(ctx context.Context, inv *models.Investment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(inv).Error
}

func (r *InvestmentRepo) Update(ctx context.Context, inv *models.Investment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(inv).Error
}

func (r *InvestmentRepo) GetByIDForUpdate(ctx context.Context, id uint) (*models.Investment, error) {
	var inv models.Investment
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&inv, id).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// CountByAccountAndPackage counts every investment, whatever its status, toward the package usage limit.
func (r *InvestmentRepo) CountByAccountAndPackage(ctx context.Context, accountID, packageID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Investment{}).
		Where("account_id = ? AND package_id = ?", accountID, packageID).
		Count(&n).Error
	return n, err
}

func (r *InvestmentRepo) CountByPackage(ctx context.Context, packageID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Investment{}).Where("package_id = ?", packageID).Count(&n).Error
	return n, err
}

func (r *InvestmentRepo) ListByAccount(ctx context.Context, accountID uint, status string, limit, offset int) ([]models.Investment, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Investment{}).Where("account_id = ?", accountID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Investment
	err := pageQuery(q, limit, offset).Preload("Package").Order("created_at DESC").Find(&list).Error
	return list, total, err
}

func (r *InvestmentRepo) ListDue(ctx context.Context, accountID uint, now time.Time, limit int) ([]models.Investment, error) {
	q := r.db.WithContext(ctx).Where("status = ? AND end_date <= ?", domain.InvestmentActive, now)
	if accountID != 0 {
		q = q.Where("account_id = ?", accountID)
	}
	var list []models.Investment
	err := pageQuery(q, limit, 0).Order("end_date ASC").Find(&list).Error
	return list, err
}
