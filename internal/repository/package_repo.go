package repository

import (
	"context"

	"investx/internal/models"

	"gorm.io/gorm"
)

type PackageRepo struct {
	db *gorm.DB
}

func NewPackageRepository(db *gorm.DB) *PackageRepo {
	return &PackageRepo{db: db}
}

func (r *PackageRepo) Create(ctx context.Context, p *models.InvestmentPackage) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PackageRepo) Update(ctx context.Context, p *models.InvestmentPackage) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *PackageRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.InvestmentPackage{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *PackageRepo) GetByID(ctx context.Context, id uint) (*models.InvestmentPackage, error) {
	var p models.InvestmentPackage
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PackageRepo) GetByName(ctx context.Context, name string) (*models.InvestmentPackage, error) {
	var p models.InvestmentPackage
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns packages ordered by minimum amount.
func (r *PackageRepo) List(ctx context.Context, activeOnly bool) ([]models.InvestmentPackage, error) {
	q := r.db.WithContext(ctx).Model(&models.InvestmentPackage{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var list []models.InvestmentPackage
	err := q.Order("min_amount ASC").Order("id ASC").Find(&list).Error
	return list, err
}

func (r *PackageRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.InvestmentPackage{}).Count(&n).Error
	return n, err
}
