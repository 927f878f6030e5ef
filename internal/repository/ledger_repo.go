package repository

import (
	"context"

	"investx/internal/models"

	"gorm.io/gorm"
)

type LedgerRepo struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

func (r *LedgerRepo) Create(ctx context.Context, e *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *LedgerRepo) ListByAccount(ctx context.Context, accountID uint, limit, offset int) ([]models.LedgerEntry, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).Where("account_id = ?", accountID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.LedgerEntry
	err := pageQuery(q, limit, offset).Order("id DESC").Find(&list).Error
	return list, total, err
}

func (r *LedgerRepo) SumByAccountAndType(ctx context.Context, accountID uint, entryType string) (int64, error) {
	var sum struct{ Total int64 }
	err := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("account_id = ? AND type = ?", accountID, entryType).
		Scan(&sum).Error
	return sum.Total, err
}
