package repository

import (
	"context"

	"investx/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccountRepo struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) Create(ctx context.Context, a *models.Account) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AccountRepo) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	var a models.Account
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) GetByIDForUpdate(ctx context.Context, id uint) (*models.Account, error) {
	var a models.Account
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) GetByPhone(ctx context.Context, phone string) (*models.Account, error) {
	var a models.Account
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// Update saves every column. It refuses to persist negative balances or totals.
func (r *AccountRepo) Update(ctx context.Context, a *models.Account) error {
	if a.Balance < 0 || a.TotalInvested < 0 || a.TotalEarned < 0 {
		return ErrNegativeBalance
	}
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *AccountRepo) SetFCMToken(ctx context.Context, id uint, token string) error {
	return r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Update("fcm_token", token).Error
}
