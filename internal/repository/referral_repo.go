package repository

import (
	"context"
	"crypto/rand"
	"math/big"

	"investx/internal/domain"
	"investx/internal/models"

	"gorm.io/gorm"
)

const referralAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateReferralCode returns a random uppercase alphanumeric code. Uniqueness is checked by the caller.
func GenerateReferralCode() (string, error) {
	b := make([]byte, domain.ReferralCodeLength)
	max := big.NewInt(int64(len(referralAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = referralAlphabet[n.Int64()]
	}
	return string(b), nil
}

func (r *AccountRepo) GetByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	var a models.Account
	if err := r.db.WithContext(ctx).Where("referral_code = ?", code).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// IncrementReferralCount atomically bumps the referrer's counter.
func (r *AccountRepo) IncrementReferralCount(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		UpdateColumn("referral_count", gorm.Expr("referral_count + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListReferred returns accounts registered with the given code, newest first.
func (r *AccountRepo) ListReferred(ctx context.Context, code string) ([]models.Account, error) {
	var list []models.Account
	err := r.db.WithContext(ctx).Where("referred_by = ?", code).Order("created_at DESC").Find(&list).Error
	return list, err
}
