package service

import (
	"context"
	"errors"
	"fmt"

	"investx/internal/apperr"
	"investx/internal/domain"
	"investx/internal/logger"
	"investx/internal/models"
	"investx/internal/repository"

	"gorm.io/gorm"
)

// activate flips a to active. The first activation of a referred account pays the referrer's bonus
// inside the same transaction; ReferralBonusPaid keeps it to one payment per referred account.
func (s *LedgerService) activate(ctx context.Context, tx repository.Repos, a *models.Account, bonus int64, fx *effects) error {
	wasActive := a.IsActive
	a.IsActive = true
	if wasActive || a.ReferredBy == nil || *a.ReferredBy == "" || a.ReferralBonusPaid || bonus <= 0 {
		return nil
	}

	found, err := tx.Accounts().GetByReferralCode(ctx, *a.ReferredBy)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn().Uint("account_id", a.ID).Str("code", *a.ReferredBy).Msg("referrer no longer exists, bonus skipped")
			return nil
		}
		return apperr.Storage(err)
	}
	if found.ID == a.ID {
		return nil
	}
	referrer, err := lockAccount(ctx, tx, found.ID)
	if err != nil {
		return err
	}
	referrer.TotalEarned += bonus
	if err := credit(ctx, tx, referrer, bonus, domain.LedgerReferralBonus, fmt.Sprintf("referral:%d", a.ID)); err != nil {
		return err
	}
	a.ReferralBonusPaid = true

	fx.touch(referrer)
	referrerID, name := referrer.ID, a.Name
	fx.notify(func(ctx context.Context, n Notifier) error {
		return n.NotifyReferralBonus(ctx, referrerID, bonus, name)
	})
	return nil
}

// SetAccountActive is the admin toggle. Activating for the first time pays any pending referral bonus.
func (s *LedgerService) SetAccountActive(ctx context.Context, accountID uint, active bool) (*models.Account, error) {
	bonus := s.policy.Current(ctx).ReferralBonus
	var out *models.Account
	err := s.run(ctx, "set_account_active", 0, func(tx repository.Repos, fx *effects) error {
		a, err := lockAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if a.IsActive == active {
			out = a
			return nil
		}
		if active {
			if err := s.activate(ctx, tx, a, bonus, fx); err != nil {
				return err
			}
		} else {
			a.IsActive = false
		}
		if err := tx.Accounts().Update(ctx, a); err != nil {
			return apperr.Storage(err)
		}
		fx.touch(a)
		id := a.ID
		fx.notify(func(ctx context.Context, n Notifier) error {
			return n.NotifyAccountStatus(ctx, id, active)
		})
		out = a
		return nil
	})
	return out, err
}
