package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"investx/internal/apperr"
	"investx/internal/domain"
	"investx/internal/logger"
	"investx/internal/metrics"
	"investx/internal/models"
	"investx/internal/repository"
	"investx/pkg/money"

	"gorm.io/gorm"
)

const settleBatch = 200

// Invest moves amount from the balance into a new active investment.
func (s *LedgerService) Invest(ctx context.Context, accountID, packageID uint, amount int64) (*models.Investment, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	var out *models.Investment
	err := s.run(ctx, "invest", amount, func(tx repository.Repos, fx *effects) error {
		a, err := lockAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if !a.IsActive {
			return apperr.ErrAccountInactive
		}
		p, err := tx.Packages().GetByID(ctx, packageID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrPackageUnavailable.WithDetails(map[string]interface{}{"package_id": packageID})
			}
			return apperr.Storage(err)
		}
		if !p.IsActive {
			return apperr.ErrPackageUnavailable.WithDetails(map[string]interface{}{"package_id": packageID})
		}
		if !p.InRange(amount) {
			return apperr.ErrAmountOutOfRange.WithDetails(map[string]interface{}{
				"min_amount": p.MinAmount,
				"max_amount": p.MaxAmount,
			})
		}
		if amount > a.Balance {
			return apperr.ErrInsufficientBalance.WithDetails(map[string]interface{}{
				"balance":   a.Balance,
				"requested": amount,
			})
		}
		if p.MaxUses > 0 {
			used, err := tx.Investments().CountByAccountAndPackage(ctx, a.ID, p.ID)
			if err != nil {
				return apperr.Storage(err)
			}
			if used >= int64(p.MaxUses) {
				return apperr.ErrPackageLimitReached.WithDetails(map[string]interface{}{"max_uses": p.MaxUses})
			}
		}

		expected, err := money.ExpectedReturn(amount, p.ProfitPercentage)
		if err != nil {
			return apperr.ErrAmountTooLarge.WithError(err).WithDetails(map[string]interface{}{"max_amount": money.MaxAmount})
		}
		start := s.stamp()
		inv := &models.Investment{
			AccountID:      a.ID,
			PackageID:      p.ID,
			Amount:         amount,
			ExpectedReturn: expected,
			StartDate:      start,
			EndDate:        start.AddDate(0, 0, p.DurationDays),
			Status:         domain.InvestmentActive,
		}
		if err := tx.Investments().Create(ctx, inv); err != nil {
			return apperr.Storage(err)
		}
		a.TotalInvested += amount
		if err := debit(ctx, tx, a, amount, domain.LedgerInvestment, fmt.Sprintf("investment:%d", inv.ID)); err != nil {
			return err
		}
		inv.Package = p
		fx.touch(a)
		out = inv
		return nil
	})
	return out, err
}

// SettleDue pays out every active investment whose end date has passed. accountID 0 settles all accounts.
// Each investment settles in its own transaction, so one failure does not hold back the rest.
func (s *LedgerService) SettleDue(ctx context.Context, accountID uint) (int, error) {
	start := time.Now()
	settled := 0
	for {
		due, err := s.store.Investments().ListDue(ctx, accountID, s.stamp(), settleBatch)
		if err != nil {
			return settled, apperr.Storage(err)
		}
		progressed := 0
		for _, inv := range due {
			if err := ctx.Err(); err != nil {
				return settled, apperr.ErrCanceled.WithError(err)
			}
			ok, err := s.settleOne(ctx, inv.ID)
			if err != nil {
				logger.Error().Err(err).Uint("investment_id", inv.ID).Msg("settlement failed")
				continue
			}
			if ok {
				settled++
				progressed++
			}
		}
		if len(due) < settleBatch || progressed == 0 {
			break
		}
	}
	metrics.RecordSettled(settled)
	if accountID == 0 {
		metrics.RecordSettlementRun(time.Since(start))
	}
	return settled, nil
}

// settleOne re-reads the investment under lock; a concurrent settlement that got there first makes this a no-op.
func (s *LedgerService) settleOne(ctx context.Context, investmentID uint) (bool, error) {
	settled := false
	var payout int64
	err := s.run(ctx, "settle_investment", 0, func(tx repository.Repos, fx *effects) error {
		inv, err := tx.Investments().GetByIDForUpdate(ctx, investmentID)
		if err != nil {
			return apperr.NotFoundOr(err, apperr.ErrNotFound.WithMessage("investment not found"))
		}
		now := s.stamp()
		if !inv.Due(now) {
			return nil
		}
		a, err := lockAccount(ctx, tx, inv.AccountID)
		if err != nil {
			return err
		}
		a.TotalEarned += inv.Profit()
		if err := credit(ctx, tx, a, inv.ExpectedReturn, domain.LedgerMaturityPayout, fmt.Sprintf("investment:%d", inv.ID)); err != nil {
			return err
		}
		inv.Status = domain.InvestmentCompleted
		inv.CompletedAt = &now
		if err := tx.Investments().Update(ctx, inv); err != nil {
			return apperr.Storage(err)
		}
		fx.touch(a)
		accountID, id := a.ID, inv.ID
		payout = inv.ExpectedReturn
		fx.notify(func(ctx context.Context, n Notifier) error {
			return n.NotifyInvestmentMatured(ctx, accountID, id, payout)
		})
		settled = true
		return nil
	})
	return settled, err
}
