package service

import (
	"context"
	"strings"
	"time"

	"investx/internal/apperr"
	"investx/internal/domain"
	"investx/internal/models"
	"investx/internal/repository"
	"investx/pkg/money"

	"github.com/google/uuid"
)

// RequestWithdrawal debits the full amount now; the fee only affects what is paid out.
// Checks run in a fixed order: referrals, minimum, balance, business day.
func (s *LedgerService) RequestWithdrawal(ctx context.Context, accountID uint, amount int64) (*models.WithdrawalRequest, error) {
	policy := s.policy.Current(ctx)
	if err := checkAmount(amount); err != nil {
		return nil, err
	}

	var out *models.WithdrawalRequest
	err := s.run(ctx, "request_withdrawal", amount, func(tx repository.Repos, fx *effects) error {
		a, err := lockAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if !a.WithdrawalEligible() {
			return apperr.ErrReferralRequirement.WithDetails(map[string]interface{}{
				"referral_count":     a.ReferralCount,
				"referrals_required": a.ReferralsRequiredForWithdrawal,
			})
		}
		if amount < policy.MinWithdrawal {
			return apperr.ErrAmountBelowMinimum.WithDetails(map[string]interface{}{"min_withdrawal": policy.MinWithdrawal})
		}
		if amount > a.Balance {
			return apperr.ErrInsufficientBalance.WithDetails(map[string]interface{}{
				"balance":   a.Balance,
				"requested": amount,
			})
		}
		if !IsBusinessDay(s.now(), s.loc) {
			return apperr.ErrNonBusinessDay
		}

		fee, net := money.Fee(amount, policy.WithdrawalFeePercent)
		w := &models.WithdrawalRequest{
			AccountID:   a.ID,
			Reference:   "wd-" + uuid.NewString(),
			Amount:      amount,
			Fee:         fee,
			NetAmount:   net,
			Status:      domain.RequestPending,
			RequestDate: s.stamp(),
		}
		if err := tx.Withdrawals().Create(ctx, w); err != nil {
			return apperr.Storage(err)
		}
		if err := debit(ctx, tx, a, amount, domain.LedgerWithdrawal, w.Reference); err != nil {
			return err
		}
		fx.touch(a)
		out = w
		return nil
	})
	return out, err
}

func lockWithdrawal(ctx context.Context, tx repository.Repos, id uint) (*models.WithdrawalRequest, error) {
	w, err := tx.Withdrawals().GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, apperr.NotFoundOr(err, apperr.ErrWithdrawalNotFound)
	}
	if w.Status != domain.RequestPending {
		return nil, apperr.ErrInvalidTransition.WithDetails(map[string]interface{}{"status": w.Status})
	}
	return w, nil
}

// ApproveWithdrawal records that the payout was sent. The balance already moved at request time.
func (s *LedgerService) ApproveWithdrawal(ctx context.Context, withdrawalID, adminID uint) (*models.WithdrawalRequest, error) {
	var out *models.WithdrawalRequest
	err := s.run(ctx, "approve_withdrawal", 0, func(tx repository.Repos, fx *effects) error {
		w, err := lockWithdrawal(ctx, tx, withdrawalID)
		if err != nil {
			return err
		}
		now := s.stamp()
		w.Status = domain.RequestApproved
		w.ProcessedDate = &now
		w.ProcessedBy = &adminID
		if err := tx.Withdrawals().Update(ctx, w); err != nil {
			return apperr.Storage(err)
		}
		accountID, net, ref := w.AccountID, w.NetAmount, w.Reference
		fx.notify(func(ctx context.Context, n Notifier) error {
			return n.NotifyWithdrawalApproved(ctx, accountID, net, ref)
		})
		out = w
		return nil
	})
	return out, err
}

// RejectWithdrawal returns the full requested amount to the balance.
func (s *LedgerService) RejectWithdrawal(ctx context.Context, withdrawalID, adminID uint, reason string) (*models.WithdrawalRequest, error) {
	var out *models.WithdrawalRequest
	err := s.run(ctx, "reject_withdrawal", 0, func(tx repository.Repos, fx *effects) error {
		w, err := lockWithdrawal(ctx, tx, withdrawalID)
		if err != nil {
			return err
		}
		a, err := lockAccount(ctx, tx, w.AccountID)
		if err != nil {
			return err
		}
		if err := credit(ctx, tx, a, w.Amount, domain.LedgerWithdrawalReversal, w.Reference); err != nil {
			return err
		}
		now := s.stamp()
		w.Status = domain.RequestRejected
		w.RejectionReason = strings.TrimSpace(reason)
		w.ProcessedDate = &now
		w.ProcessedBy = &adminID
		if err := tx.Withdrawals().Update(ctx, w); err != nil {
			return apperr.Storage(err)
		}
		fx.touch(a)
		accountID, amount, ref, why := a.ID, w.Amount, w.Reference, w.RejectionReason
		fx.notify(func(ctx context.Context, n Notifier) error {
			return n.NotifyWithdrawalRejected(ctx, accountID, amount, ref, why)
		})
		out = w
		return nil
	})
	return out, err
}

// IsBusinessDay reports whether t falls on Monday to Friday in loc.
func IsBusinessDay(t time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	switch t.In(loc).Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return true
}
