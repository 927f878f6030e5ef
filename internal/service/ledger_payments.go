package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"investx/internal/apperr"
	"investx/internal/domain"
	"investx/internal/models"
	"investx/internal/repository"

	"github.com/google/uuid"
)

type SubmitPaymentInput struct {
	AccountID            uint
	Amount               int64
	TransactionReference string
	Notes                string
	Proof                io.Reader // optional screenshot
}

// SubmitPayment records a mobile-money transfer for an admin to confirm. The balance does not move yet.
func (s *LedgerService) SubmitPayment(ctx context.Context, in SubmitPaymentInput) (*models.PaymentRequest, error) {
	if err := checkAmount(in.Amount); err != nil {
		return nil, err
	}

	var proofURL string
	if in.Proof != nil {
		if s.uploader == nil {
			return nil, apperr.ErrUpload.WithMessage("screenshot uploads are not configured")
		}
		url, _, err := s.uploader.UploadImage(ctx, in.Proof, s.proofFolder, "proof-"+uuid.NewString())
		if err != nil {
			return nil, apperr.ErrUpload.WithError(err)
		}
		proofURL = url
	}

	var out *models.PaymentRequest
	err := s.run(ctx, "submit_payment", in.Amount, func(tx repository.Repos, fx *effects) error {
		a, err := tx.Accounts().GetByID(ctx, in.AccountID)
		if err != nil {
			return apperr.NotFoundOr(err, apperr.ErrAccountNotFound)
		}
		kind := domain.PaymentTypeTopUp
		if !a.IsActive {
			kind = domain.PaymentTypeActivation
		}
		p := &models.PaymentRequest{
			AccountID:            a.ID,
			Amount:               in.Amount,
			Status:               domain.RequestPending,
			PaymentMethod:        domain.PaymentMethodMobileMoney,
			PaymentType:          kind,
			TransactionReference: strings.TrimSpace(in.TransactionReference),
			ProofURL:             proofURL,
			Notes:                strings.TrimSpace(in.Notes),
			RequestDate:          s.stamp(),
		}
		if err := tx.Payments().Create(ctx, p); err != nil {
			return apperr.Storage(err)
		}
		out = p
		return nil
	})
	return out, err
}

func lockPayment(ctx context.Context, tx repository.Repos, id uint) (*models.PaymentRequest, error) {
	p, err := tx.Payments().GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, apperr.NotFoundOr(err, apperr.ErrPaymentNotFound)
	}
	if p.Status != domain.RequestPending {
		return nil, apperr.ErrInvalidTransition.WithDetails(map[string]interface{}{"status": p.Status})
	}
	return p, nil
}

// ApprovePayment credits the account, activates it and pays a pending referral bonus.
func (s *LedgerService) ApprovePayment(ctx context.Context, paymentID, adminID uint) (*models.PaymentRequest, error) {
	bonus := s.policy.Current(ctx).ReferralBonus
	var out *models.PaymentRequest
	err := s.run(ctx, "approve_payment", 0, func(tx repository.Repos, fx *effects) error {
		p, err := lockPayment(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		a, err := lockAccount(ctx, tx, p.AccountID)
		if err != nil {
			return err
		}
		wasActive := a.IsActive
		if err := s.activate(ctx, tx, a, bonus, fx); err != nil {
			return err
		}
		if err := credit(ctx, tx, a, p.Amount, domain.LedgerDeposit, paymentRef(p.ID)); err != nil {
			return err
		}

		now := s.stamp()
		p.Status = domain.RequestApproved
		p.ProcessedDate = &now
		p.ProcessedBy = &adminID
		if err := tx.Payments().Update(ctx, p); err != nil {
			return apperr.Storage(err)
		}

		fx.touch(a)
		accountID, amount, id := a.ID, p.Amount, p.ID
		fx.notify(func(ctx context.Context, n Notifier) error {
			return n.NotifyPaymentApproved(ctx, accountID, amount, id)
		})
		if !wasActive {
			fx.notify(func(ctx context.Context, n Notifier) error {
				return n.NotifyAccountStatus(ctx, accountID, true)
			})
		}
		out = p
		return nil
	})
	return out, err
}

func (s *LedgerService) RejectPayment(ctx context.Context, paymentID, adminID uint, reason string) (*models.PaymentRequest, error) {
	var out *models.PaymentRequest
	err := s.run(ctx, "reject_payment", 0, func(tx repository.Repos, fx *effects) error {
		p, err := lockPayment(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		now := s.stamp()
		p.Status = domain.RequestRejected
		p.RejectionReason = strings.TrimSpace(reason)
		p.ProcessedDate = &now
		p.ProcessedBy = &adminID
		if err := tx.Payments().Update(ctx, p); err != nil {
			return apperr.Storage(err)
		}
		accountID, amount, id, why := p.AccountID, p.Amount, p.ID, p.RejectionReason
		fx.notify(func(ctx context.Context, n Notifier) error {
			return n.NotifyPaymentRejected(ctx, accountID, amount, id, why)
		})
		out = p
		return nil
	})
	return out, err
}

// CreditManual is an admin top-up without a pending request. It is recorded as an approved manual payment.
func (s *LedgerService) CreditManual(ctx context.Context, accountID uint, amount int64, notes string, adminID uint) (*models.Account, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	bonus := s.policy.Current(ctx).ReferralBonus
	var out *models.Account
	err := s.run(ctx, "manual_credit", amount, func(tx repository.Repos, fx *effects) error {
		a, err := lockAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		now := s.stamp()
		p := &models.PaymentRequest{
			AccountID:     a.ID,
			Amount:        amount,
			Status:        domain.RequestApproved,
			PaymentMethod: domain.PaymentMethodManual,
			PaymentType:   domain.PaymentTypeManualCredit,
			Notes:         strings.TrimSpace(notes),
			RequestDate:   now,
			ProcessedDate: &now,
			ProcessedBy:   &adminID,
		}
		if err := tx.Payments().Create(ctx, p); err != nil {
			return apperr.Storage(err)
		}
		if err := s.activate(ctx, tx, a, bonus, fx); err != nil {
			return err
		}
		if err := credit(ctx, tx, a, amount, domain.LedgerManualCredit, paymentRef(p.ID)); err != nil {
			return err
		}
		fx.touch(a)
		id := a.ID
		fx.notify(func(ctx context.Context, n Notifier) error {
			return n.NotifyManualCredit(ctx, id, amount)
		})
		out = a
		return nil
	})
	return out, err
}

func paymentRef(id uint) string {
	return fmt.Sprintf("payment:%d", id)
}
