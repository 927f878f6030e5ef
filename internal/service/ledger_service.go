package service

import (
	"context"
	"time"

	"investx/internal/apperr"
	"investx/internal/logger"
	"investx/internal/metrics"
	"investx/internal/models"
	"investx/internal/repository"
	"investx/pkg/money"
)

// LedgerService owns every balance movement. Each public operation is one Store.Atomic call
// with the affected account rows locked; notifications and pushes happen only after commit.
type LedgerService struct {
	store       repository.Store
	policy      *PolicyService
	notifier    Notifier
	publisher   AccountPublisher
	uploader    ProofUploader
	proofFolder string
	loc         *time.Location
	now         func() time.Time
}

type LedgerOptions struct {
	Notifier    Notifier
	Publisher   AccountPublisher
	Uploader    ProofUploader // nil disables proof screenshots
	ProofFolder string
	Location    *time.Location // business calendar for withdrawals
	Now         func() time.Time
}

func NewLedgerService(store repository.Store, policy *PolicyService, opts LedgerOptions) *LedgerService {
	s := &LedgerService{
		store:       store,
		policy:      policy,
		notifier:    opts.Notifier,
		publisher:   opts.Publisher,
		uploader:    opts.Uploader,
		proofFolder: opts.ProofFolder,
		loc:         opts.Location,
		now:         opts.Now,
	}
	if s.publisher == nil {
		s.publisher = nopPublisher{}
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// effects collects what to announce once the transaction has committed.
type effects struct {
	accounts map[uint]*models.Account
	notes    []func(ctx context.Context, n Notifier) error
}

func (e *effects) touch(a *models.Account) {
	if e.accounts == nil {
		e.accounts = map[uint]*models.Account{}
	}
	snapshot := *a
	e.accounts[a.ID] = &snapshot
}

func (e *effects) notify(fn func(ctx context.Context, n Notifier) error) {
	e.notes = append(e.notes, fn)
}

// run executes fn atomically, records the outcome metric and flushes effects on success.
func (s *LedgerService) run(ctx context.Context, op string, amount int64, fn func(tx repository.Repos, fx *effects) error) error {
	fx := &effects{}
	err := s.store.Atomic(ctx, func(tx repository.Repos) error {
		return fn(tx, fx)
	})
	if err != nil {
		err = apperr.Storage(err)
		appErr, _ := apperr.AsAppError(err)
		metrics.RecordLedgerOperation(op, appErr.Code, amount)
		if appErr.Kind == apperr.KindInfrastructure {
			logger.Error().Err(err).Str("op", op).Msg("ledger operation failed")
		}
		return err
	}
	metrics.RecordLedgerOperation(op, "ok", amount)
	s.flush(ctx, op, fx)
	return nil
}

func (s *LedgerService) flush(ctx context.Context, op string, fx *effects) {
	for _, a := range fx.accounts {
		s.publisher.PublishAccount(a)
	}
	if s.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, note := range fx.notes {
		if err := note(ctx, s.notifier); err != nil {
			logger.Warn().Err(err).Str("op", op).Msg("notification failed")
		}
	}
}

func lockAccount(ctx context.Context, tx repository.Repos, id uint) (*models.Account, error) {
	a, err := tx.Accounts().GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, apperr.NotFoundOr(err, apperr.ErrAccountNotFound)
	}
	return a, nil
}

// checkAmount bounds a requested amount to (0, money.MaxAmount].
func checkAmount(amount int64) error {
	if amount <= 0 {
		return apperr.ErrInvalidAmount
	}
	if amount > money.MaxAmount {
		return apperr.ErrAmountTooLarge.WithDetails(map[string]interface{}{"max_amount": money.MaxAmount})
	}
	return nil
}

// credit adds amount to the balance, persists the account and writes the ledger entry.
// Callers adjust totals on a before calling.
func credit(ctx context.Context, tx repository.Repos, a *models.Account, amount int64, entryType, ref string) error {
	balance, err := money.Add(a.Balance, amount)
	if err != nil {
		return apperr.ErrAmountTooLarge.WithError(err).WithDetails(map[string]interface{}{
			"balance":     a.Balance,
			"amount":      amount,
			"max_balance": money.MaxAmount,
		})
	}
	a.Balance = balance
	return persistMovement(ctx, tx, a, amount, entryType, ref)
}

func debit(ctx context.Context, tx repository.Repos, a *models.Account, amount int64, entryType, ref string) error {
	if amount > a.Balance {
		return apperr.ErrInsufficientBalance.WithDetails(map[string]interface{}{
			"balance":   a.Balance,
			"requested": amount,
		})
	}
	a.Balance -= amount
	return persistMovement(ctx, tx, a, -amount, entryType, ref)
}

func persistMovement(ctx context.Context, tx repository.Repos, a *models.Account, signed int64, entryType, ref string) error {
	if err := tx.Accounts().Update(ctx, a); err != nil {
		return apperr.Storage(err)
	}
	entry := &models.LedgerEntry{
		AccountID:    a.ID,
		Type:         entryType,
		Amount:       signed,
		BalanceAfter: a.Balance,
		Reference:    ref,
	}
	if err := tx.Ledger().Create(ctx, entry); err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (s *LedgerService) stamp() time.Time {
	return s.now().UTC()
}
