package repository

import (
	"context"
	"errors"
	"time"

	"investx/internal/models"

	"gorm.io/gorm"
)

// ErrNegativeBalance is returned when an update would persist a negative amount on an account.
var ErrNegativeBalance = errors.New("account amounts cannot be negative")

type AccountRepository interface {
	Create(ctx context.Context, a *models.Account) error
	GetByID(ctx context.Context, id uint) (*models.Account, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByPhone(ctx context.Context, phone string) (*models.Account, error)
	GetByReferralCode(ctx context.Context, code string) (*models.Account, error)
	Update(ctx context.Context, a *models.Account) error
	IncrementReferralCount(ctx context.Context, id uint) error
	ListReferred(ctx context.Context, code string) ([]models.Account, error)
	SetFCMToken(ctx context.Context, id uint, token string) error
}

type PackageRepository interface {
	Create(ctx context.Context, p *models.InvestmentPackage) error
	Update(ctx context.Context, p *models.InvestmentPackage) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*models.InvestmentPackage, error)
	GetByName(ctx context.Context, name string) (*models.InvestmentPackage, error)
	List(ctx context.Context, activeOnly bool) ([]models.InvestmentPackage, error)
	Count(ctx context.Context) (int64, error)
}

type InvestmentRepository interface {
	Create(ctx context.Context, inv *models.Investment) error
	Update(ctx context.Context, inv *models.Investment) error
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Investment, error)
	CountByAccountAndPackage(ctx context.Context, accountID, packageID uint) (int64, error)
	CountByPackage(ctx context.Context, packageID uint) (int64, error)
	ListByAccount(ctx context.Context, accountID uint, status string, limit, offset int) ([]models.Investment, int64, error)
	// ListDue returns active investments whose end date is not after now. accountID 0 means all accounts.
	ListDue(ctx context.Context, accountID uint, now time.Time, limit int) ([]models.Investment, error)
}

type WithdrawalRepository interface {
	Create(ctx context.Context, w *models.WithdrawalRequest) error
	Update(ctx context.Context, w *models.WithdrawalRequest) error
	GetByIDForUpdate(ctx context.Context, id uint) (*models.WithdrawalRequest, error)
	ListByAccount(ctx context.Context, accountID uint, status string, limit, offset int) ([]models.WithdrawalRequest, int64, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *models.PaymentRequest) error
	Update(ctx context.Context, p *models.PaymentRequest) error
	GetByIDForUpdate(ctx context.Context, id uint) (*models.PaymentRequest, error)
	ListByAccount(ctx context.Context, accountID uint, status string, limit, offset int) ([]models.PaymentRequest, int64, error)
}

type LedgerRepository interface {
	Create(ctx context.Context, e *models.LedgerEntry) error
	ListByAccount(ctx context.Context, accountID uint, limit, offset int) ([]models.LedgerEntry, int64, error)
	SumByAccountAndType(ctx context.Context, accountID uint, entryType string) (int64, error)
}

// Repos is the set of repositories bound to one connection or transaction.
type Repos interface {
	Accounts() AccountRepository
	Packages() PackageRepository
	Investments() InvestmentRepository
	Withdrawals() WithdrawalRepository
	Payments() PaymentRepository
	Ledger() LedgerRepository
}

// Store runs ledger operations. Everything fn does through tx commits or rolls back together.
type Store interface {
	Repos
	Atomic(ctx context.Context, fn func(tx Repos) error) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Atomic(ctx context.Context, fn func(tx Repos) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) Accounts() AccountRepository       { return NewAccountRepository(s.db) }
func (s *GormStore) Packages() PackageRepository       { return NewPackageRepository(s.db) }
func (s *GormStore) Investments() InvestmentRepository { return NewInvestmentRepository(s.db) }
func (s *GormStore) Withdrawals() WithdrawalRepository { return NewWithdrawalRepository(s.db) }
func (s *GormStore) Payments() PaymentRepository       { return NewPaymentRepository(s.db) }
func (s *GormStore) Ledger() LedgerRepository          { return NewLedgerRepository(s.db) }

func pageQuery(q *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	return q
}
