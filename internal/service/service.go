package service

import (
	"context"
	"io"
	"time"

	"investx/internal/models"
	"investx/internal/repository"
)

// Notifier tells account holders about ledger events. NotificationService is the production implementation.
type Notifier interface {
	NotifyPaymentApproved(ctx context.Context, accountID uint, amount int64, paymentID uint) error
	NotifyPaymentRejected(ctx context.Context, accountID uint, amount int64, paymentID uint, reason string) error
	NotifyManualCredit(ctx context.Context, accountID uint, amount int64) error
	NotifyInvestmentMatured(ctx context.Context, accountID uint, investmentID uint, payout int64) error
	NotifyWithdrawalApproved(ctx context.Context, accountID uint, net int64, reference string) error
	NotifyWithdrawalRejected(ctx context.Context, accountID uint, amount int64, reference, reason string) error
	NotifyReferralBonus(ctx context.Context, accountID uint, bonus int64, referredName string) error
	NotifyAccountStatus(ctx context.Context, accountID uint, active bool) error
}

// AccountPublisher fans a fresh account snapshot out to live sessions.
type AccountPublisher interface {
	PublishAccount(account *models.Account)
}

// ProofUploader stores a payment screenshot and returns its public URL.
type ProofUploader interface {
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (url, thumbnailURL string, err error)
}

type SettingStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetMany(ctx context.Context, values map[string]string) error
	GetAll(ctx context.Context) ([]models.SystemSetting, error)
}

type AuditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, action string, page, limit int) ([]models.AuditLog, int64, error)
}

type AdminUserStore interface {
	Create(ctx context.Context, u *models.AdminUser) error
	GetByID(ctx context.Context, id uint) (*models.AdminUser, error)
	GetByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	UpdatePassword(ctx context.Context, id uint, hash string) error
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByAccountID(ctx context.Context, accountID uint, limit, offset int) ([]models.Notification, error)
	CountUnread(ctx context.Context, accountID uint) (int64, error)
	MarkRead(ctx context.Context, id, accountID uint) error
}

// AdminQueries backs the admin console read models.
type AdminQueries interface {
	GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error)
	ListAccounts(ctx context.Context, search, status string, page, limit int) ([]models.Account, int64, error)
	ListPayments(ctx context.Context, status string, page, limit int) ([]models.PaymentRequest, int64, error)
	ListWithdrawals(ctx context.Context, status string, page, limit int) ([]models.WithdrawalRequest, int64, error)
	ListInvestments(ctx context.Context, status string, page, limit int) ([]models.Investment, int64, error)
	SignupsByDay(ctx context.Context, days int) ([]repository.TimeSeriesPoint, error)
	DepositsByDay(ctx context.Context, days int) ([]repository.AmountPoint, error)
}

// TokenPair is returned by every successful sign-in.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RequestMeta carries caller details for the audit trail.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// Page is the generic paginated list envelope.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func offset(page, limit int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * limit
}

type nopPublisher struct{}

func (nopPublisher) PublishAccount(*models.Account) {}
