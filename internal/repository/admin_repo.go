package repository

import (
	"context"
	"time"

	"investx/internal/domain"
	"investx/internal/models"

	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalUsers              int64 `json:"total_users"`
	ActiveUsers             int64 `json:"active_users"`
	PendingUsers            int64 `json:"pending_users"`
	TotalInvested           int64 `json:"total_invested"`
	TotalBalances           int64 `json:"total_balances"`
	ActiveInvestments       int64 `json:"active_investments"`
	TotalWithdrawn          int64 `json:"total_withdrawn"`
	PendingWithdrawals      int64 `json:"pending_withdrawals"`
	PendingWithdrawalAmount int64 `json:"pending_withdrawal_amount"`
	PendingPayments         int64 `json:"pending_payments"`
	PendingPaymentAmount    int64 `json:"pending_payment_amount"`
	TotalDeposits           int64 `json:"total_deposits"`
	TotalPackages           int64 `json:"total_packages"`
	ActivePackages          int64 `json:"active_packages"`
}

type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type AmountPoint struct {
	Date   string `json:"date"`
	Amount int64  `json:"amount"`
}

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

type statsQuery struct {
	db  *gorm.DB
	err error
}

func (q *statsQuery) count(model interface{}, dest *int64, where ...interface{}) {
	if q.err != nil {
		return
	}
	tx := q.db.Model(model)
	if len(where) > 0 {
		tx = tx.Where(where[0], where[1:]...)
	}
	q.err = tx.Count(dest).Error
}

func (q *statsQuery) sum(model interface{}, column string, dest *int64, where ...interface{}) {
	if q.err != nil {
		return
	}
	var out struct{ Total int64 }
	tx := q.db.Model(model).Select("COALESCE(SUM(" + column + "), 0) AS total")
	if len(where) > 0 {
		tx = tx.Where(where[0], where[1:]...)
	}
	q.err = tx.Scan(&out).Error
	*dest = out.Total
}

func (r *AdminRepository) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var s DashboardStats
	q := &statsQuery{db: r.db.WithContext(ctx)}

	q.count(&models.Account{}, &s.TotalUsers)
	q.count(&models.Account{}, &s.ActiveUsers, "is_active = ?", true)
	q.count(&models.Account{}, &s.PendingUsers, "is_active = ?", false)
	q.sum(&models.Account{}, "total_invested", &s.TotalInvested)
	q.sum(&models.Account{}, "balance", &s.TotalBalances)
	q.count(&models.Investment{}, &s.ActiveInvestments, "status = ?", domain.InvestmentActive)
	q.sum(&models.WithdrawalRequest{}, "amount", &s.TotalWithdrawn, "status = ?", domain.RequestApproved)
	q.count(&models.WithdrawalRequest{}, &s.PendingWithdrawals, "status = ?", domain.RequestPending)
	q.sum(&models.WithdrawalRequest{}, "amount", &s.PendingWithdrawalAmount, "status = ?", domain.RequestPending)
	q.count(&models.PaymentRequest{}, &s.PendingPayments, "status = ?", domain.RequestPending)
	q.sum(&models.PaymentRequest{}, "amount", &s.PendingPaymentAmount, "status = ?", domain.RequestPending)
	q.sum(&models.PaymentRequest{}, "amount", &s.TotalDeposits, "status = ?", domain.RequestApproved)
	q.count(&models.InvestmentPackage{}, &s.TotalPackages)
	q.count(&models.InvestmentPackage{}, &s.ActivePackages, "is_active = ?", true)

	if q.err != nil {
		return nil, q.err
	}
	return &s, nil
}

// ListAccounts returns accounts with search, activation filter, and pagination.
func (r *AdminRepository) ListAccounts(ctx context.Context, search, status string, page, limit int) ([]models.Account, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Account{})
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("name LIKE ? OR email LIKE ? OR phone LIKE ? OR referral_code = ?", like, like, like, search)
	}
	switch status {
	case "active":
		q = q.Where("is_active = ?", true)
	case "inactive":
		q = q.Where("is_active = ?", false)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Account
	err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

func (r *AdminRepository) GetAccountByID(ctx context.Context, id uint) (*models.Account, error) {
	var a models.Account
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// ListPayments returns payment requests with optional status filter.
func (r *AdminRepository) ListPayments(ctx context.Context, status string, page, limit int) ([]models.PaymentRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.PaymentRequest{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.PaymentRequest
	err := q.Preload("Account").Order("request_date DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// ListWithdrawals returns withdrawal requests with optional status filter.
func (r *AdminRepository) ListWithdrawals(ctx context.Context, status string, page, limit int) ([]models.WithdrawalRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.WithdrawalRequest{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.WithdrawalRequest
	err := q.Preload("Account").Order("request_date DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// ListInvestments returns investments with optional status filter.
func (r *AdminRepository) ListInvestments(ctx context.Context, status string, page, limit int) ([]models.Investment, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Investment{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Investment
	err := q.Preload("Account").Preload("Package").Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// SignupsByDay returns daily registration counts for the last N days.
func (r *AdminRepository) SignupsByDay(ctx context.Context, days int) ([]TimeSeriesPoint, error) {
	since := time.Now().AddDate(0, 0, -days)
	var points []TimeSeriesPoint
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Select("DATE(created_at) AS date, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&points).Error
	return points, err
}

// DepositsByDay returns daily approved payment amounts for the last N days.
func (r *AdminRepository) DepositsByDay(ctx context.Context, days int) ([]AmountPoint, error) {
	since := time.Now().AddDate(0, 0, -days)
	var points []AmountPoint
	err := r.db.WithContext(ctx).Model(&models.PaymentRequest{}).
		Select("DATE(processed_date) AS date, COALESCE(SUM(amount), 0) AS amount").
		Where("status = ? AND processed_date >= ?", domain.RequestApproved, since).
		Group("DATE(processed_date)").
		Order("date ASC").
		Scan(&points).Error
	return points, err
}
