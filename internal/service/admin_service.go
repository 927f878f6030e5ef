package service

import (
	"context"

	"investx/internal/apperr"
	"investx/internal/models"
	"investx/internal/repository"
	"investx/pkg/sysstat"
)

// Pinger reports database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// AdminService serves the admin console read models.
type AdminService struct {
	queries AdminQueries
	db      Pinger
}

func NewAdminService(queries AdminQueries, db Pinger) *AdminService {
	return &AdminService{queries: queries, db: db}
}

type AdminDashboard struct {
	Stats    *repository.DashboardStats   `json:"stats"`
	Signups  []repository.TimeSeriesPoint `json:"signups"`
	Deposits []repository.AmountPoint     `json:"deposits"`
}

const dashboardSeriesDays = 30

func (s *AdminService) Dashboard(ctx context.Context) (*AdminDashboard, error) {
	stats, err := s.queries.GetDashboardStats(ctx)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	signups, err := s.queries.SignupsByDay(ctx, dashboardSeriesDays)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	deposits, err := s.queries.DepositsByDay(ctx, dashboardSeriesDays)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &AdminDashboard{Stats: stats, Signups: nonNil(signups), Deposits: nonNil(deposits)}, nil
}

func (s *AdminService) Accounts(ctx context.Context, search, status string, page, limit int) (*Page[models.Account], error) {
	list, total, err := s.queries.ListAccounts(ctx, search, status, page, limit)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &Page[models.Account]{Items: nonNil(list), Total: total, Page: page, Limit: limit}, nil
}

func (s *AdminService) Payments(ctx context.Context, status string, page, limit int) (*Page[models.PaymentRequest], error) {
	list, total, err := s.queries.ListPayments(ctx, status, page, limit)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &Page[models.PaymentRequest]{Items: nonNil(list), Total: total, Page: page, Limit: limit}, nil
}

func (s *AdminService) Withdrawals(ctx context.Context, status string, page, limit int) (*Page[models.WithdrawalRequest], error) {
	list, total, err := s.queries.ListWithdrawals(ctx, status, page, limit)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &Page[models.WithdrawalRequest]{Items: nonNil(list), Total: total, Page: page, Limit: limit}, nil
}

func (s *AdminService) Investments(ctx context.Context, status string, page, limit int) (*Page[models.Investment], error) {
	list, total, err := s.queries.ListInvestments(ctx, status, page, limit)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &Page[models.Investment]{Items: nonNil(list), Total: total, Page: page, Limit: limit}, nil
}

type SystemStatus struct {
	Database string           `json:"database"`
	Host     sysstat.Snapshot `json:"host"`
}

func (s *AdminService) System(ctx context.Context) SystemStatus {
	status := SystemStatus{Database: "ok", Host: sysstat.Collect(ctx)}
	if s.db == nil {
		status.Database = "unknown"
	} else if err := s.db.PingContext(ctx); err != nil {
		status.Database = "unreachable"
	}
	return status
}
