package router_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"investx/internal/models"
	"investx/internal/repository"

	"gorm.io/gorm"
)

type settings struct {
	mu     sync.Mutex
	values map[string]string
}

func (s *settings) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return v, nil
}

func (s *settings) SetMany(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.values[k] = v
	}
	return nil
}

func (s *settings) GetAll(_ context.Context) ([]models.SystemSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SystemSetting
	for k, v := range s.values {
		out = append(out, models.SystemSetting{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

type audits struct {
	mu   sync.Mutex
	rows []models.AuditLog
}

func (s *audits) Create(_ context.Context, l *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = uint(len(s.rows) + 1)
	s.rows = append(s.rows, *l)
	return nil
}

func (s *audits) List(_ context.Context, action string, page, limit int) ([]models.AuditLog, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AuditLog
	for _, r := range s.rows {
		if action == "" || r.Action == action {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

type admins struct {
	mu    sync.Mutex
	users map[uint]models.AdminUser
}

func (s *admins) Create(_ context.Context, u *models.AdminUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	u.ID = uint(len(s.users) + 1)
	s.users[u.ID] = *u
	return nil
}

func (s *admins) GetByID(_ context.Context, id uint) (*models.AdminUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (s *admins) GetByUsername(_ context.Context, username string) (*models.AdminUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *admins) UpdatePassword(_ context.Context, id uint, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PasswordHash = hash
	s.users[id] = u
	return nil
}

func (s *admins) TouchLastLogin(_ context.Context, id uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	u.LastLogin = &at
	s.users[id] = u
	return nil
}

type notifications struct {
	mu   sync.Mutex
	rows []models.Notification
}

func (s *notifications) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = uint(len(s.rows) + 1)
	s.rows = append(s.rows, *n)
	return nil
}

func (s *notifications) ListByAccountID(_ context.Context, accountID uint, limit, offset int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for i := len(s.rows) - 1; i >= 0; i-- {
		if s.rows[i].AccountID == accountID {
			out = append(out, s.rows[i])
		}
	}
	return out, nil
}

func (s *notifications) CountUnread(_ context.Context, accountID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, r := range s.rows {
		if r.AccountID == accountID && r.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

func (s *notifications) MarkRead(_ context.Context, id, accountID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == id && s.rows[i].AccountID == accountID {
			now := time.Now()
			s.rows[i].ReadAt = &now
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// queries answers the admin list endpoints from the in-memory store.
type queries struct {
	store repository.Store
}

func (q queries) GetDashboardStats(context.Context) (*repository.DashboardStats, error) {
	return &repository.DashboardStats{}, nil
}

func (q queries) ListAccounts(ctx context.Context, search, status string, page, limit int) ([]models.Account, int64, error) {
	var out []models.Account
	for id := uint(1); ; id++ {
		a, err := q.store.Accounts().GetByID(ctx, id)
		if err != nil {
			break
		}
		if search == "" || strings.Contains(a.Email, strings.ToLower(search)) {
			out = append(out, *a)
		}
	}
	return out, int64(len(out)), nil
}

func (q queries) ListPayments(context.Context, string, int, int) ([]models.PaymentRequest, int64, error) {
	return nil, 0, nil
}

func (q queries) ListWithdrawals(context.Context, string, int, int) ([]models.WithdrawalRequest, int64, error) {
	return nil, 0, nil
}

func (q queries) ListInvestments(context.Context, string, int, int) ([]models.Investment, int64, error) {
	return nil, 0, nil
}

func (q queries) SignupsByDay(context.Context, int) ([]repository.TimeSeriesPoint, error) {
	return nil, nil
}

func (q queries) DepositsByDay(context.Context, int) ([]repository.AmountPoint, error) {
	return nil, nil
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }
