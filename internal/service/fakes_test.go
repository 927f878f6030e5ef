package service_test

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"investx/config"
	"investx/internal/models"
	"investx/internal/service"
	"investx/internal/testing/memstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// monday is a business day in Kigali; saturday is not.
var (
	kigali   = time.FixedZone("CAT", 2*60*60)
	monday   = time.Date(2026, 3, 2, 10, 0, 0, 0, kigali)
	saturday = time.Date(2026, 3, 7, 10, 0, 0, 0, kigali)
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *clock) Advance(d time.Duration) { c.Set(c.Now().Add(d)) }

type settingStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newSettingStore() *settingStore { return &settingStore{values: map[string]string{}} }

func (s *settingStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return v, nil
}

func (s *settingStore) SetMany(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.values[k] = v
	}
	return nil
}

func (s *settingStore) GetAll(_ context.Context) ([]models.SystemSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SystemSetting
	for k, v := range s.values {
		out = append(out, models.SystemSetting{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

type auditStore struct {
	mu   sync.Mutex
	rows []models.AuditLog
}

func (s *auditStore) Create(_ context.Context, l *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, *l)
	return nil
}

func (s *auditStore) List(_ context.Context, action string, page, limit int) ([]models.AuditLog, int64, error) {
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

func (s *auditStore) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, r := range s.rows {
		out = append(out, r.Action)
	}
	return out
}

type adminStore struct {
	mu    sync.Mutex
	users map[uint]models.AdminUser
}

func newAdminStore() *adminStore { return &adminStore{users: map[uint]models.AdminUser{}} }

func (s *adminStore) Create(_ context.Context, u *models.AdminUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.users {
		if other.Username == u.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	u.ID = uint(len(s.users) + 1)
	s.users[u.ID] = *u
	return nil
}

func (s *adminStore) GetByID(_ context.Context, id uint) (*models.AdminUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (s *adminStore) GetByUsername(_ context.Context, username string) (*models.AdminUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *adminStore) UpdatePassword(_ context.Context, id uint, hash string) error {
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

func (s *adminStore) TouchLastLogin(_ context.Context, id uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.LastLogin = &at
	s.users[id] = u
	return nil
}

type event struct {
	kind      string
	accountID uint
	amount    int64
}

// recorder implements both service.Notifier and service.AccountPublisher.
type recorder struct {
	mu        sync.Mutex
	events    []event
	published []models.Account
}

func (r *recorder) add(kind string, accountID uint, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{kind, accountID, amount})
	return nil
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.kind)
	}
	return out
}

func (r *recorder) NotifyPaymentApproved(_ context.Context, id uint, amount int64, _ uint) error {
	return r.add("payment_approved", id, amount)
}

func (r *recorder) NotifyPaymentRejected(_ context.Context, id uint, amount int64, _ uint, _ string) error {
	return r.add("payment_rejected", id, amount)
}

func (r *recorder) NotifyManualCredit(_ context.Context, id uint, amount int64) error {
	return r.add("manual_credit", id, amount)
}

func (r *recorder) NotifyInvestmentMatured(_ context.Context, id uint, _ uint, payout int64) error {
	return r.add("investment_matured", id, payout)
}

func (r *recorder) NotifyWithdrawalApproved(_ context.Context, id uint, net int64, _ string) error {
	return r.add("withdrawal_approved", id, net)
}

func (r *recorder) NotifyWithdrawalRejected(_ context.Context, id uint, amount int64, _, _ string) error {
	return r.add("withdrawal_rejected", id, amount)
}

func (r *recorder) NotifyReferralBonus(_ context.Context, id uint, bonus int64, _ string) error {
	return r.add("referral_bonus", id, bonus)
}

func (r *recorder) NotifyAccountStatus(_ context.Context, id uint, active bool) error {
	var v int64
	if active {
		v = 1
	}
	return r.add("account_status", id, v)
}

func (r *recorder) PublishAccount(a *models.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, *a)
}

type harness struct {
	store    *memstore.Store
	settings *settingStore
	audit    *auditStore
	clock    *clock
	events   *recorder
	policy   *service.PolicyService
	ledger   *service.LedgerService
	auth     *service.AuthService
	accounts *service.AccountService
	packages *service.PackageService
}

func testPolicy() config.PolicyConfig {
	return config.PolicyConfig{
		MinWithdrawal:        3000,
		WithdrawalFeePercent: "10",
		ReferralsRequired:    2,
		ReferralBonus:        500,
		MinPasswordLength:    6,
	}
}

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "test-access",
		RefreshSecret: "test-refresh",
		AccessExpiry:  time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "investx-test",
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:    memstore.New(),
		settings: newSettingStore(),
		audit:    &auditStore{},
		clock:    &clock{now: monday},
		events:   &recorder{},
	}
	h.policy = service.NewPolicyService(h.settings, testPolicy())
	audit := service.NewAuditService(h.audit)
	h.ledger = service.NewLedgerService(h.store, h.policy, service.LedgerOptions{
		Notifier:  h.events,
		Publisher: h.events,
		Location:  kigali,
		Now:       h.clock.Now,
	})
	h.auth = service.NewAuthService(testJWTConfig(), h.store, h.policy, audit)
	h.accounts = service.NewAccountService(h.store, h.ledger, h.policy, "https://investx.example")
	h.packages = service.NewPackageService(h.store, audit)
	return h
}

var phoneSeq atomic.Int64

func (h *harness) register(t *testing.T, name, ref string) *models.Account {
	t.Helper()
	a, _, err := h.auth.Register(context.Background(), service.RegisterInput{
		Name:         name,
		Email:        name + "@example.com",
		Phone:        phoneFor(phoneSeq.Add(1)),
		Password:     "secret123",
		ReferralCode: ref,
	}, service.RequestMeta{})
	require.NoError(t, err)
	return a
}

func phoneFor(n int64) string {
	s := "0780000000"
	b := []byte(s)
	for i := len(b) - 1; n > 0 && i >= 0; i-- {
		b[i] = byte('0' + n%10)
		n /= 10
	}
	return string(b)
}

// fund approves a payment of amount for the account, activating it.
func (h *harness) fund(t *testing.T, accountID uint, amount int64) {
	t.Helper()
	ctx := context.Background()
	p, err := h.ledger.SubmitPayment(ctx, service.SubmitPaymentInput{AccountID: accountID, Amount: amount})
	require.NoError(t, err)
	_, err = h.ledger.ApprovePayment(ctx, p.ID, 1)
	require.NoError(t, err)
}

func (h *harness) pkg(t *testing.T, name string, min, max int64, days int, pct string, maxUses int) *models.InvestmentPackage {
	t.Helper()
	p, err := h.packages.Create(context.Background(), service.PackageInput{
		Name:             name,
		MinAmount:        min,
		MaxAmount:        max,
		DurationDays:     days,
		ProfitPercentage: decimal.RequireFromString(pct),
		MaxUses:          maxUses,
	}, 1, service.RequestMeta{})
	require.NoError(t, err)
	return p
}

func (h *harness) account(t *testing.T, id uint) *models.Account {
	t.Helper()
	a, err := h.store.Accounts().GetByID(context.Background(), id)
	require.NoError(t, err)
	return a
}
