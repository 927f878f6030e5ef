package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"investx/config"
	"investx/internal/models"
	"investx/internal/router"
	"investx/internal/service"
	"investx/internal/testing/memstore"
	"investx/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

// 2026-03-02 is a Monday.
var monday = time.Date(2026, 3, 2, 10, 0, 0, 0, time.FixedZone("CAT", 2*60*60))

type api struct {
	t      *testing.T
	engine *gin.Engine
	store  *memstore.Store
	notes  *notifications
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Env:            "test",
			AllowedOrigins: []string{"http://localhost:5173"},
			PublicURL:      "https://investx.example",
		},
		JWT: config.JWTConfig{
			AccessSecret:  "router-access",
			RefreshSecret: "router-refresh",
			AccessExpiry:  time.Hour,
			RefreshExpiry: 24 * time.Hour,
			Issuer:        "investx-test",
		},
		Policy: config.PolicyConfig{
			MinWithdrawal:        3000,
			WithdrawalFeePercent: "10",
			ReferralsRequired:    2,
			ReferralBonus:        500,
			MinPasswordLength:    6,
		},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000, LoginPerMinute: 1000},
		PaymentInfo: config.PaymentInfoConfig{
			MobileMoneyNumber: "0788123456",
			MobileMoneyName:   "InvestX Ltd",
			ProofContactLink:  "https://wa.me/250788123456",
		},
		Admin: config.AdminConfig{Username: "root", Password: "rootpass123"},
	}
}

func newAPI(t *testing.T, db service.Pinger) *api {
	t.Helper()
	cfg := testConfig()
	store := memstore.New()
	notes := &notifications{}
	audit := service.NewAuditService(&audits{})
	policy := service.NewPolicyService(&settings{values: map[string]string{}}, cfg.Policy)
	notifier := service.NewNotificationService(notes, store.Accounts(), nil)
	hub := ws.NewHub()
	ledger := service.NewLedgerService(store, policy, service.LedgerOptions{
		Notifier:  notifier,
		Publisher: hub,
		Location:  monday.Location(),
		Now:       func() time.Time { return monday },
	})
	adminAuth := service.NewAdminAuthService(&cfg.JWT, &admins{users: map[uint]models.AdminUser{}}, audit)
	_, err := adminAuth.EnsureBootstrapAdmin(context.Background(), cfg.Admin)
	require.NoError(t, err)

	engine, stop := router.Setup(cfg, router.Services{
		Auth:          service.NewAuthService(&cfg.JWT, store, policy, audit),
		AdminAuth:     adminAuth,
		Admin:         service.NewAdminService(queries{store: store}, db),
		Ledger:        ledger,
		Accounts:      service.NewAccountService(store, ledger, policy, cfg.Server.PublicURL),
		Packages:      service.NewPackageService(store, audit),
		Policy:        policy,
		Audit:         audit,
		Notifications: notifier,
		DB:            db,
		Hub:           hub,
	})
	t.Cleanup(stop)
	return &api{t: t, engine: engine, store: store, notes: notes}
}

func (a *api) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	var out map[string]interface{}
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" && bytes.HasPrefix(bytes.TrimSpace(w.Body.Bytes()), []byte("{")) {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func (a *api) must(status int, method, path, token string, body interface{}) map[string]interface{} {
	a.t.Helper()
	w, out := a.do(method, path, token, body)
	require.Equal(a.t, status, w.Code, "%s %s: %s", method, path, w.Body.String())
	return out
}

type session struct {
	id      uint
	access  string
	refresh string
	code    string
}

func (a *api) register(name, phone, ref string) session {
	a.t.Helper()
	out := a.must(http.StatusCreated, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":          name,
		"email":         name + "@example.com",
		"phone":         phone,
		"password":      "secret123",
		"referral_code": ref,
	})
	account := out["account"].(map[string]interface{})
	tokens := out["tokens"].(map[string]interface{})
	return session{
		id:      uint(account["id"].(float64)),
		access:  tokens["access_token"].(string),
		refresh: tokens["refresh_token"].(string),
		code:    account["referral_code"].(string),
	}
}

func (a *api) adminLogin() session {
	a.t.Helper()
	out := a.must(http.StatusOK, http.MethodPost, "/api/v1/admin/login", "", map[string]string{
		"username": "root",
		"password": "rootpass123",
	})
	tokens := out["tokens"].(map[string]interface{})
	return session{access: tokens["access_token"].(string), refresh: tokens["refresh_token"].(string)}
}

func (a *api) me(s session) map[string]interface{} {
	a.t.Helper()
	return a.must(http.StatusOK, http.MethodGet, "/api/v1/me", s.access, nil)["account"].(map[string]interface{})
}

func errorCode(body map[string]interface{}) string {
	e, ok := body["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := e["code"].(string)
	return code
}

func TestInvestorJourney(t *testing.T) {
	a := newAPI(t, pinger{})
	alice := a.register("alice", "0781000001", "")
	admin := a.adminLogin()

	acc := a.me(alice)
	assert.Equal(t, false, acc["is_active"])
	assert.Equal(t, float64(0), acc["balance"])

	w, body := a.do(http.MethodPost, "/api/v1/me/investments", alice.access, map[string]interface{}{"package_id": 1, "amount": 10000})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ACCOUNT_INACTIVE", errorCode(body))

	payment := a.must(http.StatusCreated, http.MethodPost, "/api/v1/me/payments", alice.access, map[string]interface{}{
		"amount":                10000,
		"transaction_reference": "MP240301.1234",
	})["payment"].(map[string]interface{})
	assert.Equal(t, "pending", payment["status"])
	assert.Equal(t, "activation", payment["payment_type"])
	paymentPath := fmt.Sprintf("/api/v1/admin/payments/%d", int(payment["id"].(float64)))

	a.must(http.StatusOK, http.MethodPost, paymentPath+"/approve", admin.access, nil)
	w, body = a.do(http.MethodPost, paymentPath+"/approve", admin.access, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATE_TRANSITION", errorCode(body))

	acc = a.me(alice)
	assert.Equal(t, true, acc["is_active"])
	assert.Equal(t, float64(10000), acc["balance"])

	pkg := a.must(http.StatusCreated, http.MethodPost, "/api/v1/admin/packages", admin.access, map[string]interface{}{
		"name":              "Starter",
		"min_amount":        5000,
		"max_amount":        50000,
		"duration_days":     7,
		"profit_percentage": "20",
	})["package"].(map[string]interface{})
	pkgID := int(pkg["id"].(float64))

	public := a.must(http.StatusOK, http.MethodGet, "/api/v1/packages", "", nil)
	require.Len(t, public["packages"], 1)

	w, body = a.do(http.MethodPost, "/api/v1/me/investments", alice.access, map[string]interface{}{"package_id": pkgID, "amount": 60000})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "AMOUNT_OUT_OF_RANGE", errorCode(body))

	inv := a.must(http.StatusCreated, http.MethodPost, "/api/v1/me/investments", alice.access, map[string]interface{}{
		"package_id": pkgID,
		"amount":     10000,
	})["investment"].(map[string]interface{})
	assert.Equal(t, float64(12000), inv["expected_return"])

	acc = a.me(alice)
	assert.Equal(t, float64(0), acc["balance"])
	assert.Equal(t, float64(10000), acc["total_invested"])

	list := a.must(http.StatusOK, http.MethodGet, "/api/v1/me/investments", alice.access, nil)
	assert.Equal(t, float64(1), list["total"])

	txs := a.must(http.StatusOK, http.MethodGet, "/api/v1/me/transactions", alice.access, nil)
	assert.Equal(t, float64(2), txs["total"])

	notes := a.must(http.StatusOK, http.MethodGet, "/api/v1/me/notifications", alice.access, nil)
	assert.NotEmpty(t, notes["items"])
	assert.GreaterOrEqual(t, notes["unread"], float64(1))
	a.must(http.StatusOK, http.MethodPut, "/api/v1/me/notifications/1/read", alice.access, nil)

	logs := a.must(http.StatusOK, http.MethodGet, "/api/v1/admin/audit-logs?action=payment.approve", admin.access, nil)
	assert.Equal(t, float64(1), logs["total"])
}

func TestWithdrawalOverHTTP(t *testing.T) {
	a := newAPI(t, pinger{})
	alice := a.register("alice", "0781000001", "")
	a.register("bob", "0781000002", alice.code)
	a.register("carol", "0781000003", alice.code)
	admin := a.adminLogin()

	w, body := a.do(http.MethodPost, "/api/v1/me/withdrawals", alice.access, map[string]int{"amount": 2000})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "AMOUNT_BELOW_MINIMUM", errorCode(body))

	a.must(http.StatusOK, http.MethodPost, fmt.Sprintf("/api/v1/admin/users/%d/credit", alice.id), admin.access, map[string]interface{}{
		"amount": 5000,
		"notes":  "cash deposit at office",
	})

	wd := a.must(http.StatusCreated, http.MethodPost, "/api/v1/me/withdrawals", alice.access, map[string]int{"amount": 3005})["withdrawal"].(map[string]interface{})
	assert.Equal(t, float64(301), wd["fee"])
	assert.Equal(t, float64(2704), wd["net_amount"])
	assert.Equal(t, float64(1995), a.me(alice)["balance"])

	path := fmt.Sprintf("/api/v1/admin/withdrawals/%d", int(wd["id"].(float64)))
	rejected := a.must(http.StatusOK, http.MethodPost, path+"/reject", admin.access, map[string]string{"reason": "wrong number"})["withdrawal"].(map[string]interface{})
	assert.Equal(t, "rejected", rejected["status"])
	assert.Equal(t, float64(5000), a.me(alice)["balance"])

	w, body = a.do(http.MethodPost, path+"/approve", admin.access, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATE_TRANSITION", errorCode(body))

	refs := a.must(http.StatusOK, http.MethodGet, "/api/v1/me/referrals", alice.access, nil)
	assert.Equal(t, float64(2), refs["referral_count"])
}

func TestRoleSeparation(t *testing.T) {
	a := newAPI(t, pinger{})
	alice := a.register("alice", "0781000001", "")
	admin := a.adminLogin()

	w, body := a.do(http.MethodGet, "/api/v1/admin/dashboard", alice.access, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	w, _ = a.do(http.MethodGet, "/api/v1/me", admin.access, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = a.do(http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	w, body = a.do(http.MethodPost, "/api/v1/admin/refresh", "", map[string]string{"refresh_token": alice.refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", errorCode(body))

	a.must(http.StatusOK, http.MethodPost, "/api/v1/admin/refresh", "", map[string]string{"refresh_token": admin.refresh})
	a.must(http.StatusOK, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": alice.refresh})
	a.must(http.StatusOK, http.MethodGet, "/api/v1/admin/dashboard", admin.access, nil)
}

func TestValidationErrorShape(t *testing.T) {
	a := newAPI(t, pinger{})

	w, body := a.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     "dave",
		"email":    "not-an-email",
		"phone":    "0781000009",
		"password": "secret123",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	e := body["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", e["code"])
	assert.Equal(t, "validation", e["kind"])
	assert.NotEmpty(t, e["remediation"])
	fields := e["details"].(map[string]interface{})["fields"].([]interface{})
	assert.Equal(t, "email", fields[0].(map[string]interface{})["field"])

	w, body = a.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":          "dave",
		"email":         "dave@example.com",
		"phone":         "0781000009",
		"password":      "secret123",
		"referral_code": "ZZZZZZ",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Nil(t, body["account"].(map[string]interface{})["referred_by"])

	w, body = a.do(http.MethodGet, "/api/v1/admin/users/abc", a.adminLogin().access, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))

	erin := a.register("erin", "0781000010", "")
	w, body = a.do(http.MethodPost, fmt.Sprintf("/api/v1/admin/users/%d/credit", erin.id), a.adminLogin().access, map[string]interface{}{
		"amount": int64(math.MaxInt64),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))
	assert.Equal(t, float64(0), a.me(erin)["balance"])
}

func TestAdminSettings(t *testing.T) {
	a := newAPI(t, pinger{})
	admin := a.adminLogin()

	out := a.must(http.StatusOK, http.MethodPut, "/api/v1/admin/settings", admin.access, map[string]interface{}{
		"min_withdrawal":         4000,
		"withdrawal_fee_percent": "7.5",
	})
	policy := out["policy"].(map[string]interface{})
	assert.Equal(t, float64(4000), policy["min_withdrawal"])
	assert.Equal(t, "7.5", policy["withdrawal_fee_percent"])

	views := a.must(http.StatusOK, http.MethodGet, "/api/v1/admin/settings", admin.access, nil)["settings"].([]interface{})
	values := map[string]string{}
	for _, v := range views {
		row := v.(map[string]interface{})
		values[row["key"].(string)] = row["value"].(string)
	}
	assert.Equal(t, "4000", values["min_withdrawal"])
	assert.Equal(t, "2", values["referrals_required"])

	w, body := a.do(http.MethodPut, "/api/v1/admin/settings", admin.access, map[string]interface{}{"referrals_required": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_SETTING", errorCode(body))

	w, body = a.do(http.MethodPut, "/api/v1/admin/settings", admin.access, map[string]interface{}{"min_withdrawal": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_SETTING", errorCode(body))

	logs := a.must(http.StatusOK, http.MethodGet, "/api/v1/admin/audit-logs?action=settings.update", admin.access, nil)
	assert.Equal(t, float64(1), logs["total"])
}

func TestAdminPackageDeleteAndStatus(t *testing.T) {
	a := newAPI(t, pinger{})
	admin := a.adminLogin()
	alice := a.register("alice", "0781000001", "")

	pkg := a.must(http.StatusCreated, http.MethodPost, "/api/v1/admin/packages", admin.access, map[string]interface{}{
		"name":              "Gold",
		"min_amount":        1000,
		"max_amount":        9000,
		"duration_days":     30,
		"profit_percentage": 35,
		"max_uses":          1,
	})["package"].(map[string]interface{})
	path := fmt.Sprintf("/api/v1/admin/packages/%d", int(pkg["id"].(float64)))

	toggled := a.must(http.StatusOK, http.MethodPatch, path+"/toggle", admin.access, nil)["package"].(map[string]interface{})
	assert.Equal(t, false, toggled["is_active"])
	assert.Len(t, a.must(http.StatusOK, http.MethodGet, "/api/v1/packages", "", nil)["packages"], 0)
	assert.Len(t, a.must(http.StatusOK, http.MethodGet, "/api/v1/admin/packages", admin.access, nil)["packages"], 1)

	deleted := a.must(http.StatusOK, http.MethodDelete, path, admin.access, nil)
	assert.Equal(t, true, deleted["deleted"])
	w, _ := a.do(http.MethodPatch, path+"/toggle", admin.access, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	userPath := fmt.Sprintf("/api/v1/admin/users/%d", alice.id)
	a.must(http.StatusOK, http.MethodPatch, userPath+"/status", admin.access, map[string]bool{"is_active": true})
	detail := a.must(http.StatusOK, http.MethodGet, userPath, admin.access, nil)
	assert.Equal(t, true, detail["account"].(map[string]interface{})["is_active"])

	w, body := a.do(http.MethodPatch, userPath+"/status", admin.access, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))

	users := a.must(http.StatusOK, http.MethodGet, "/api/v1/admin/users?search=alice", admin.access, nil)
	assert.Equal(t, float64(1), users["total"])

	settled := a.must(http.StatusOK, http.MethodPost, "/api/v1/admin/investments/settle", admin.access, nil)
	assert.Equal(t, float64(0), settled["settled"])
}

func TestPublicEndpoints(t *testing.T) {
	a := newAPI(t, pinger{})
	info := a.must(http.StatusOK, http.MethodGet, "/api/v1/payment-info", "", nil)
	assert.Equal(t, "0788123456", info["mobile_money_number"])

	a.must(http.StatusOK, http.MethodGet, "/healthz", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "investx_http_requests_total")

	down := newAPI(t, pinger{err: errors.New("connection refused")})
	w, body := down.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "degraded", body["status"])
}

func TestCORSPreflight(t *testing.T) {
	a := newAPI(t, pinger{})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMultipartPaymentSubmission(t *testing.T) {
	a := newAPI(t, pinger{})
	alice := a.register("alice", "0781000001", "")

	post := func(withProof bool, contentType string) (*httptest.ResponseRecorder, map[string]interface{}) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("amount", "7000"))
		require.NoError(t, mw.WriteField("transaction_reference", "MP-77"))
		if withProof {
			h := textproto.MIMEHeader{}
			h.Set("Content-Disposition", `form-data; name="proof"; filename="proof.bin"`)
			h.Set("Content-Type", contentType)
			part, err := mw.CreatePart(h)
			require.NoError(t, err)
			_, err = part.Write([]byte("payload"))
			require.NoError(t, err)
		}
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/v1/me/payments", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+alice.access)
		w := httptest.NewRecorder()
		a.engine.ServeHTTP(w, req)
		var out map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		return w, out
	}

	w, out := post(false, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, float64(7000), out["payment"].(map[string]interface{})["amount"])

	w, out = post(true, "application/pdf")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(out))

	// No uploader is configured in tests.
	w, out = post(true, "image/png")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "UPLOAD_FAILED", errorCode(out))

	list := a.must(http.StatusOK, http.MethodGet, "/api/v1/me/payments?status=pending", alice.access, nil)
	assert.Equal(t, float64(1), list["total"])
}
