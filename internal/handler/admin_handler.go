package handler

import (
	"net/http"
	"strconv"
	"strings"

	"investx/internal/apperr"
	"investx/internal/domain"
	"investx/internal/middleware"
	"investx/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	auth     *service.AdminAuthService
	admin    *service.AdminService
	ledger   *service.LedgerService
	accounts *service.AccountService
	packages *service.PackageService
	policy   *service.PolicyService
	audit    *service.AuditService
}

func NewAdminHandler(
	auth *service.AdminAuthService,
	admin *service.AdminService,
	ledger *service.LedgerService,
	accounts *service.AccountService,
	packages *service.PackageService,
	policy *service.PolicyService,
	audit *service.AuditService,
) *AdminHandler {
	return &AdminHandler{
		auth:     auth,
		admin:    admin,
		ledger:   ledger,
		accounts: accounts,
		packages: packages,
		policy:   policy,
		audit:    audit,
	}
}

func (h *AdminHandler) record(c *gin.Context, action, resource string, id interface{}, metadata map[string]interface{}) {
	h.audit.Record(c.Request.Context(), service.AuditEntry{
		ActorKind:  domain.ActorAdmin,
		ActorID:    middleware.GetUserID(c),
		Action:     action,
		Resource:   resource,
		ResourceID: id,
		Meta:       requestMeta(c),
		Metadata:   metadata,
	})
}

// Login handles POST /admin/login.
func (h *AdminHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	u, tokens, err := h.auth.Login(c.Request.Context(), req.Username, req.Password, requestMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admin": u, "tokens": tokens})
}

// Refresh handles POST /admin/refresh. Account refresh tokens are rejected.
func (h *AdminHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if !bindJSON(c, &req) {
		return
	}
	tokens, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

func (h *AdminHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.auth.ChangePassword(c.Request.Context(), middleware.GetUserID(c), req.CurrentPassword, req.NewPassword, requestMeta(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *AdminHandler) Dashboard(c *gin.Context) {
	d, err := h.admin.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *AdminHandler) System(c *gin.Context) {
	c.JSON(http.StatusOK, h.admin.System(c.Request.Context()))
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := parsePagination(c)
	list, err := h.admin.Accounts(c.Request.Context(), strings.TrimSpace(c.Query("search")), c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetUser returns the account with its referral summary and latest ledger entries.
func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	a, err := h.accounts.Profile(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	referrals, err := h.accounts.Referrals(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	txs, err := h.accounts.Transactions(ctx, id, 1, 20)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": a, "referrals": referrals, "transactions": txs.Items})
}

func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.ledger.SetAccountActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	h.record(c, "account.set_status", "account", id, map[string]interface{}{"is_active": *req.IsActive})
	c.JSON(http.StatusOK, gin.H{"account": a})
}

func (h *AdminHandler) CreditUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req struct {
		Amount int64  `json:"amount" binding:"required,gt=0,lte=1000000000000000"`
		Notes  string `json:"notes" binding:"max=500"`
	}
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.ledger.CreditManual(c.Request.Context(), id, req.Amount, req.Notes, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	h.record(c, "account.manual_credit", "account", id, map[string]interface{}{"amount": req.Amount})
	c.JSON(http.StatusOK, gin.H{"account": a})
}

func (h *AdminHandler) ListPayments(c *gin.Context) {
	page, limit := parsePagination(c)
	list, err := h.admin.Payments(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *AdminHandler) ApprovePayment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, err := h.ledger.ApprovePayment(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	h.record(c, "payment.approve", "payment", id, map[string]interface{}{"amount": p.Amount, "account_id": p.AccountID})
	c.JSON(http.StatusOK, gin.H{"payment": p})
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

func (h *AdminHandler) RejectPayment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req rejectRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	p, err := h.ledger.RejectPayment(c.Request.Context(), id, middleware.GetUserID(c), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	h.record(c, "payment.reject", "payment", id, map[string]interface{}{"reason": p.RejectionReason})
	c.JSON(http.StatusOK, gin.H{"payment": p})
}

func (h *AdminHandler) ListWithdrawals(c *gin.Context) {
	page, limit := parsePagination(c)
	list, err := h.admin.Withdrawals(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *AdminHandler) ApproveWithdrawal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	w, err := h.ledger.ApproveWithdrawal(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	h.record(c, "withdrawal.approve", "withdrawal", id, map[string]interface{}{"net_amount": w.NetAmount, "reference": w.Reference})
	c.JSON(http.StatusOK, gin.H{"withdrawal": w})
}

func (h *AdminHandler) RejectWithdrawal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req rejectRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	w, err := h.ledger.RejectWithdrawal(c.Request.Context(), id, middleware.GetUserID(c), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	h.record(c, "withdrawal.reject", "withdrawal", id, map[string]interface{}{"amount": w.Amount, "reason": w.RejectionReason})
	c.JSON(http.StatusOK, gin.H{"withdrawal": w})
}

func (h *AdminHandler) ListPackages(c *gin.Context) {
	list, err := h.packages.List(c.Request.Context(), false)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": list})
}

func (h *AdminHandler) CreatePackage(c *gin.Context) {
	var req service.PackageInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.packages.Create(c.Request.Context(), req, middleware.GetUserID(c), requestMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"package": p})
}

func (h *AdminHandler) UpdatePackage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.PackageInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.packages.Update(c.Request.Context(), id, req, middleware.GetUserID(c), requestMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"package": p})
}

func (h *AdminHandler) TogglePackage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, err := h.packages.Toggle(c.Request.Context(), id, middleware.GetUserID(c), requestMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"package": p})
}

// DeletePackage removes an unused package or deactivates one that has investments.
func (h *AdminHandler) DeletePackage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	deleted, p, err := h.packages.Delete(c.Request.Context(), id, middleware.GetUserID(c), requestMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusOK, gin.H{"deleted": false, "deactivated": true, "package": p})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *AdminHandler) ListInvestments(c *gin.Context) {
	page, limit := parsePagination(c)
	list, err := h.admin.Investments(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Settle runs the maturity pass now instead of waiting for the scheduler.
func (h *AdminHandler) Settle(c *gin.Context) {
	n, err := h.ledger.SettleDue(c.Request.Context(), 0)
	if err != nil {
		respondError(c, err)
		return
	}
	h.record(c, "investment.settle", "investment", nil, map[string]interface{}{"settled": n})
	c.JSON(http.StatusOK, gin.H{"settled": n})
}

func (h *AdminHandler) GetSettings(c *gin.Context) {
	list, err := h.policy.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": list})
}

// UpdateSettings accepts a flat object of setting keys; numbers and strings are both accepted.
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req map[string]interface{}
	if !bindJSON(c, &req) {
		return
	}
	values := make(map[string]string, len(req))
	for k, v := range req {
		switch t := v.(type) {
		case string:
			values[k] = strings.TrimSpace(t)
		case float64:
			values[k] = strconv.FormatFloat(t, 'f', -1, 64)
		default:
			respondError(c, apperr.ErrInvalidSetting.WithDetails(map[string]interface{}{k: "must be a number or string"}))
			return
		}
	}
	p, err := h.policy.Update(c.Request.Context(), values)
	if err != nil {
		respondError(c, err)
		return
	}
	meta := make(map[string]interface{}, len(values))
	for k, v := range values {
		meta[k] = v
	}
	h.record(c, "settings.update", "settings", nil, meta)
	c.JSON(http.StatusOK, gin.H{"policy": p})
}

func (h *AdminHandler) AuditLogs(c *gin.Context) {
	page, limit := parsePagination(c)
	list, err := h.audit.List(c.Request.Context(), c.Query("action"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
