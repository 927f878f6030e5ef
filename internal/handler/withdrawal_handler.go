package handler

import (
	"net/http"

	"investx/internal/middleware"
	"investx/internal/service"

	"github.com/gin-gonic/gin"
)

type WithdrawalHandler struct {
	ledger   *service.LedgerService
	accounts *service.AccountService
}

func NewWithdrawalHandler(ledger *service.LedgerService, accounts *service.AccountService) *WithdrawalHandler {
	return &WithdrawalHandler{ledger: ledger, accounts: accounts}
}

// Create debits the balance and queues the payout for an admin. Weekdays only.
func (h *WithdrawalHandler) Create(c *gin.Context) {
	var req struct {
		Amount int64 `json:"amount" binding:"required,gt=0,lte=1000000000000000"`
	}
	if !bindJSON(c, &req) {
		return
	}
	w, err := h.ledger.RequestWithdrawal(c.Request.Context(), middleware.GetUserID(c), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"withdrawal": w})
}

func (h *WithdrawalHandler) List(c *gin.Context) {
	page, limit := parsePagination(c)
	list, err := h.accounts.Withdrawals(c.Request.Context(), middleware.GetUserID(c), c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
