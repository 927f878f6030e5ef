package handler

import (
	"net/http"

	"investx/internal/middleware"
	"investx/internal/service"

	"github.com/gin-gonic/gin"
)

type InvestmentHandler struct {
	ledger   *service.LedgerService
	accounts *service.AccountService
}

func NewInvestmentHandler(ledger *service.LedgerService, accounts *service.AccountService) *InvestmentHandler {
	return &InvestmentHandler{ledger: ledger, accounts: accounts}
}

func (h *InvestmentHandler) Create(c *gin.Context) {
	var req struct {
		PackageID uint  `json:"package_id" binding:"required"`
		Amount    int64 `json:"amount" binding:"required,gt=0,lte=1000000000000000"`
	}
	if !bindJSON(c, &req) {
		return
	}
	inv, err := h.ledger.Invest(c.Request.Context(), middleware.GetUserID(c), req.PackageID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"investment": inv})
}

func (h *InvestmentHandler) List(c *gin.Context) {
	page, limit := parsePagination(c)
	list, err := h.accounts.Investments(c.Request.Context(), middleware.GetUserID(c), c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
