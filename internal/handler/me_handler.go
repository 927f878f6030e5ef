package handler

import (
	"net/http"

	"investx/internal/middleware"
	"investx/internal/service"

	"github.com/gin-gonic/gin"
)

// MeHandler serves the signed-in account's own reads.
type MeHandler struct {
	accounts *service.AccountService
}

func NewMeHandler(accounts *service.AccountService) *MeHandler {
	return &MeHandler{accounts: accounts}
}

func (h *MeHandler) Profile(c *gin.Context) {
	a, err := h.accounts.Profile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": a})
}

func (h *MeHandler) Dashboard(c *gin.Context) {
	d, err := h.accounts.Dashboard(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *MeHandler) Transactions(c *gin.Context) {
	page, limit := parsePagination(c)
	list, err := h.accounts.Transactions(c.Request.Context(), middleware.GetUserID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
