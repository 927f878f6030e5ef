package handler

import (
	"net/http"

	"investx/internal/middleware"
	"investx/internal/service"

	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	accounts *service.AccountService
}

func NewReferralHandler(accounts *service.AccountService) *ReferralHandler {
	return &ReferralHandler{accounts: accounts}
}

// Summary handles GET /me/referrals: code, share link, referred accounts and withdrawal progress.
func (h *ReferralHandler) Summary(c *gin.Context) {
	s, err := h.accounts.Referrals(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
