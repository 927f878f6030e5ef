package handler

import (
	"context"
	"net/http"
	"time"

	"investx/config"
	"investx/internal/service"

	"github.com/gin-gonic/gin"
)

// SystemHandler serves the public, unauthenticated endpoints.
type SystemHandler struct {
	info     config.PaymentInfoConfig
	packages *service.PackageService
	db       service.Pinger
}

func NewSystemHandler(info config.PaymentInfoConfig, packages *service.PackageService, db service.Pinger) *SystemHandler {
	return &SystemHandler{info: info, packages: packages, db: db}
}

// PaymentInfo tells clients where to send the mobile-money transfer.
func (h *SystemHandler) PaymentInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"mobile_money_number": h.info.MobileMoneyNumber,
		"mobile_money_name":   h.info.MobileMoneyName,
		"proof_contact_link":  h.info.ProofContactLink,
	})
}

// Packages lists the active packages ordered by minimum amount.
func (h *SystemHandler) Packages(c *gin.Context) {
	list, err := h.packages.List(c.Request.Context(), true)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": list})
}

func (h *SystemHandler) Healthz(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
