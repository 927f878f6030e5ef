package handler

import (
	"net/http"

	"investx/internal/middleware"
	"investx/internal/service"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	svc *service.NotificationService
}

func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) List(c *gin.Context) {
	page, limit := parsePagination(c)
	list, err := h.svc.List(c.Request.Context(), middleware.GetUserID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.MarkRead(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RegisterToken stores the device's FCM token; an empty token turns push off.
func (h *NotificationHandler) RegisterToken(c *gin.Context) {
	var req struct {
		Token string `json:"fcm_token" binding:"max=512"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.SetFCMToken(c.Request.Context(), middleware.GetUserID(c), req.Token); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
