package handler

import (
	"strconv"

	"investx/internal/apperr"
	"investx/internal/middleware"
	"investx/internal/service"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, err error) {
	middleware.RespondError(c, err)
}

// bindJSON binds the body and writes a field-level validation error on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, apperr.ParseValidationErrors(err))
		return false
	}
	return true
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, apperr.FieldError("id", "must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

func requestMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}
