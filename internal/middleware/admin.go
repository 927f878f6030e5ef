package middleware

import (
	"context"

	"investx/internal/apperr"
	"investx/internal/domain"
	"investx/internal/models"

	"github.com/gin-gonic/gin"
)

// AdminLoader resolves an admin on every request so a disabled admin loses access before the token expires.
type AdminLoader interface {
	Get(ctx context.Context, id uint) (*models.AdminUser, error)
}

// AdminRequired checks the ADMIN role and that the admin still exists and is active.
func AdminRequired(admins AdminLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != domain.RoleAdmin {
			RespondError(c, apperr.ErrForbidden.WithMessage("admin access required"))
			return
		}
		u, err := admins.Get(c.Request.Context(), GetUserID(c))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.Set("admin", u)
		c.Next()
	}
}
