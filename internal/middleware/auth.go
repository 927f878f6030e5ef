package middleware

import (
	"strings"

	"investx/config"
	"investx/internal/apperr"
	"investx/internal/auth"

	"github.com/gin-gonic/gin"
)

// AuthRequired validates the bearer JWT and sets user_id, email and role in context.
func AuthRequired(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			RespondError(c, apperr.ErrUnauthorized.WithMessage("missing authorization header"))
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			RespondError(c, apperr.ErrUnauthorized.WithMessage("invalid authorization format"))
			return
		}
		claims, err := auth.ParseAccessToken(cfg, strings.TrimSpace(parts[1]))
		if err != nil {
			RespondError(c, apperr.ErrInvalidToken)
			return
		}
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Set("claims", claims)
		c.Next()
	}
}

// RequireRole checks that the authenticated caller has one of the allowed roles.
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		r := c.GetString("role")
		if r == "" {
			RespondError(c, apperr.ErrUnauthorized)
			return
		}
		for _, a := range allowed {
			if r == a {
				c.Next()
				return
			}
		}
		RespondError(c, apperr.ErrForbidden)
	}
}

// GetUserID returns the authenticated account or admin ID (must be used after AuthRequired).
func GetUserID(c *gin.Context) uint {
	v, _ := c.Get("user_id")
	if v == nil {
		return 0
	}
	return v.(uint)
}
