package middleware

import (
	"investx/internal/apperr"
	"investx/internal/logger"

	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	Remediation string                 `json:"remediation"`
	Kind        apperr.Kind            `json:"kind"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// RespondError aborts with the error in the API's JSON shape. Infrastructure causes are logged, never sent.
func RespondError(c *gin.Context, err error) {
	appErr := apperr.FromError(err)
	if appErr.Kind == apperr.KindInfrastructure {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Str("code", appErr.Code).
			Msg("request failed")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.StatusCode, gin.H{"error": errorBody{
		Code:        appErr.Code,
		Message:     appErr.Message,
		Remediation: appErr.Remediation,
		Kind:        appErr.Kind,
		Details:     appErr.Details,
	}})
}
