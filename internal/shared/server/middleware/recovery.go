package middleware

import (
	"net/http"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"

	"career-backend/internal/shared/server/respond"
	"career-backend/internal/shared/telemetry"
)

// Recovery recovers from panics, logs the stack through zap and returns a standardized error response.
func Recovery() gin.HandlerFunc {
	return ginzap.CustomRecoveryWithZap(telemetry.L(), true, func(c *gin.Context, rec any) {
		telemetry.Error("panic", map[string]any{
			"request_id": RequestIDFromContext(c),
			"error":      rec,
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
		})
		respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
	})
}
