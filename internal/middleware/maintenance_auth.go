package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "dompet/internal/errors"
)

// MaintenanceAuth guards the operator endpoints (system-wide reconciliation)
// with the X-API-Key header. An empty configured key disables them.
func MaintenanceAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			abortWithError(c, apperrors.ErrMaintenanceOff)
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			abortWithError(c, apperrors.ErrInvalidAPIKey)
			return
		}
		c.Next()
	}
}
