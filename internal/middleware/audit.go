package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fathussalafi/yayasan-api/internal/service"
)

// AuditRecorder stores audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry service.AuditEntry)
}

// Audit records an audit entry after every successful mutation. The :id path
// parameter, when present, becomes the resource id.
func Audit(recorder AuditRecorder, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if recorder == nil || c.Writer.Status() >= 400 {
			return
		}

		entry := service.AuditEntry{
			Action:     action,
			Resource:   resource,
			ResourceID: c.Param("id"),
			After: map[string]interface{}{
				"path":       c.FullPath(),
				"method":     c.Request.Method,
				"status":     c.Writer.Status(),
				"latency_ms": time.Since(start).Milliseconds(),
			},
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		}
		if claims := Claims(c); claims != nil {
			entry.UserID = claims.UserID
		}
		recorder.Record(c.Request.Context(), entry)
	}
}
