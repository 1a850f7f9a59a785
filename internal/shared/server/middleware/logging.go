package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"realm-uploads/internal/shared/telemetry"
)

// PathIDKey holds the storage path id an upload handler resolved, so the
// request log can name the object that was served.
const PathIDKey = "pathId"

// Logging emits one structured line per request. Preflights and health
// probes are skipped.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      status,
			"bytes":       c.Writer.Size(),
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
			"user_id":     c.GetInt64(userIDKey),
			"realm_id":    c.GetInt64(realmIDKey),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if pathID := c.GetString(PathIDKey); pathID != "" {
			fields["path_id"] = pathID
		}
		if status >= http.StatusInternalServerError {
			telemetry.Warn("request.complete", fields)
			return
		}
		telemetry.Info("request.complete", fields)
	}
}
