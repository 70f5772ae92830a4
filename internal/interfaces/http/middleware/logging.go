package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"streamgate/internal/shared/logger"
)

// Logger logs every completed request with method, path, status and
// latency. Server errors log at error level, client errors at warn.
func Logger(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", latency,
			"client_ip", c.ClientIP(),
		}

		if requestID, exists := c.Get(ContextKeyRequestID); exists {
			args = append(args, "request_id", requestID)
		}
		if userID, exists := c.Get(ContextKeyUserID); exists {
			args = append(args, "user_id", userID)
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			log.Errorw("HTTP request completed with server error", args...)
		case status >= 400:
			log.Warnw("HTTP request completed with client error", args...)
		default:
			log.Debugw("HTTP request completed", args...)
		}
	}
}
