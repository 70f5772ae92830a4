package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader is the header carrying the request correlation id.
const RequestIDHeader = "X-Request-ID"

// ContextKeyRequestID is the gin context key holding the correlation id.
const ContextKeyRequestID = "request_id"

// RequestID assigns each request a correlation id, honoring one supplied
// by the caller, and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(ContextKeyRequestID, id)
		c.Writer.Header().Set(RequestIDHeader, id)

		c.Next()
	}
}
