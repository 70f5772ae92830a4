package middleware

import (
	"github.com/gin-gonic/gin"

	"streamgate/internal/application/auth/usecases"
	"streamgate/internal/shared/errors"
	"streamgate/internal/shared/logger"
	"streamgate/internal/shared/utils"
)

// Context keys set by the authorization middleware.
const (
	ContextKeyUserID    = "user_id"
	ContextKeyUserEmail = "user_email"
	ContextKeyIdentity  = "identity"
)

// AuthMiddleware authorizes the Authorization header through the provider
// pipeline and stows the resolved identity in the request context.
type AuthMiddleware struct {
	authorizeUC *usecases.AuthorizeUseCase
	logger      logger.Interface
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authorizeUC *usecases.AuthorizeUseCase, log logger.Interface) *AuthMiddleware {
	return &AuthMiddleware{
		authorizeUC: authorizeUC,
		logger:      log,
	}
}

// RequireAuth rejects requests whose credential does not resolve to a
// federated identity. Tokens that verified upstream but were issued for
// another application are logged as security events before rejection.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("Authorization")

		ident, err := m.authorizeUC.Execute(c.Request.Context(), raw)
		if err != nil {
			if errors.IsSecurityEvent(err) {
				m.logger.Warnw("credential rejected as security event",
					"client_ip", c.ClientIP(),
					"path", c.Request.URL.Path,
					"error", err)
			}
			utils.ErrorResponseWithError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, ident.IdentityID)
		c.Set(ContextKeyUserEmail, ident.Email)
		c.Set(ContextKeyIdentity, ident)

		c.Next()
	}
}
