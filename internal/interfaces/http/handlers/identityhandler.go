package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"streamgate/internal/application/auth/dto"
	"streamgate/internal/interfaces/http/middleware"
	"streamgate/internal/shared/logger"
	"streamgate/internal/shared/utils"
)

// IdentityHandler handles HTTP requests for the authorized identity
type IdentityHandler struct {
	logger logger.Interface
}

// NewIdentityHandler creates a new identity handler
func NewIdentityHandler(log logger.Interface) *IdentityHandler {
	return &IdentityHandler{logger: log}
}

// GetIdentity handles GET /api/identity. The auth middleware has already
// resolved the credential; this endpoint just echoes the result so
// clients can obtain their federated token.
func (h *IdentityHandler) GetIdentity(c *gin.Context) {
	ident, exists := c.Get(middleware.ContextKeyIdentity)
	if !exists {
		utils.ErrorResponse(c, http.StatusInternalServerError, "identity missing from request context")
		return
	}

	resp, ok := ident.(*dto.IdentityResponse)
	if !ok {
		utils.ErrorResponse(c, http.StatusInternalServerError, "identity missing from request context")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, resp)
}
