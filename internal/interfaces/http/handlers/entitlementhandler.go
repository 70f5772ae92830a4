package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authDto "streamgate/internal/application/auth/dto"
	"streamgate/internal/application/entitlement/dto"
	"streamgate/internal/application/entitlement/usecases"
	"streamgate/internal/domain/identity"
	"streamgate/internal/interfaces/http/middleware"
	"streamgate/internal/shared/logger"
	"streamgate/internal/shared/utils"
)

// EntitlementHandler handles HTTP requests for subscriptions and sessions
type EntitlementHandler struct {
	listSubscriptionsUC *usecases.ListSubscriptionsUseCase
	listSessionsUC      *usecases.ListSessionsUseCase
	startSessionUC      *usecases.StartSessionUseCase
	logger              logger.Interface
}

// NewEntitlementHandler creates a new entitlement handler
func NewEntitlementHandler(
	listSubscriptionsUC *usecases.ListSubscriptionsUseCase,
	listSessionsUC *usecases.ListSessionsUseCase,
	startSessionUC *usecases.StartSessionUseCase,
	log logger.Interface,
) *EntitlementHandler {
	return &EntitlementHandler{
		listSubscriptionsUC: listSubscriptionsUC,
		listSessionsUC:      listSessionsUC,
		startSessionUC:      startSessionUC,
		logger:              log,
	}
}

// ListSubscriptions handles GET /api/entitlements
func (h *EntitlementHandler) ListSubscriptions(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)

	subs, err := h.listSubscriptionsUC.Execute(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, gin.H{"subscriptions": subs})
}

// ListSessions handles GET /api/entitlements/sessions
func (h *EntitlementHandler) ListSessions(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)

	sessions, err := h.listSessionsUC.Execute(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, gin.H{"sessions": sessions})
}

// StartSession handles POST /api/entitlements/session/start
func (h *EntitlementHandler) StartSession(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)
	email := c.GetString(middleware.ContextKeyUserEmail)

	policy := identity.PolicyDefer
	if ident, exists := c.Get(middleware.ContextKeyIdentity); exists {
		if resp, ok := ident.(*authDto.IdentityResponse); ok {
			policy = resp.EntitlementPolicy
		}
	}

	var req dto.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for start session", "user_id", userID, "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.startSessionUC.Execute(c.Request.Context(), userID, email, policy, &req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, resp)
}
