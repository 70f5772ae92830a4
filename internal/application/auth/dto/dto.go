package dto

import (
	"time"

	"streamgate/internal/domain/identity"
)

// IdentityResponse represents the authorized identity returned to callers.
// EntitlementPolicy stays off the wire; it only steers the grantor's
// admission check.
type IdentityResponse struct {
	IdentityID        string                     `json:"identity_id"`
	Email             string                     `json:"email"`
	FederatedToken    string                     `json:"federated_token"`
	TokenExpiresAt    time.Time                  `json:"token_expires_at"`
	EntitlementPolicy identity.EntitlementPolicy `json:"-"`
}
