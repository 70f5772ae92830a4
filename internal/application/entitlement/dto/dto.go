package dto

// StartSessionRequest represents the request to start a streaming session
type StartSessionRequest struct {
	SubscriptionCreatedAt int64 `json:"subscription_created_at" binding:"required"`
}

// StartSessionResponse represents a freshly entitled session
type StartSessionResponse struct {
	SessionCreatedAt int64  `json:"session_created_at"`
	ApplicationID    string `json:"application_id"`
	ApplicationName  string `json:"application_name"`
	State            string `json:"state"`
	EntitlementURL   string `json:"entitlement_url"`
	ValidForMs       int64  `json:"valid_for_ms"`
}

// SubscriptionResponse represents one subscription grant
type SubscriptionResponse struct {
	CreatedAt         int64  `json:"created_at"`
	ApplicationID     string `json:"application_id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	PerSessionLimitMs int64  `json:"per_session_limit_ms"`
	TotalRemainingMs  int64  `json:"total_remaining_ms"`
}

// SessionResponse represents one session record
type SessionResponse struct {
	CreatedAt       int64  `json:"created_at"`
	SubscriptionAt  int64  `json:"subscription_created_at"`
	ApplicationID   string `json:"application_id"`
	ApplicationName string `json:"application_name"`
	State           string `json:"state"`
	StartedAtMilli  *int64 `json:"started_at,omitempty"`
	EndedAtMilli    *int64 `json:"ended_at,omitempty"`
	Expired         bool   `json:"expired"`
}
