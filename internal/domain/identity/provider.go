package identity

import "context"

// EntitlementPolicy is the tri-state bypass signal a provider reports for
// admission checks. Single-provider schemes may always entitle; composite
// dispatchers defer the decision to the caller.
type EntitlementPolicy int

const (
	// PolicyDefer leaves the decision to the caller.
	PolicyDefer EntitlementPolicy = iota
	// PolicyNever means the provider never bypasses entitlement checks.
	PolicyNever
	// PolicyAlways means every authorized user is entitled.
	PolicyAlways
)

// Provider verifies an opaque access token for one external identity
// provider and completes it into an Identity.
//
// Verify confirms the token is valid and was issued for this application.
// When the verification call also yields profile information it returns a
// complete Identity; when it cannot (the provider's verification endpoint
// returns no profile), it returns (nil, nil) and FetchProfile is called
// with the same token.
type Provider interface {
	// Tag returns the provider tag credentials must lead with.
	Tag() string

	Verify(ctx context.Context, token string) (*Identity, error)

	FetchProfile(ctx context.Context, token string) (*Identity, error)

	EntitlementPolicy() EntitlementPolicy
}
