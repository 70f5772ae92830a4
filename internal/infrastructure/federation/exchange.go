// Package federation talks to the identity exchange service that turns a
// verified third-party identity into a federated identity id and token.
package federation

import "context"

// Result is the outcome of a developer identity exchange.
type Result struct {
	IdentityID string
	Token      string
}

// Exchange is the identity exchange service's client surface. The core
// uses ExchangeDeveloperIdentity; Lookup and Unlink serve administrative
// deprovisioning.
type Exchange interface {
	// ExchangeDeveloperIdentity submits a (provider name, login key) pair
	// and returns the federated identity id and token minted for it.
	ExchangeDeveloperIdentity(ctx context.Context, poolID, providerName, loginKey string) (*Result, error)

	// LookupByLoginKey resolves the federated identity id for a login key
	// without minting a token.
	LookupByLoginKey(ctx context.Context, poolID, providerName, loginKey string) (string, error)

	// Unlink disassociates a login key from a federated identity.
	Unlink(ctx context.Context, identityID, providerName, loginKey string) error
}
