// Package identity defines the transient identity produced by the
// authorization pipeline and the provider capability set used to verify
// third-party credentials.
package identity

import "time"

// Identity is the result of authorizing a bearer credential. ExternalID is
// the only field guaranteed present before federation enrichment completes;
// after the exchange it holds the federated identity id.
type Identity struct {
	ExternalID     string
	Email          string
	FederatedToken string
	TokenExpiresAt time.Time
}

// HasEmail reports whether the identity carries a usable email address.
func (i *Identity) HasEmail() bool {
	return i != nil && i.Email != ""
}
