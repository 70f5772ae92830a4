package auth

import (
	"context"
	"encoding/base64"
	"time"

	"streamgate/internal/domain/identity"
	"streamgate/internal/infrastructure/config"
	"streamgate/internal/infrastructure/federation"
	"streamgate/internal/shared/errors"
	"streamgate/internal/shared/logger"
)

// FederatedTokenTTL is how long an exchanged federated token is considered
// valid by this service.
const FederatedTokenTTL = 15 * time.Minute

// Dispatcher routes a raw credential to the provider registered for its
// tag, completes the third-party identity, and exchanges it for a
// federated identity token.
type Dispatcher struct {
	providers map[string]identity.Provider
	exchange  federation.Exchange
	snapshots *config.SnapshotStore
	logger    logger.Interface
	now       func() time.Time
}

func NewDispatcher(
	providers []identity.Provider,
	exchange federation.Exchange,
	snapshots *config.SnapshotStore,
	log logger.Interface,
) *Dispatcher {
	byTag := make(map[string]identity.Provider, len(providers))
	for _, p := range providers {
		byTag[p.Tag()] = p
	}
	return &Dispatcher{
		providers: byTag,
		exchange:  exchange,
		snapshots: snapshots,
		logger:    log,
		now:       time.Now,
	}
}

// EntitlementPolicy defers the bypass decision to the caller: the
// composite dispatcher has no single provider to answer for.
func (d *Dispatcher) EntitlementPolicy() identity.EntitlementPolicy {
	return identity.PolicyDefer
}

// Authorize turns a raw credential into a federated identity. The
// verification step either yields a complete third-party identity or a
// nil one that the provider's profile call completes; the resulting email
// is base64-encoded into a login key and exchanged for the federated
// identity id and token.
func (d *Dispatcher) Authorize(ctx context.Context, rawCredential string) (*identity.Identity, error) {
	tag, token, err := ParseCredential(rawCredential)
	if err != nil {
		return nil, err
	}

	provider, ok := d.providers[tag]
	if !ok {
		d.logger.Warnw("unknown authorization type", "tag", tag)
		return nil, errors.NewUnknownProviderError(tag)
	}

	ident, err := provider.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	if ident == nil {
		ident, err = provider.FetchProfile(ctx, token)
		if err != nil {
			return nil, err
		}
	}

	if !ident.HasEmail() {
		return nil, errors.NewEncodingError("identity has no email to encode")
	}

	return d.federate(ctx, ident)
}

// federate exchanges a completed third-party identity for a federated
// identity id and token. The login key is the identity's email,
// base64-encoded without padding.
func (d *Dispatcher) federate(ctx context.Context, ident *identity.Identity) (*identity.Identity, error) {
	snap := d.snapshots.Current()
	loginKey := base64.RawStdEncoding.EncodeToString([]byte(ident.Email))

	result, err := d.exchange.ExchangeDeveloperIdentity(ctx, snap.IdentityPoolID, snap.DeveloperProviderName, loginKey)
	if err != nil {
		d.logger.Errorw("identity exchange failed", "error", err)
		return nil, err
	}

	ident.ExternalID = result.IdentityID
	ident.FederatedToken = result.Token
	ident.TokenExpiresAt = d.now().Add(FederatedTokenTTL)

	d.logger.Debugw("credential federated", "identity_id", ident.ExternalID)

	return ident, nil
}

// PolicyFor returns the entitlement policy of the provider a credential
// routes to. Unparseable or unroutable credentials defer, since the
// authorization step rejects them anyway.
func (d *Dispatcher) PolicyFor(rawCredential string) identity.EntitlementPolicy {
	tag, _, err := ParseCredential(rawCredential)
	if err != nil {
		return identity.PolicyDefer
	}
	provider, ok := d.providers[tag]
	if !ok {
		return identity.PolicyDefer
	}
	return provider.EntitlementPolicy()
}

// RegisteredTags returns the provider tags the dispatcher can handle.
func (d *Dispatcher) RegisteredTags() []string {
	tags := make([]string, 0, len(d.providers))
	for tag := range d.providers {
		tags = append(tags, tag)
	}
	return tags
}
