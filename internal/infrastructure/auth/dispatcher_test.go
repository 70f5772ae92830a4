package auth

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamgate/internal/domain/identity"
	"streamgate/internal/infrastructure/federation"
	"streamgate/internal/shared/errors"
	"streamgate/internal/shared/logger"
)

type fakeProvider struct {
	tag          string
	verifyIdent  *identity.Identity
	verifyErr    error
	profileIdent *identity.Identity
	profileErr   error
	policy       identity.EntitlementPolicy
	profileCalls int
}

func (p *fakeProvider) Tag() string { return p.tag }

func (p *fakeProvider) Verify(ctx context.Context, token string) (*identity.Identity, error) {
	return p.verifyIdent, p.verifyErr
}

func (p *fakeProvider) FetchProfile(ctx context.Context, token string) (*identity.Identity, error) {
	p.profileCalls++
	return p.profileIdent, p.profileErr
}

func (p *fakeProvider) EntitlementPolicy() identity.EntitlementPolicy { return p.policy }

type fakeExchange struct {
	poolID       string
	providerName string
	loginKey     string
	result       *federation.Result
	err          error
}

func (e *fakeExchange) ExchangeDeveloperIdentity(ctx context.Context, identityPoolID, developerProviderName, loginKey string) (*federation.Result, error) {
	e.poolID = identityPoolID
	e.providerName = developerProviderName
	e.loginKey = loginKey
	return e.result, e.err
}

func (e *fakeExchange) LookupByLoginKey(ctx context.Context, identityPoolID, developerProviderName, loginKey string) (string, error) {
	if e.result == nil {
		return "", e.err
	}
	return e.result.IdentityID, e.err
}

func (e *fakeExchange) Unlink(ctx context.Context, identityID, developerProviderName, loginKey string) error {
	return e.err
}

func newTestDispatcher(provider *fakeProvider, exchange *fakeExchange) *Dispatcher {
	return NewDispatcher(
		[]identity.Provider{provider},
		exchange,
		newTestSnapshots("amzn1.application.ours", ""),
		logger.NewNop(),
	)
}

func TestDispatcherAuthorizeCompleteVerification(t *testing.T) {
	provider := &fakeProvider{
		tag:         "GoogleOAuth2",
		verifyIdent: &identity.Identity{ExternalID: "g-123", Email: "user@example.com"},
	}
	exchange := &fakeExchange{
		result: &federation.Result{IdentityID: "pool-1:id-abc", Token: "fed-token"},
	}
	d := newTestDispatcher(provider, exchange)
	begin := time.Now()

	ident, err := d.Authorize(context.Background(), "GoogleOAuth2 ya29.token")
	require.NoError(t, err)

	assert.Equal(t, "pool-1:id-abc", ident.ExternalID)
	assert.Equal(t, "fed-token", ident.FederatedToken)
	assert.Equal(t, "user@example.com", ident.Email)
	assert.Zero(t, provider.profileCalls, "profile fetch is skipped when verification is complete")

	// Federated tokens are valid for 15 minutes from authorization.
	assert.WithinDuration(t, begin.Add(FederatedTokenTTL), ident.TokenExpiresAt, 2*time.Second)

	assert.Equal(t, "pool-1", exchange.poolID)
	assert.Equal(t, "login.example", exchange.providerName)
	assert.Equal(t, base64.RawStdEncoding.EncodeToString([]byte("user@example.com")), exchange.loginKey)
}

func TestDispatcherAuthorizeTwoStepVerification(t *testing.T) {
	provider := &fakeProvider{
		tag:          "AmazonOAuth2",
		verifyIdent:  nil, // verification yields no profile
		profileIdent: &identity.Identity{ExternalID: "amzn1.account.user", Email: "user@example.com"},
	}
	exchange := &fakeExchange{
		result: &federation.Result{IdentityID: "pool-1:id-abc", Token: "fed-token"},
	}
	d := newTestDispatcher(provider, exchange)

	ident, err := d.Authorize(context.Background(), "AmazonOAuth2 Atza|token")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.profileCalls)
	assert.Equal(t, "pool-1:id-abc", ident.ExternalID)
}

func TestDispatcherAuthorizeUnknownTag(t *testing.T) {
	d := newTestDispatcher(&fakeProvider{tag: "AmazonOAuth2"}, &fakeExchange{})

	_, err := d.Authorize(context.Background(), "TwitterOAuth abc")
	require.Error(t, err)

	authErr := errors.GetAuthorizationError(err)
	require.NotNil(t, authErr)
	assert.Equal(t, errors.ErrorTypeUnknownProvider, authErr.Type)
}

func TestDispatcherAuthorizeMalformedCredential(t *testing.T) {
	d := newTestDispatcher(&fakeProvider{tag: "AmazonOAuth2"}, &fakeExchange{})

	_, err := d.Authorize(context.Background(), "just-a-token")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeMalformedCredential, errors.GetAuthorizationError(err).Type)
}

func TestDispatcherAuthorizeIdentityWithoutEmail(t *testing.T) {
	provider := &fakeProvider{
		tag:          "AmazonOAuth2",
		profileIdent: &identity.Identity{ExternalID: "amzn1.account.user"},
	}
	d := newTestDispatcher(provider, &fakeExchange{})

	_, err := d.Authorize(context.Background(), "AmazonOAuth2 Atza|token")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeEncoding, errors.GetAuthorizationError(err).Type)
}

func TestDispatcherPolicyFor(t *testing.T) {
	provider := &fakeProvider{tag: "AmazonOAuth2", policy: identity.PolicyAlways}
	d := newTestDispatcher(provider, &fakeExchange{})

	assert.Equal(t, identity.PolicyAlways, d.PolicyFor("AmazonOAuth2 Atza|token"))
	assert.Equal(t, identity.PolicyDefer, d.PolicyFor("UnknownOAuth token"))
	assert.Equal(t, identity.PolicyDefer, d.PolicyFor("malformed"))
}
