package auth

import (
	"context"
	"fmt"
	"net/http"

	"streamgate/internal/domain/identity"
	"streamgate/internal/infrastructure/config"
	"streamgate/internal/shared/errors"
)

const (
	googleTag          = "GoogleOAuth2"
	googleProviderName = "Login with Google"
	googleDefaultBase  = "https://www.googleapis.com"
)

// GoogleProvider verifies Google OAuth2 access tokens. The userinfo
// endpoint both validates the token and returns the profile, so a single
// call completes the pipeline.
type GoogleProvider struct {
	baseURL string
	client  *http.Client
}

func NewGoogleProvider(cfg config.ProviderConfig) *GoogleProvider {
	base := cfg.BaseURL
	if base == "" {
		base = googleDefaultBase
	}
	return &GoogleProvider{
		baseURL: base,
		client:  newHTTPClient(),
	}
}

func (p *GoogleProvider) Tag() string {
	return googleTag
}

func (p *GoogleProvider) EntitlementPolicy() identity.EntitlementPolicy {
	return identity.PolicyNever
}

// Verify calls the userinfo endpoint with a bearer Authorization header
// and returns a complete identity on success.
func (p *GoogleProvider) Verify(ctx context.Context, token string) (*identity.Identity, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	status, m, err := getJSON(ctx, p.client, p.baseURL+"/userinfo/v2/me", header, googleProviderName)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusOK:
		email := stringField(m, "email")
		if email == "" {
			return nil, errors.NewUpstreamProtocolError(googleProviderName, "expected response to include email but it does not")
		}
		return &identity.Identity{
			ExternalID: stringField(m, "id"),
			Email:      email,
		}, nil
	case status == http.StatusBadRequest:
		return nil, errors.NewBadUpstreamRequestError(buildEnvelopeErrorMessage(m, status, googleProviderName), googleTag)
	case status >= 500:
		return nil, errors.NewUpstreamServiceError(googleProviderName, status)
	default:
		return nil, errors.NewUpstreamProtocolError(googleProviderName, fmt.Sprintf("status code: %d", status))
	}
}

// FetchProfile is never reached for Google: Verify always yields a
// complete identity or fails.
func (p *GoogleProvider) FetchProfile(ctx context.Context, token string) (*identity.Identity, error) {
	return p.Verify(ctx, token)
}
