package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"streamgate/internal/domain/identity"
	"streamgate/internal/infrastructure/config"
	"streamgate/internal/shared/errors"
)

const (
	facebookTag          = "FacebookOAuth2"
	facebookProviderName = "Login with Facebook"
	facebookDefaultBase  = "https://graph.facebook.com"
)

// FacebookProvider verifies Facebook OAuth2 access tokens against the
// graph API. The verification call returns only the application the token
// was issued for, so the profile is fetched separately.
type FacebookProvider struct {
	baseURL   string
	snapshots *config.SnapshotStore
	client    *http.Client
}

func NewFacebookProvider(cfg config.ProviderConfig, snapshots *config.SnapshotStore) *FacebookProvider {
	base := cfg.BaseURL
	if base == "" {
		base = facebookDefaultBase
	}
	return &FacebookProvider{
		baseURL:   base,
		snapshots: snapshots,
		client:    newHTTPClient(),
	}
}

func (p *FacebookProvider) Tag() string {
	return facebookTag
}

func (p *FacebookProvider) EntitlementPolicy() identity.EntitlementPolicy {
	return identity.PolicyNever
}

// Verify asks the graph API which application the token belongs to and
// compares it against our registered app id.
func (p *FacebookProvider) Verify(ctx context.Context, token string) (*identity.Identity, error) {
	endpoint := fmt.Sprintf("%s/app?access_token=%s", p.baseURL, url.QueryEscape(token))

	status, m, err := getJSON(ctx, p.client, endpoint, nil, facebookProviderName)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusOK:
		if id := stringField(m, "id"); id != p.snapshots.Current().FacebookClientID {
			return nil, errors.NewTokenNotOursError(facebookTag)
		}
		return nil, nil
	case status == http.StatusBadRequest:
		return nil, errors.NewBadUpstreamRequestError(buildEnvelopeErrorMessage(m, status, facebookProviderName), facebookTag)
	case status >= 500:
		return nil, errors.NewUpstreamServiceError(facebookProviderName, status)
	default:
		return nil, errors.NewUpstreamProtocolError(facebookProviderName, fmt.Sprintf("status code: %d", status))
	}
}

// FetchProfile retrieves the user's id and email from the graph API.
func (p *FacebookProvider) FetchProfile(ctx context.Context, token string) (*identity.Identity, error) {
	endpoint := fmt.Sprintf("%s/me?fields=id,email&access_token=%s", p.baseURL, url.QueryEscape(token))

	status, m, err := getJSON(ctx, p.client, endpoint, nil, facebookProviderName)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusOK:
		email := stringField(m, "email")
		if email == "" {
			return nil, errors.NewUpstreamProtocolError(facebookProviderName, "expected response to include email but it does not")
		}
		return &identity.Identity{
			ExternalID: stringField(m, "id"),
			Email:      email,
		}, nil
	case status == http.StatusBadRequest:
		return nil, errors.NewBadUpstreamRequestError(buildEnvelopeErrorMessage(m, status, facebookProviderName), facebookTag)
	case status >= 500:
		return nil, errors.NewUpstreamServiceError(facebookProviderName, status)
	default:
		return nil, errors.NewUpstreamProtocolError(facebookProviderName, fmt.Sprintf("status code: %d", status))
	}
}
