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
	amazonTag          = "AmazonOAuth2"
	amazonProviderName = "Login With Amazon"
	amazonDefaultBase  = "https://api.amazon.com"
)

// amazonErrorMessages maps provider error codes to user-facing messages.
var amazonErrorMessages = map[string]string{
	"invalid_request":    "The request is missing a required parameter, has an invalid value, or is otherwise improperly formed.",
	"invalid_token":      "Token provided is invalid or has expired.",
	"insufficient_scope": "The access token provided does not have access to the required scope.",
}

// AmazonProvider verifies Login With Amazon access tokens. Verification
// goes through the token-introspection endpoint, which yields no profile,
// so the profile endpoint is called separately.
type AmazonProvider struct {
	baseURL   string
	snapshots *config.SnapshotStore
	client    *http.Client
}

func NewAmazonProvider(cfg config.ProviderConfig, snapshots *config.SnapshotStore) *AmazonProvider {
	base := cfg.BaseURL
	if base == "" {
		base = amazonDefaultBase
	}
	return &AmazonProvider{
		baseURL:   base,
		snapshots: snapshots,
		client:    newHTTPClient(),
	}
}

func (p *AmazonProvider) Tag() string {
	return amazonTag
}

func (p *AmazonProvider) EntitlementPolicy() identity.EntitlementPolicy {
	return identity.PolicyNever
}

// Verify calls the tokeninfo endpoint with the token as a query parameter
// and compares the token's audience claim against our registered client
// id. A valid token issued for another application is a security failure,
// not an auth failure. The response carries no profile, so a verified
// token yields a nil identity and FetchProfile completes the pipeline.
func (p *AmazonProvider) Verify(ctx context.Context, token string) (*identity.Identity, error) {
	endpoint := fmt.Sprintf("%s/auth/o2/tokeninfo?access_token=%s", p.baseURL, url.QueryEscape(token))

	status, m, err := getJSON(ctx, p.client, endpoint, nil, amazonProviderName)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusOK:
		if aud := stringField(m, "aud"); aud != p.snapshots.Current().AmazonClientID {
			return nil, errors.NewTokenNotOursError(amazonTag)
		}
		return nil, nil
	case status == http.StatusBadRequest:
		return nil, errors.NewBadUpstreamRequestError(p.errorMessage(m, status), amazonTag)
	case status >= 500:
		return nil, errors.NewUpstreamServiceError(amazonProviderName, status)
	default:
		return nil, errors.NewUpstreamProtocolError(amazonProviderName, fmt.Sprintf("status code: %d", status))
	}
}

// FetchProfile exchanges the access token for the user's profile via a
// bearer Authorization header.
func (p *AmazonProvider) FetchProfile(ctx context.Context, token string) (*identity.Identity, error) {
	header := http.Header{}
	header.Set("Authorization", "bearer "+token)

	status, m, err := getJSON(ctx, p.client, p.baseURL+"/user/profile", header, amazonProviderName)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusOK:
		email := stringField(m, "email")
		if email == "" {
			return nil, errors.NewUpstreamProtocolError(amazonProviderName, "expected response to include email but it does not")
		}
		return &identity.Identity{
			ExternalID: stringField(m, "user_id"),
			Email:      email,
		}, nil
	case status == http.StatusBadRequest || status == http.StatusUnauthorized:
		return nil, errors.NewBadUpstreamRequestError(p.errorMessage(m, status), amazonTag)
	case status >= 500:
		return nil, errors.NewUpstreamServiceError(amazonProviderName, status)
	default:
		return nil, errors.NewUpstreamProtocolError(amazonProviderName, fmt.Sprintf("status code: %d", status))
	}
}

func (p *AmazonProvider) errorMessage(m map[string]any, statusCode int) string {
	errorCode := stringField(m, "message")
	if errorCode == "" {
		return fmt.Sprintf("Bad %s request. Status code: %d", amazonProviderName, statusCode)
	}
	if msg, ok := amazonErrorMessages[errorCode]; ok {
		return msg
	}
	if desc := stringField(m, "error_description"); desc != "" {
		return desc
	}
	return fmt.Sprintf("%s error code: %s. Status code: %d", amazonProviderName, errorCode, statusCode)
}
