package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamgate/internal/infrastructure/config"
	"streamgate/internal/shared/errors"
)

func newTestSnapshots(amazonClientID, facebookClientID string) *config.SnapshotStore {
	cfg := &config.Config{}
	cfg.Providers.Amazon.ClientID = amazonClientID
	cfg.Providers.Facebook.ClientID = facebookClientID
	cfg.Federation.IdentityPoolID = "pool-1"
	cfg.Federation.DeveloperProviderName = "login.example"
	return config.NewSnapshotStore(cfg)
}

func newAmazonTestProvider(serverURL, clientID string) *AmazonProvider {
	return NewAmazonProvider(
		config.ProviderConfig{ClientID: clientID, BaseURL: serverURL},
		newTestSnapshots(clientID, ""),
	)
}

func TestAmazonVerifyValidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/o2/tokeninfo", r.URL.Path)
		assert.Equal(t, "Atza|token", r.URL.Query().Get("access_token"))
		json.NewEncoder(w).Encode(map[string]any{
			"aud":     "amzn1.application.ours",
			"user_id": "amzn1.account.user",
			"app_id":  "amzn1.application.ours.instance",
			"exp":     3600,
			"iat":     1500000000,
		})
	}))
	defer srv.Close()

	p := newAmazonTestProvider(srv.URL, "amzn1.application.ours")

	ident, err := p.Verify(context.Background(), "Atza|token")
	require.NoError(t, err)
	// Verification carries no profile; the dispatcher fetches it next.
	assert.Nil(t, ident)
}

func TestAmazonVerifyTokenForAnotherApplication(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"aud": "amzn1.application.theirs"})
	}))
	defer srv.Close()

	p := newAmazonTestProvider(srv.URL, "amzn1.application.ours")

	_, err := p.Verify(context.Background(), "Atza|token")
	require.Error(t, err)

	authErr := errors.GetAuthorizationError(err)
	require.NotNil(t, authErr)
	assert.Equal(t, errors.ErrorTypeTokenNotOurs, authErr.Type)
	assert.True(t, authErr.SecurityEvent)
	assert.Equal(t, http.StatusUnauthorized, authErr.Code)
	assert.Equal(t, "AmazonOAuth2", authErr.Challenge)
}

func TestAmazonVerifyBadRequestUsesKnownErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"message": "invalid_token"})
	}))
	defer srv.Close()

	p := newAmazonTestProvider(srv.URL, "amzn1.application.ours")

	_, err := p.Verify(context.Background(), "expired")
	require.Error(t, err)

	authErr := errors.GetAuthorizationError(err)
	require.NotNil(t, authErr)
	assert.Equal(t, errors.ErrorTypeBadUpstreamRequest, authErr.Type)
	assert.Equal(t, "Token provided is invalid or has expired.", authErr.Message)
}

func TestAmazonVerifyServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := newAmazonTestProvider(srv.URL, "amzn1.application.ours")

	_, err := p.Verify(context.Background(), "Atza|token")
	require.Error(t, err)

	authErr := errors.GetAuthorizationError(err)
	require.NotNil(t, authErr)
	assert.Equal(t, errors.ErrorTypeUpstreamService, authErr.Type)
	assert.Equal(t, http.StatusBadGateway, authErr.Code)
}

func TestAmazonFetchProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/profile", r.URL.Path)
		assert.Equal(t, "bearer Atza|token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"user_id": "amzn1.account.user",
			"email":   "user@example.com",
			"name":    "Test User",
		})
	}))
	defer srv.Close()

	p := newAmazonTestProvider(srv.URL, "amzn1.application.ours")

	ident, err := p.FetchProfile(context.Background(), "Atza|token")
	require.NoError(t, err)
	assert.Equal(t, "amzn1.account.user", ident.ExternalID)
	assert.Equal(t, "user@example.com", ident.Email)
}

func TestAmazonFetchProfileWithoutEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"user_id": "amzn1.account.user"})
	}))
	defer srv.Close()

	p := newAmazonTestProvider(srv.URL, "amzn1.application.ours")

	_, err := p.FetchProfile(context.Background(), "Atza|token")
	require.Error(t, err)

	authErr := errors.GetAuthorizationError(err)
	require.NotNil(t, authErr)
	assert.Equal(t, errors.ErrorTypeUpstreamProtocol, authErr.Type)
}
