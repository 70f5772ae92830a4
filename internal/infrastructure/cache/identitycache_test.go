package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamgate/internal/domain/identity"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client
}

func TestIdentityCacheRoundTrip(t *testing.T) {
	c := NewIdentityCache(setupTestRedis(t))
	ctx := context.Background()

	ident := &identity.Identity{
		ExternalID:     "pool-1:id-abc",
		Email:          "user@example.com",
		FederatedToken: "fed-token",
		TokenExpiresAt: time.Now().Add(10 * time.Minute),
	}

	require.NoError(t, c.Set(ctx, "GoogleOAuth2 ya29.token", ident))

	got, err := c.Get(ctx, "GoogleOAuth2 ya29.token")
	require.NoError(t, err)
	assert.Equal(t, ident.ExternalID, got.ExternalID)
	assert.Equal(t, ident.Email, got.Email)
	assert.Equal(t, ident.FederatedToken, got.FederatedToken)
}

func TestIdentityCacheMiss(t *testing.T) {
	c := NewIdentityCache(setupTestRedis(t))

	_, err := c.Get(context.Background(), "GoogleOAuth2 unseen")
	assert.ErrorIs(t, err, ErrIdentityNotCached)
}

func TestIdentityCacheExpiredTokenIsAMiss(t *testing.T) {
	c := NewIdentityCache(setupTestRedis(t))
	ctx := context.Background()

	ident := &identity.Identity{
		ExternalID:     "pool-1:id-abc",
		Email:          "user@example.com",
		FederatedToken: "fed-token",
		TokenExpiresAt: time.Now().Add(-time.Minute),
	}
	// An already-expired identity may still be written (TTL floor), but
	// reads must treat it as a miss.
	require.NoError(t, c.Set(ctx, "GoogleOAuth2 stale", ident))

	_, err := c.Get(ctx, "GoogleOAuth2 stale")
	assert.ErrorIs(t, err, ErrIdentityNotCached)
}

func TestIdentityCacheDelete(t *testing.T) {
	c := NewIdentityCache(setupTestRedis(t))
	ctx := context.Background()

	ident := &identity.Identity{
		ExternalID:     "pool-1:id-abc",
		Email:          "user@example.com",
		TokenExpiresAt: time.Now().Add(10 * time.Minute),
	}
	require.NoError(t, c.Set(ctx, "cred", ident))
	require.NoError(t, c.Delete(ctx, "cred"))

	_, err := c.Get(ctx, "cred")
	assert.ErrorIs(t, err, ErrIdentityNotCached)
}

func TestIdentityCacheKeysAreDigests(t *testing.T) {
	client := setupTestRedis(t)
	c := NewIdentityCache(client)
	ctx := context.Background()

	secret := "GoogleOAuth2 ya29.super-secret-token"
	ident := &identity.Identity{
		ExternalID:     "pool-1:id-abc",
		Email:          "user@example.com",
		TokenExpiresAt: time.Now().Add(10 * time.Minute),
	}
	require.NoError(t, c.Set(ctx, secret, ident))

	keys, err := client.Keys(ctx, "*").Result()
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.NotContains(t, keys[0], "super-secret-token")
}
