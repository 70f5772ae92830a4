package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"streamgate/internal/domain/identity"
)

const (
	identityCachePrefix = "identity:credential:"
	identityCacheTTL    = 15 * time.Minute
)

// ErrIdentityNotCached is returned when no verified identity is stored for
// a credential.
var ErrIdentityNotCached = errors.New("identity not cached")

// IdentityCache stores verified identities keyed by a digest of the raw
// credential, so repeated requests carrying the same token skip the
// upstream verification round trips. Entries expire together with the
// federated token they carry.
type IdentityCache struct {
	client *redis.Client
}

// NewIdentityCache creates a new IdentityCache instance
func NewIdentityCache(client *redis.Client) *IdentityCache {
	return &IdentityCache{client: client}
}

type cachedIdentity struct {
	ExternalID     string    `json:"external_id"`
	Email          string    `json:"email"`
	FederatedToken string    `json:"federated_token"`
	TokenExpiresAt time.Time `json:"token_expires_at"`
}

// Get returns the cached identity for a credential, or ErrIdentityNotCached.
// A cached identity whose federated token already expired is treated as a
// miss and evicted.
func (c *IdentityCache) Get(ctx context.Context, credential string) (*identity.Identity, error) {
	key := identityCacheKey(credential)

	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrIdentityNotCached
		}
		return nil, fmt.Errorf("failed to get cached identity: %w", err)
	}

	var stored cachedIdentity
	if err := json.Unmarshal([]byte(val), &stored); err != nil {
		// Corrupt entry, drop it and fall through to a live verification.
		c.client.Del(ctx, key)
		return nil, ErrIdentityNotCached
	}

	if !time.Now().Before(stored.TokenExpiresAt) {
		c.client.Del(ctx, key)
		return nil, ErrIdentityNotCached
	}

	return &identity.Identity{
		ExternalID:     stored.ExternalID,
		Email:          stored.Email,
		FederatedToken: stored.FederatedToken,
		TokenExpiresAt: stored.TokenExpiresAt,
	}, nil
}

// Set stores a verified identity for a credential. The entry's TTL is
// capped at the federated token's remaining lifetime.
func (c *IdentityCache) Set(ctx context.Context, credential string, id *identity.Identity) error {
	stored := cachedIdentity{
		ExternalID:     id.ExternalID,
		Email:          id.Email,
		FederatedToken: id.FederatedToken,
		TokenExpiresAt: id.TokenExpiresAt,
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal identity: %w", err)
	}

	ttl := identityCacheTTL
	if remaining := time.Until(id.TokenExpiresAt); remaining > 0 && remaining < ttl {
		ttl = remaining
	}

	if err := c.client.Set(ctx, identityCacheKey(credential), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache identity: %w", err)
	}
	return nil
}

// Delete evicts the cached identity for a credential
func (c *IdentityCache) Delete(ctx context.Context, credential string) error {
	return c.client.Del(ctx, identityCacheKey(credential)).Err()
}

// identityCacheKey digests the raw credential so tokens never appear in
// Redis keys.
func identityCacheKey(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return identityCachePrefix + hex.EncodeToString(sum[:])
}
