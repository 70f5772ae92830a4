package config

import (
	"errors"
	"sync/atomic"

	"github.com/spf13/viper"
)

// ProviderSnapshot is an immutable view of the provider and federation
// credentials. Callers read a snapshot per request; a scheduled reload
// swaps in a fresh snapshot instead of mutating shared state in place.
type ProviderSnapshot struct {
	AmazonClientID        string
	GoogleClientID        string
	FacebookClientID      string
	IdentityPoolID        string
	DeveloperProviderName string
}

// SnapshotStore holds the current provider snapshot behind an atomic
// pointer.
type SnapshotStore struct {
	current atomic.Pointer[ProviderSnapshot]
}

// NewSnapshotStore builds a store seeded from the given configuration.
func NewSnapshotStore(cfg *Config) *SnapshotStore {
	s := &SnapshotStore{}
	s.current.Store(snapshotFrom(cfg))
	return s
}

// Current returns the active snapshot. The returned value must be treated
// as read-only.
func (s *SnapshotStore) Current() *ProviderSnapshot {
	return s.current.Load()
}

// Swap installs a new snapshot.
func (s *SnapshotStore) Swap(snap *ProviderSnapshot) {
	s.current.Store(snap)
}

// Reload re-reads provider credentials from the configuration sources and
// swaps in a fresh snapshot. Invoked on a fixed schedule so credential
// rotation does not require a restart.
func (s *SnapshotStore) Reload() error {
	if err := viper.ReadInConfig(); err != nil {
		// Env-only deployments have no file; keep whatever viper holds.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return err
	}

	s.current.Store(snapshotFrom(&cfg))
	return nil
}

func snapshotFrom(cfg *Config) *ProviderSnapshot {
	return &ProviderSnapshot{
		AmazonClientID:        cfg.Providers.Amazon.ClientID,
		GoogleClientID:        cfg.Providers.Google.ClientID,
		FacebookClientID:      cfg.Providers.Facebook.ClientID,
		IdentityPoolID:        cfg.Federation.IdentityPoolID,
		DeveloperProviderName: cfg.Federation.DeveloperProviderName,
	}
}
