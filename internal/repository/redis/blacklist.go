package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "revoked_jti:"

// minTTL keeps a just-expiring token's blacklist entry alive briefly so a
// concurrent rotation cannot slip past a zero-TTL SET.
const minTTL = time.Second

// BlacklistStore implements auth.RevocationStore using Redis. Entries expire
// with the token they revoke, so the set never outgrows the refresh window.
type BlacklistStore struct {
	client *redis.Client
}

// NewBlacklistStore creates a new Redis-backed revocation store.
func NewBlacklistStore(client *redis.Client) *BlacklistStore {
	return &BlacklistStore{client: client}
}

// Contains reports whether the jti has been revoked.
func (s *BlacklistStore) Contains(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists jti: %w", err)
	}
	return n > 0, nil
}

// Add records the jti until expiresAt, returning true only for the first
// caller to record it. SET NX makes the insert atomic across concurrent
// callers on the same jti.
func (s *BlacklistStore) Add(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	ttl := time.Until(expiresAt)
	if ttl < minTTL {
		ttl = minTTL
	}

	added, err := s.client.SetNX(ctx, keyPrefix+jti, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx jti: %w", err)
	}
	return added, nil
}
