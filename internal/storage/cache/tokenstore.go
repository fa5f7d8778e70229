package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/tinywideclouds/go-push-relay/pkg/dispatch"
)

// CacheClient defines the subset of Redis commands we need.
type CacheClient interface {
	// Get returns the value or an error if not found.
	Get(ctx context.Context, key string) (string, error)
	// Set stores the value with a TTL.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Del removes the key.
	Del(ctx context.Context, key string) error
}

// CachedTokenStore is a Decorator that adds read-aside caching to any TokenStore.
type CachedTokenStore struct {
	realStore dispatch.TokenStore
	cache     CacheClient
	ttl       time.Duration
}

func NewCachedTokenStore(realStore dispatch.TokenStore, cache CacheClient, ttl time.Duration) *CachedTokenStore {
	return &CachedTokenStore{
		realStore: realStore,
		cache:     cache,
		ttl:       ttl,
	}
}

// --- READ PATH (Read-Aside) ---

func (s *CachedTokenStore) GetToken(ctx context.Context, userID string) (string, error) {
	key := s.cacheKey(userID)

	if token, err := s.cache.Get(ctx, key); err == nil && token != "" {
		return token, nil
	}

	// Miss (or Redis unavailable): fall through to the source of truth.
	token, err := s.realStore.GetToken(ctx, userID)
	if err != nil {
		return "", err
	}

	// Populate Cache (Fire and Forget). Caching is an optimization, not a
	// transaction; if Redis is down we just keep serving from the store.
	_ = s.cache.Set(ctx, key, token, s.ttl)

	return token, nil
}

// --- WRITE PATHS (Invalidate-on-Write) ---

func (s *CachedTokenStore) SetToken(ctx context.Context, userID string, token string) error {
	if err := s.realStore.SetToken(ctx, userID, token); err != nil {
		return err
	}
	return s.invalidate(ctx, userID)
}

// ClearToken must drop the cached entry even though the store write succeeded,
// otherwise a signed-out device keeps receiving pushes until the TTL expires.
func (s *CachedTokenStore) ClearToken(ctx context.Context, userID string) error {
	if err := s.realStore.ClearToken(ctx, userID); err != nil {
		return err
	}
	return s.invalidate(ctx, userID)
}

// --- Helpers ---

func (s *CachedTokenStore) invalidate(ctx context.Context, userID string) error {
	// The next GetToken is forced back to the source of truth. This keeps
	// sign-out consistent: a cleared token stops receiving pushes immediately
	// instead of after the TTL.
	return s.cache.Del(ctx, s.cacheKey(userID))
}

func (s *CachedTokenStore) cacheKey(userID string) string {
	return fmt.Sprintf("relay:token:%s", userID)
}
