package provider

import (
	"context"
	"sync"
	"time"
)

// TokenTTL is shorter than the provider's real token lifetime on purpose.
const TokenTTL = 50 * time.Minute

// TokenCache holds one bearer token for one provider client.
// Refreshes are not de-duplicated: concurrent callers that find the token
// expired each fetch a new one and the last write wins.
type TokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time

	ttl   time.Duration
	now   func() time.Time
	fetch func(ctx context.Context) (string, error)
}

func NewTokenCache(ttl time.Duration, now func() time.Time, fetch func(ctx context.Context) (string, error)) *TokenCache {
	if now == nil {
		now = time.Now
	}
	return &TokenCache{ttl: ttl, now: now, fetch: fetch}
}

// Get returns the cached token while now < expiresAt, otherwise fetches a new one.
func (c *TokenCache) Get(ctx context.Context) (string, error) {
	c.mu.Lock()
	token, expiresAt := c.token, c.expiresAt
	now := c.now()
	c.mu.Unlock()

	if token != "" && now.Before(expiresAt) {
		return token, nil
	}

	token, err := c.fetch(ctx)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.token = token
	c.expiresAt = c.now().Add(c.ttl)
	c.mu.Unlock()
	return token, nil
}

// ExpiresAt reports when the cached token stops being served.
func (c *TokenCache) ExpiresAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expiresAt
}
