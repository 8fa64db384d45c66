package userstore

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/keycloak-sso/pkg/sso"
)

// Cache remembers successful lookups for a bounded time.
// Misses are not cached, so newly provisioned users resolve immediately.
type Cache struct {
	lookup sso.UserLookup[*User]
	cache  *lru.LRU[string, *User]
}

// NewCache wraps lookup with an LRU of at most size entries living ttl each
func NewCache(lookup sso.UserLookup[*User], size int, ttl time.Duration) *Cache {
	if size < 1 {
		size = 1
	}
	return &Cache{
		lookup: lookup,
		cache:  lru.NewLRU[string, *User](size, nil, ttl),
	}
}

// Lookup returns the cached user or falls through to the wrapped lookup
func (c *Cache) Lookup(ctx context.Context, email string, payload sso.TokenPayload) (*User, bool) {
	if user, ok := c.cache.Get(email); ok {
		return user, true
	}

	user, ok := c.lookup(ctx, email, payload)
	if ok {
		c.cache.Add(email, user)
	}
	return user, ok
}

// Invalidate drops a cached user, e.g. after deactivation
func (c *Cache) Invalidate(email string) {
	c.cache.Remove(email)
}

// Len returns the number of cached users
func (c *Cache) Len() int {
	return c.cache.Len()
}
