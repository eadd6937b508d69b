// Package cache keeps short-lived copies of per-user transaction lists so the
// dashboard does not hit storage on every request.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultTTL applies when CACHE_TTL is not set.
const DefaultTTL = time.Minute

// Cache defines a generic cache interface
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(key string) (T, bool)

	// Set stores a value in the cache
	Set(key string, data T)

	// Delete removes a key from the cache
	Delete(key string)

	// Size returns the current number of items in the cache
	Size() int
}

// TTLCache expires entries after a fixed duration. Expired entries are
// swept by go-cache's janitor every 2*ttl.
type TTLCache[T any] struct {
	store *gocache.Cache
}

var _ Cache[int] = (*TTLCache[int])(nil)

// NewTTLCache returns a cache whose entries live for ttl. A non-positive ttl
// falls back to DefaultTTL.
func NewTTLCache[T any](ttl time.Duration) *TTLCache[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TTLCache[T]{store: gocache.New(ttl, 2*ttl)}
}

func (c *TTLCache[T]) Get(key string) (T, bool) {
	var zero T
	v, ok := c.store.Get(key)
	if !ok {
		return zero, false
	}
	data, ok := v.(T)
	if !ok {
		return zero, false
	}
	return data, true
}

func (c *TTLCache[T]) Set(key string, data T) {
	c.store.SetDefault(key, data)
}

func (c *TTLCache[T]) Delete(key string) {
	c.store.Delete(key)
}

// Size counts stored items, including expired ones not yet swept.
func (c *TTLCache[T]) Size() int {
	return c.store.ItemCount()
}

// Flush drops every entry.
func (c *TTLCache[T]) Flush() {
	c.store.Flush()
}
