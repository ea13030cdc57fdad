package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// DefaultTTL is the freshness window for cached weather payloads.
const DefaultTTL = 5 * time.Minute

// Entry stores an opaque JSON payload with the instant it was cached.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Cache defines the interface for weather payload caching implementations.
// Get returns the entry if present and still fresh; Set stores data stamped
// with the current time, overwriting any previous entry for the key.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, data json.RawMessage) error
}

// InMemoryCache implements Cache using an in-memory map with a fixed TTL.
// Keys are used verbatim (case-sensitive, not normalized). Stale entries are
// reported as misses but stay in the map until overwritten; nothing is ever
// evicted, so memory grows with the number of distinct keys. Safe for
// concurrent use.
type InMemoryCache struct {
	mu   sync.RWMutex
	ttl  time.Duration
	data map[string]Entry
}

// NewInMemoryCache creates an in-memory cache with the given TTL.
// A non-positive ttl falls back to DefaultTTL.
func NewInMemoryCache(ttl time.Duration) *InMemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InMemoryCache{
		ttl:  ttl,
		data: make(map[string]Entry),
	}
}

// Get retrieves the cached entry for the key if present and fresh.
// Returns (entry, true, nil) on a fresh hit, (zero, false, nil) on a miss or
// when the entry has aged past the TTL. Stale entries are left in place.
func (c *InMemoryCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	if !ok {
		return Entry{}, false, nil
	}
	if time.Since(entry.Timestamp) >= c.ttl {
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Set stores data under the key with a fresh timestamp, replacing any
// existing entry.
func (c *InMemoryCache) Set(ctx context.Context, key string, data json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = Entry{
		Data:      data,
		Timestamp: time.Now(),
	}
	return nil
}

// Len reports the number of entries held, fresh or stale.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
