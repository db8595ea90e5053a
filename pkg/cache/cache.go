// Package cache provides the short-lived result cache used between keystrokes.
//
// Entries are keyed by the literal query string and expire after a fixed
// TTL. There is no prefix sharing: "dep" and "depl" are unrelated entries.
// Any known change to the underlying data must call InvalidateAll; TTL expiry
// only bounds how long unknown changes stay invisible.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is the default entry lifetime.
const DefaultTTL = 3 * time.Second

// Clock returns the current time. Tests swap it for a fake.
type Clock func() time.Time

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache is a TTL cache from query strings to computed results.
// It is safe for concurrent use.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration
	now     Clock
	hits    int64
	misses  int64
	// gen counts InvalidateAll calls.
	gen uint64
}

// New creates a cache with the given TTL. A nil clock means time.Now.
func New[V any](ttl time.Duration, clock Clock) *Cache[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     clock,
	}
}

// Get returns the value stored for query if it is still fresh.
// Stale entries are dropped on the way out.
func (c *Cache[V]) Get(query string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[query]
	if !ok {
		c.misses++
		return zero, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, query)
		c.misses++
		return zero, false
	}
	c.hits++
	return e.value, true
}

// Put stores value for query, replacing any previous entry.
func (c *Cache[V]) Put(query string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[query] = entry[V]{value: value, storedAt: c.now()}
}

// Generation returns the current invalidation generation.
func (c *Cache[V]) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// PutIfCurrent stores value only if no InvalidateAll happened since gen was
// read. It reports whether the value was stored.
func (c *Cache[V]) PutIfCurrent(gen uint64, query string, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return false
	}
	c.entries[query] = entry[V]{value: value, storedAt: c.now()}
	return true
}

// Invalidate drops the entry for query.
func (c *Cache[V]) Invalidate(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, query)
}

// InvalidateAll drops every entry.
func (c *Cache[V]) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry[V])
	c.gen++
}

// Prune removes expired entries and returns how many were dropped.
func (c *Cache[V]) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, fresh or not.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// TTL returns the configured time to live.
func (c *Cache[V]) TTL() time.Duration {
	return c.ttl
}

// Stats reports hit, miss and size counters.
func (c *Cache[V]) Stats() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]int{
		"entries": len(c.entries),
		"hits":    int(c.hits),
		"misses":  int(c.misses),
	}
}
