// Package memory provides the in-process TTL result cache.
package memory

import (
	"sync"
	"time"

	"github.com/briannabogos1157/threadtwin/internal/dupe"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a mutex-guarded TTL map. It memoizes extraction results keyed
// by URL and comparison results keyed by the order-sensitive "{a}:{b}"
// pair. Values are stored and returned without copying; callers treat them
// as read-only snapshots. Expired entries are dropped lazily on access;
// there is no eviction beyond TTL.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	defaultTTL time.Duration
	clock      dupe.Clock
	stats      dupe.CacheStats
}

// New builds a Cache with the given process-wide default TTL.
func New(defaultTTL time.Duration, clock dupe.Clock) *Cache {
	return &Cache{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		clock:      clock,
	}
}

// Get returns the stored value for key if it has not expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	if c.clock.Now().After(e.expiresAt) {
		delete(c.entries, key)
		c.stats.Expired++
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	return e.value, true
}

// Put stores value under key. A non-positive ttl falls back to the
// process-wide default.
func (c *Cache) Put(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.clock.Now().Add(ttl)}
	c.stats.Sets++
}

// Keys reports the number of live (unexpired) entries.
func (c *Cache) Keys() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	count := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			c.stats.Expired++
			continue
		}
		count++
	}
	return count
}

// Stats returns a snapshot of the hit/miss counters.
func (c *Cache) Stats() dupe.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
