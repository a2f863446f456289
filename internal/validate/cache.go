// Package validate probes stream URLs for reachability with bounded
// concurrency and a TTL reachability cache.
package validate

import (
	"sync"
	"time"

	"github.com/tvforge/tvforge/internal/models"
)

type cacheKey struct {
	url    string
	method string
}

// Cache holds probe verdicts keyed by (URL, method). Entries expire
// lazily on read after the TTL; when full, the oldest entry makes room.
type Cache struct {
	mu       sync.Mutex
	entries  map[cacheKey]models.ValidationVerdict
	capacity int
	ttl      time.Duration
	now      func() time.Time

	hits   int
	misses int
}

// NewCache creates a cache with the given capacity and TTL.
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{
		entries:  make(map[cacheKey]models.ValidationVerdict, capacity),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the cached verdict for (url, method) when present and
// fresh. Expired entries are removed on the way out.
func (c *Cache) Get(url, method string) (models.ValidationVerdict, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{url: url, method: method}
	verdict, ok := c.entries[key]
	if !ok {
		c.misses++
		return models.ValidationVerdict{}, false
	}
	if c.now().Sub(verdict.CheckedAt) > c.ttl {
		delete(c.entries, key)
		c.misses++
		return models.ValidationVerdict{}, false
	}
	c.hits++
	return verdict, true
}

// Put stores a verdict, evicting the oldest entry when at capacity.
func (c *Cache) Put(verdict models.ValidationVerdict) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{url: verdict.URL, method: verdict.Method}
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictOldest()
	}
	c.entries[key] = verdict
}

// evictOldest removes the entry with the earliest CheckedAt. Called
// with the lock held.
func (c *Cache) evictOldest() {
	var oldestKey cacheKey
	var oldest time.Time
	first := true
	for key, verdict := range c.entries {
		if first || verdict.CheckedAt.Before(oldest) {
			oldestKey = key
			oldest = verdict.CheckedAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// HitRate returns hits and misses since creation.
func (c *Cache) HitRate() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
