package services

import (
	"sync"
	"time"

	"github.com/grenish/contribsvc/internal/models"
)

type cacheEntry struct {
	contributors []*models.Contributor
	expiresAt    time.Time
}

// resultCache is a small process-local TTL cache of aggregation results,
// keyed by logical document path. It only exists to spare upstream quota
// between CDN cache misses; a zero TTL disables it.
type resultCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *resultCache) get(key string) ([]*models.Contributor, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.contributors, true
}

func (c *resultCache) set(key string, contributors []*models.Contributor) {
	if c.ttl <= 0 {
		return
	}

	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Lazy sweep keeps the map bounded without a background goroutine
	for k, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, k)
		}
	}

	c.entries[key] = cacheEntry{
		contributors: contributors,
		expiresAt:    now.Add(c.ttl),
	}
}
