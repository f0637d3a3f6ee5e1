// Package cache keeps recently stored assessments in memory so repeated
// reads and comparisons do not hit the database.
package cache

import (
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ZanzyTHEbar/cogscreen/internal/monitoring"
)

// Cache is a typed TTL cache over go-cache.
type Cache[V any] struct {
	items   *gocache.Cache
	ttl     time.Duration
	metrics *monitoring.Metrics

	hits   int64
	misses int64
}

// New creates a cache whose entries expire after ttl. A cleanupInterval of
// zero disables the background janitor; expired entries are then dropped
// lazily on read.
func New[V any](ttl, cleanupInterval time.Duration, metrics *monitoring.Metrics) *Cache[V] {
	return &Cache[V]{
		items:   gocache.New(ttl, cleanupInterval),
		ttl:     ttl,
		metrics: metrics,
	}
}

// Get returns the cached value for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	if val, found := c.items.Get(key); found {
		if v, ok := val.(V); ok {
			atomic.AddInt64(&c.hits, 1)
			if c.metrics != nil {
				c.metrics.IncrementCacheHit()
			}
			return v, true
		}
	}

	atomic.AddInt64(&c.misses, 1)
	if c.metrics != nil {
		c.metrics.IncrementCacheMiss()
	}
	var zero V
	return zero, false
}

// Set stores value under key with the default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.items.Set(key, value, gocache.DefaultExpiration)
}

// Delete removes a cached value.
func (c *Cache[V]) Delete(key string) {
	c.items.Delete(key)
}

// Clear removes all cached values.
func (c *Cache[V]) Clear() {
	c.items.Flush()
}

// Size returns the number of cached items, expired ones included until
// they are cleaned up.
func (c *Cache[V]) Size() int {
	return c.items.ItemCount()
}

// Stats returns cache statistics
func (c *Cache[V]) Stats() map[string]interface{} {
	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)

	hitRate := 0.0
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return map[string]interface{}{
		"items":       c.items.ItemCount(),
		"hits":        hits,
		"misses":      misses,
		"hit_rate":    hitRate,
		"ttl_seconds": c.ttl.Seconds(),
	}
}
