// Package cache keeps recent per-URL scrape results in memory so a batch
// containing a URL fetched moments ago can skip the browser round trip.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/gatherkit/gather/models"
)

// entry holds a cached result with its creation timestamp.
type entry struct {
	result    models.ScrapeResult
	createdAt time.Time
}

// Cache is a concurrency-safe in-memory cache for scrape results.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
}

// New creates a Cache holding at most maxEntries results. A background
// goroutine evicts entries older than 1 hour every 5 minutes.
func New(maxEntries int) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
	}
	go c.cleanupLoop()
	return c
}

// Key generates a cache key from the URL and output format.
func Key(url, format string) string {
	h := sha256.New()
	h.Write([]byte(url))
	h.Write([]byte("|"))
	h.Write([]byte(format))
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached result younger than maxAge (milliseconds).
// If maxAgeMs <= 0 no lookup is performed. Only successful results are
// ever stored, so a hit is always a usable result.
func (c *Cache) Get(key string, maxAgeMs int) (models.ScrapeResult, bool) {
	if maxAgeMs <= 0 {
		return models.ScrapeResult{}, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok {
		return models.ScrapeResult{}, false
	}
	if time.Since(e.createdAt) > time.Duration(maxAgeMs)*time.Millisecond {
		return models.ScrapeResult{}, false
	}
	return e.result, true
}

// Set stores a result. Failed results are not cached: the caller may
// resubmit and expect a retry, not a replayed error. If the cache is at
// capacity, a random entry is evicted to make room.
func (c *Cache) Set(key string, result models.ScrapeResult) {
	if result.Status != models.StatusSuccess {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Map iteration order is random in Go, so this evicts an arbitrary entry.
	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		result:    result,
		createdAt: time.Now(),
	}
}

// cleanupLoop evicts entries older than 1 hour every 5 minutes.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-1 * time.Hour)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}
