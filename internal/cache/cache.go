// Package cache provides a process-local TTL cache with a capacity bound,
// used by every service in the core to avoid redundant provider calls.
package cache

import (
	"sync"
	"time"
)

// entry pairs a cached value with its expiry time.
type entry[T any] struct {
	expiresAt time.Time
	value     T
}

// Cache is a thread-safe key/value store with per-entry TTL and a maximum
// entry count. When full, the oldest-inserted entry is evicted first. It is
// strictly process-local; nothing here coordinates across instances.
type Cache[T any] struct {
	entries    map[string]entry[T]
	order      []string
	stopCh     chan struct{}
	ttl        time.Duration
	maxEntries int
	mu         sync.RWMutex
	closeOnce  sync.Once
}

const (
	defaultTTL        = 15 * time.Minute
	defaultMaxEntries = 1000
	sweepInterval     = 5 * time.Minute
)

// New creates a cache with the given TTL and capacity. Zero values select the
// defaults (15m, 1000 entries).
func New[T any](ttl time.Duration, maxEntries int) *Cache[T] {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}

	c := &Cache[T]{
		entries:    make(map[string]entry[T]),
		ttl:        ttl,
		maxEntries: maxEntries,
		stopCh:     make(chan struct{}),
	}

	go c.sweep()

	return c
}

// Get retrieves a value if present and unexpired. Expired entries are removed
// lazily; expired data is never returned.
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return zero, false
	}

	if !time.Now().Before(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a Set may have refreshed the entry.
		if cur, still := c.entries[key]; still && !time.Now().Before(cur.expiresAt) {
			c.remove(key)
		}
		c.mu.Unlock()
		return zero, false
	}

	return e.value, true
}

// Set stores a value, evicting the oldest-inserted entry when at capacity.
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		if len(c.entries) >= c.maxEntries && len(c.order) > 0 {
			c.remove(c.order[0])
		}
		c.order = append(c.order, key)
	}

	c.entries[key] = entry[T]{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Has reports whether an unexpired entry exists for the key.
func (c *Cache[T]) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	return ok && time.Now().Before(e.expiresAt)
}

// Clear removes all entries.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[T])
	c.order = nil
}

// Size returns the number of stored entries, expired or not.
func (c *Cache[T]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the background sweep goroutine.
func (c *Cache[T]) Close() {
	c.closeOnce.Do(func() { close(c.stopCh) })
}

// remove deletes a key from both the map and the insertion-order list. The
// caller must hold the write lock.
func (c *Cache[T]) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// sweep periodically removes expired entries so the map does not accumulate
// dead weight between reads.
func (c *Cache[T]) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, e := range c.entries {
				if !now.Before(e.expiresAt) {
					c.remove(key)
				}
			}
			c.mu.Unlock()
		}
	}
}
