// Package cache provides a time-boxed in-memory key/value store with a soft
// size bound. Entries past their TTL are treated as absent and dropped on
// read; no background sweeper runs.
package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	storedAt  time.Time
	expiresAt time.Time
}

// Cache is a generic TTL cache bounded by a soft maximum entry count.
// Eviction is FIFO by insertion order: staleness already bounds the value of
// an entry, so full LRU bookkeeping buys nothing here.
type Cache[T any] struct {
	mu         sync.Mutex
	entries    map[string]entry[T]
	order      []string
	ttl        time.Duration
	maxEntries int

	now func() time.Time
}

// New creates a cache with the given default TTL and soft entry bound.
func New[T any](ttl time.Duration, maxEntries int) *Cache[T] {
	return &Cache[T]{
		entries:    make(map[string]entry[T]),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the value for key if present and unexpired. An expired entry is
// removed and reported absent, never returned stale.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		c.remove(key)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with the cache's default TTL.
func (c *Cache[T]) Set(key string, value T) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key with an explicit TTL. When the soft bound
// is exceeded the single oldest entry by insertion order is evicted.
func (c *Cache[T]) SetWithTTL(key string, value T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists {
		if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
			c.remove(c.order[0])
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = entry[T]{value: value, storedAt: now, expiresAt: now.Add(ttl)}
}

// Delete removes key if present.
func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(key)
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// remove must be called with the lock held.
func (c *Cache[T]) remove(key string) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
