// Package cache provides the in-process result cache consulted before any
// network fetch. It is a bounded LRU: caching here is an optimization, so a
// racing duplicate fetch is acceptable, but unbounded growth is not.
package cache

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Cache is a concurrent-safe LRU keyed by composite strings.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]any
	order    []string // LRU order: front=oldest, back=newest
	capacity int
	hits     atomic.Int64
	misses   atomic.Int64
}

// Stats contains cache performance counters.
type Stats struct {
	Entries  int     `json:"entries"`
	Capacity int     `json:"capacity"`
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRate  float64 `json:"hit_rate"`
}

// New creates a Cache with the given capacity. Capacities below 1 default
// to 512.
func New(capacity int) *Cache {
	if capacity < 1 {
		capacity = 512
	}
	return &Cache{
		entries:  make(map[string]any),
		capacity: capacity,
	}
}

// SearchKey builds the composite key for a (query, page) search lookup.
func SearchKey(query string, page int) string {
	return fmt.Sprintf("search:%s:%d", query, page)
}

// ProfileKey builds the composite key for a username lookup.
func ProfileKey(username string) string {
	return "profile:" + username
}

// Get retrieves a cached value. The second return is false on miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	// Move to back (most recently used).
	c.removeFromOrder(key)
	c.order = append(c.order, key)
	c.hits.Add(1)
	return v, true
}

// Put stores a value, evicting the least recently used entry at capacity.
func (c *Cache) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = value
		c.removeFromOrder(key)
		c.order = append(c.order, key)
		return
	}

	if len(c.entries) >= c.capacity && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = value
	c.order = append(c.order, key)
}

// Len returns the current number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	entries := len(c.entries)
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses

	s := Stats{
		Entries:  entries,
		Capacity: c.capacity,
		Hits:     hits,
		Misses:   misses,
	}
	if total > 0 {
		s.HitRate = float64(hits) / float64(total)
	}
	return s
}

func (c *Cache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
