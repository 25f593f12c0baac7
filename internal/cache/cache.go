// ABOUTME: Thread-safe TTL cache with bounded size for tracking responses.
// ABOUTME: Uses a doubly-linked list to maintain insertion order for O(1) eviction.

package cache

import (
	"container/list"
	"sync"
	"time"
)

// entry stores one cached value with its timestamp and list element.
type entry struct {
	key       string
	value     any
	timestamp time.Time
	element   *list.Element
}

// Cache provides a thread-safe, TTL-based, size-limited value cache. It is
// used to keep recent tracking lookups from re-hitting the carrier API.
type Cache struct {
	mu      sync.RWMutex
	items   map[string]*entry
	order   *list.List // keys in insertion order, oldest at front
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// New creates a cache with the specified TTL and maximum size.
// A background goroutine periodically sweeps expired entries.
func New(ttl time.Duration, maxSize int) *Cache {
	c := &Cache{
		items:   make(map[string]*entry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go c.sweep()
	return c
}

// Get returns the cached value for key if present and not expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || time.Since(e.timestamp) >= c.ttl {
		return nil, false
	}
	return e.value, true
}

// Put stores a value under key. An existing entry is refreshed and moved to
// the back of the eviction order. If the cache is at capacity, the oldest
// entry is evicted to make room.
func (c *Cache) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	if e, exists := c.items[key]; exists {
		e.value = value
		e.timestamp = now
		c.order.MoveToBack(e.element)
		return
	}

	if c.maxSize > 0 && len(c.items) >= c.maxSize {
		c.evictOldest()
	}

	e := &entry{key: key, value: value, timestamp: now}
	e.element = c.order.PushBack(key)
	c.items[key] = e
}

// Len returns the number of entries currently held, including any expired
// entries the sweeper has not collected yet.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// evictOldest removes the oldest entry. Must be called with mu held.
func (c *Cache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}

	key, _ := front.Value.(string)
	c.order.Remove(front)
	delete(c.items, key)
}

// sweep runs in a background goroutine, periodically removing expired entries.
func (c *Cache) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runSweep()
		case <-c.done:
			return
		}
	}
}

// runSweep removes all expired entries.
func (c *Cache) runSweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.items {
		if now.Sub(e.timestamp) >= c.ttl {
			c.order.Remove(e.element)
			delete(c.items, key)
		}
	}
}

// Close stops the background sweeper. It is safe to call multiple times.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
