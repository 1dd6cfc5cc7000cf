// ABOUTME: In-memory cache with lazy TTL expiry and a high-water-mark sweep
// ABOUTME: Clock and capacity are injected so eviction is deterministically testable

package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned for absent or expired keys.
var ErrNotFound = errors.New("key not found")

// entry is a cached value with its capture timestamp.
type entry struct {
	value    []byte
	storedAt time.Time
	ttl      time.Duration
}

func (e *entry) expired(now time.Time) bool {
	return e.ttl > 0 && now.After(e.storedAt.Add(e.ttl))
}

// MemoryCache implements the Cache interface using in-memory storage.
// Expired entries are treated as absent on read, not proactively deleted;
// a size-bound sweep evicts the oldest third when the entry count passes
// the high-water mark. It is a capacity backstop, not an LRU.
type MemoryCache struct {
	mu        sync.Mutex
	items     map[string]*entry
	highWater int
	clock     func() time.Time
}

// NewMemoryCache creates a cache holding at most highWater entries before a
// sweep runs. clock is injected for tests; nil means time.Now.
func NewMemoryCache(highWater int, clock func() time.Time) *MemoryCache {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryCache{
		items:     make(map[string]*entry),
		highWater: highWater,
		clock:     clock,
	}
}

// Get retrieves a value from the cache. Expired entries count as absent.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	if item.expired(c.clock()) {
		delete(c.items, key)
		return nil, ErrNotFound
	}

	result := make([]byte, len(item.value))
	copy(result, item.value)
	return result, nil
}

// Set stores a value with the given TTL. A ttl of 0 stores the value
// indefinitely (subject to the capacity sweep).
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &entry{
		value:    valueCopy,
		storedAt: c.clock(),
		ttl:      ttl,
	}

	if c.highWater > 0 && len(c.items) > c.highWater {
		c.sweepLocked()
	}

	return nil
}

// Delete removes a key from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}

// Len returns the current entry count.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Sweep drops expired entries and, when the cache is over the high-water
// mark, the oldest third by timestamp in one pass.
func (c *MemoryCache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked()
}

func (c *MemoryCache) sweepLocked() {
	now := c.clock()
	for key, item := range c.items {
		if item.expired(now) {
			delete(c.items, key)
		}
	}

	if c.highWater <= 0 || len(c.items) <= c.highWater {
		return
	}

	type aged struct {
		key      string
		storedAt time.Time
	}
	entries := make([]aged, 0, len(c.items))
	for key, item := range c.items {
		entries = append(entries, aged{key: key, storedAt: item.storedAt})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].storedAt.Before(entries[j].storedAt)
	})

	for _, victim := range entries[:len(entries)/3] {
		delete(c.items, victim.key)
	}
}
