package cache

import (
	"context"
	"sync"
	"time"

	"github.com/stockmatch/backend/internal/domain"
)

// DefaultCleanupInterval is how often expired entries are swept
const DefaultCleanupInterval = 10 * time.Minute

// cacheItem represents a single item in the cache with expiration
type cacheItem struct {
	Value      []byte
	Expiration time.Time
}

func (i cacheItem) expired(now time.Time) bool {
	return !i.Expiration.IsZero() && now.After(i.Expiration)
}

// MemoryCache is a thread-safe in-memory byte cache with TTL support.
// A zero TTL stores the entry without expiry.
type MemoryCache struct {
	data  map[string]cacheItem
	mutex sync.RWMutex

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryCache creates a new in-memory cache and starts its cleanup goroutine.
// interval <= 0 uses DefaultCleanupInterval.
func NewMemoryCache(interval time.Duration) *MemoryCache {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	cache := &MemoryCache{
		data: make(map[string]cacheItem),
		stop: make(chan struct{}),
	}

	go cache.cleanupExpired(interval)

	return cache
}

// Get retrieves a copy of the stored bytes
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists || item.expired(time.Now()) {
		return nil, domain.ErrCacheMiss
	}

	return append([]byte(nil), item.Value...), nil
}

// Set stores a copy of value with TTL
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	item := cacheItem{Value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.Expiration = time.Now().Add(ttl)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data[key] = item
	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// cleanupExpired removes expired entries until Close is called
func (c *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.mutex.Lock()
			for key, item := range c.data {
				if item.expired(now) {
					delete(c.data, key)
				}
			}
			c.mutex.Unlock()
		}
	}
}

// Size returns the current number of stored entries, including expired ones not yet swept
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]cacheItem)
}

// Close stops the cleanup goroutine
func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}
