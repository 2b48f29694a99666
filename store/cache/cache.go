// Package cache provides the in-memory and Redis cache tiers used by
// the store.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the configuration for the in-memory cache.
type Config struct {
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
	MaxItems        int
	OnEviction      func(key string, value any)
}

type item struct {
	value     any
	expiresAt time.Time
}

func (i *item) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// Cache is an in-memory TTL cache with a background janitor. Entries
// past MaxItems are evicted oldest-expiry-first on insert.
type Cache struct {
	config Config

	data sync.Map
	size atomic.Int64

	stop chan struct{}
	once sync.Once
}

// New creates a new in-memory cache and starts its janitor.
func New(config Config) *Cache {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 10 * time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	c := &Cache{
		config: config,
		stop:   make(chan struct{}),
	}
	go c.janitor()
	return c
}

// Get retrieves a value by key. Expired entries are treated as misses.
func (c *Cache) Get(_ context.Context, key string) (any, bool) {
	raw, ok := c.data.Load(key)
	if !ok {
		return nil, false
	}
	it := raw.(*item)
	if it.expired(time.Now()) {
		c.remove(key, it)
		return nil, false
	}
	return it.value, true
}

// Set stores a value with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	c.SetWithTTL(ctx, key, value, c.config.DefaultTTL)
}

// SetWithTTL stores a value with a custom TTL.
func (c *Cache) SetWithTTL(_ context.Context, key string, value any, ttl time.Duration) {
	it := &item{value: value}
	if ttl > 0 {
		it.expiresAt = time.Now().Add(ttl)
	}
	if _, loaded := c.data.Swap(key, it); !loaded {
		c.size.Add(1)
	}
	if c.config.MaxItems > 0 && c.size.Load() > int64(c.config.MaxItems) {
		c.evictOldest()
	}
}

// Delete removes a value by key.
func (c *Cache) Delete(_ context.Context, key string) {
	if raw, loaded := c.data.LoadAndDelete(key); loaded {
		c.size.Add(-1)
		if c.config.OnEviction != nil {
			c.config.OnEviction(key, raw.(*item).value)
		}
	}
}

// Clear removes all values.
func (c *Cache) Clear(ctx context.Context) {
	c.data.Range(func(key, _ any) bool {
		c.Delete(ctx, key.(string))
		return true
	})
}

// Size returns the number of live entries.
func (c *Cache) Size() int64 {
	return c.size.Load()
}

// Close stops the janitor. The cache remains usable but no longer
// cleans up expired entries in the background.
func (c *Cache) Close() error {
	c.once.Do(func() {
		close(c.stop)
	})
	return nil
}

func (c *Cache) remove(key string, it *item) {
	if c.data.CompareAndDelete(key, it) {
		c.size.Add(-1)
		if c.config.OnEviction != nil {
			c.config.OnEviction(key, it.value)
		}
	}
}

func (c *Cache) janitor() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.data.Range(func(key, raw any) bool {
				if it := raw.(*item); it.expired(now) {
					c.remove(key.(string), it)
				}
				return true
			})
		}
	}
}

// evictOldest drops the entry closest to expiry to bring the cache
// back under MaxItems.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldest *item
	c.data.Range(func(key, raw any) bool {
		it := raw.(*item)
		if oldest == nil || (!it.expiresAt.IsZero() && it.expiresAt.Before(oldest.expiresAt)) {
			oldestKey, oldest = key.(string), it
		}
		return true
	})
	if oldest != nil {
		c.remove(oldestKey, oldest)
	}
}
