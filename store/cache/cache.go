package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the configuration of an in-memory cache.
type Config struct {
	// DefaultTTL applies when Set is called without a TTL.
	DefaultTTL time.Duration
	// CleanupInterval is how often expired items are swept. Zero disables the sweeper.
	CleanupInterval time.Duration
	// MaxItems bounds the cache; the item closest to expiry is evicted first.
	MaxItems int
	// OnEviction is called for every item removed by expiry or capacity.
	OnEviction func(key string, value any)
}

type item struct {
	value     any
	expiresAt time.Time
}

// Cache is a concurrency-safe in-memory cache with per-item TTL.
type Cache struct {
	data   sync.Map
	size   atomic.Int64
	config Config

	mu        sync.Mutex // serializes evictions
	stop      chan struct{}
	closeOnce sync.Once
}

// New creates a cache and starts its cleanup goroutine.
func New(config Config) *Cache {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 10 * time.Minute
	}
	c := &Cache{
		config: config,
		stop:   make(chan struct{}),
	}
	if config.CleanupInterval > 0 {
		go c.cleanupLoop(config.CleanupInterval)
	}
	return c
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	c.SetWithTTL(ctx, key, value, c.config.DefaultTTL)
}

// SetWithTTL stores value under key for ttl.
func (c *Cache) SetWithTTL(_ context.Context, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}
	if _, loaded := c.data.Swap(key, &item{value: value, expiresAt: time.Now().Add(ttl)}); !loaded {
		c.size.Add(1)
	}
	if c.config.MaxItems > 0 && c.size.Load() > int64(c.config.MaxItems) {
		c.evictOne()
	}
}

// Get returns the live value under key.
func (c *Cache) Get(_ context.Context, key string) (any, bool) {
	raw, ok := c.data.Load(key)
	if !ok {
		return nil, false
	}
	it := raw.(*item)
	if time.Now().After(it.expiresAt) {
		c.remove(key, it, true)
		return nil, false
	}
	return it.value, true
}

// Delete removes key.
func (c *Cache) Delete(_ context.Context, key string) {
	if _, loaded := c.data.LoadAndDelete(key); loaded {
		c.size.Add(-1)
	}
}

// Clear removes every item.
func (c *Cache) Clear(ctx context.Context) {
	c.data.Range(func(key, _ any) bool {
		c.Delete(ctx, key.(string))
		return true
	})
}

// Size returns the number of stored items, expired ones included until swept.
func (c *Cache) Size() int64 {
	return c.size.Load()
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() error {
	c.closeOnce.Do(func() { close(c.stop) })
	return nil
}

// remove deletes key only while it still holds it.
func (c *Cache) remove(key string, it *item, evicted bool) {
	if c.data.CompareAndDelete(key, it) {
		c.size.Add(-1)
		if evicted && c.config.OnEviction != nil {
			c.config.OnEviction(key, it.value)
		}
	}
}

func (c *Cache) evictOne() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		victimKey string
		victim    *item
		found     bool
	)
	c.data.Range(func(key, raw any) bool {
		it := raw.(*item)
		if !found || it.expiresAt.Before(victim.expiresAt) {
			victimKey, victim, found = key.(string), it, true
		}
		return true
	})
	if found {
		c.remove(victimKey, victim, true)
	}
}

func (c *Cache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.data.Range(func(key, raw any) bool {
				if it := raw.(*item); now.After(it.expiresAt) {
					c.remove(key.(string), it, true)
				}
				return true
			})
		}
	}
}
