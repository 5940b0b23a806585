package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// TieredCache implements a three-tier caching strategy:
//   - L1: In-memory cache (fast, small, DEFAULT)
//   - L2: Redis cache (shared, OPTIONAL, enabled by STUDYPLAN_REDIS_ADDR)
//   - L3: Database callback (slow, persistent)
type TieredCache struct {
	l1        *Cache
	l2        RedisCacheInterface
	l1Enabled bool
	l2Enabled bool
}

// L3Fetcher is the function to fetch data from the database (L3).
type L3Fetcher func(ctx context.Context, key string) (any, error)

// TieredCacheConfig holds the configuration for the tiered cache.
type TieredCacheConfig struct {
	L1MaxItems int           // Max items in L1 memory cache
	L1TTL      time.Duration // TTL for L1 cache entries
	L2TTL      time.Duration // TTL for L2 Redis cache entries
	EnableL1   bool          // Enable L1 memory cache (default: true)
	EnableL2   bool          // Enable L2 Redis cache (default: false)

	// Redis configures the L2 connection when L2 is enabled and L2Client is nil.
	Redis *RedisCacheConfig
	// L2Client overrides the L2 implementation.
	L2Client RedisCacheInterface
}

// DefaultTieredConfig returns the default tiered cache configuration:
// L1 enabled, L2 disabled.
func DefaultTieredConfig() *TieredCacheConfig {
	return &TieredCacheConfig{
		L1MaxItems: 1000,
		L1TTL:      30 * time.Minute,
		L2TTL:      30 * time.Minute,
		EnableL1:   true,
	}
}

// NewTieredCache creates a new three-tier cache. It fails only when L2 is
// enabled and Redis cannot be reached.
func NewTieredCache(config *TieredCacheConfig) (*TieredCache, error) {
	if config == nil {
		config = DefaultTieredConfig()
	}

	tc := &TieredCache{
		l1Enabled: config.EnableL1,
		l2Enabled: config.EnableL2,
	}

	if config.EnableL1 {
		tc.l1 = New(Config{
			DefaultTTL:      config.L1TTL,
			CleanupInterval: 1 * time.Minute,
			MaxItems:        config.L1MaxItems,
		})
	}

	if config.EnableL2 {
		switch {
		case config.L2Client != nil:
			tc.l2 = config.L2Client
		default:
			redisConfig := config.Redis
			if redisConfig == nil {
				redisConfig = DefaultRedisConfig()
			}
			if config.L2TTL > 0 {
				redisConfig.DefaultTTL = config.L2TTL
			}
			l2, err := NewRedisCache(context.Background(), redisConfig)
			if err != nil {
				if tc.l1 != nil {
					tc.l1.Close()
				}
				return nil, err
			}
			tc.l2 = l2
		}
	}

	return tc, nil
}

// Get retrieves a value from the cache, checking L1, then L2, then L3.
func (t *TieredCache) Get(ctx context.Context, key string, fetcher L3Fetcher) (any, bool) {
	if t.l1Enabled && t.l1 != nil {
		if value, found := t.l1.Get(ctx, key); found {
			return value, true
		}
	}

	if t.l2Enabled && t.l2 != nil {
		if value, found := t.l2.Get(ctx, key); found {
			return value, true
		}
	}

	if fetcher != nil {
		value, err := fetcher(ctx, key)
		if err != nil {
			return nil, false
		}
		t.Set(ctx, key, value)
		return value, true
	}

	return nil, false
}

// Set stores a value in both L1 and L2.
func (t *TieredCache) Set(ctx context.Context, key string, value any) {
	if t.l1Enabled && t.l1 != nil {
		t.l1.Set(ctx, key, value)
	}
	if t.l2Enabled && t.l2 != nil {
		t.l2.Set(ctx, key, value)
	}
}

// Delete removes a value from both L1 and L2.
func (t *TieredCache) Delete(ctx context.Context, key string) {
	if t.l1Enabled && t.l1 != nil {
		t.l1.Delete(ctx, key)
	}
	if t.l2Enabled && t.l2 != nil {
		t.l2.Delete(ctx, key)
	}
}

// Clear clears all caches.
func (t *TieredCache) Clear(ctx context.Context) {
	if t.l1Enabled && t.l1 != nil {
		t.l1.Clear(ctx)
	}
	if t.l2Enabled && t.l2 != nil {
		t.l2.Clear(ctx)
	}
}

// Stats returns cache statistics.
func (t *TieredCache) Stats() map[string]any {
	stats := map[string]any{
		"l1_enabled": t.l1Enabled && t.l1 != nil,
		"l2_enabled": t.l2Enabled && t.l2 != nil,
	}
	if t.l1 != nil {
		stats["l1_size"] = t.l1.Size()
	}
	return stats
}

// Close closes all cache connections.
func (t *TieredCache) Close() error {
	var errs []error

	if t.l2 != nil {
		if err := t.l2.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if t.l1 != nil {
		if err := t.l1.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Errorf("multiple errors: %v", errs)
	}
	return nil
}
