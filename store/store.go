package store

import (
	"log/slog"
	"time"

	"github.com/hrygo/studyplan/internal/profile"
	"github.com/hrygo/studyplan/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// planCache fronts plan lookups by UID: memory first, redis when configured.
	planCache *cache.TieredCache
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	cacheConfig := cache.DefaultTieredConfig()
	cacheConfig.L1TTL = 10 * time.Minute
	if profile.RedisAddr != "" {
		cacheConfig.EnableL2 = true
		cacheConfig.Redis = cache.DefaultRedisConfig()
		cacheConfig.Redis.Addr = profile.RedisAddr
	}
	planCache, err := cache.NewTieredCache(cacheConfig)
	if err != nil {
		slog.Warn("redis plan cache unavailable, using memory only",
			slog.String("addr", profile.RedisAddr), slog.String("error", err.Error()))
		cacheConfig.EnableL2 = false
		planCache, _ = cache.NewTieredCache(cacheConfig)
	}
	return NewWithCache(driver, profile, planCache)
}

// NewWithCache creates a Store with an explicit plan cache.
func NewWithCache(driver Driver, profile *profile.Profile, planCache *cache.TieredCache) *Store {
	return &Store{
		driver:    driver,
		profile:   profile,
		planCache: planCache,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

// CacheStats reports the plan cache occupancy.
func (s *Store) CacheStats() map[string]any {
	return s.planCache.Stats()
}

func (s *Store) Close() error {
	if err := s.planCache.Close(); err != nil {
		return err
	}
	return s.driver.Close()
}
