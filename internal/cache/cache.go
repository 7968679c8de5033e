package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JustJay7/kanzlei/internal/config"
	"github.com/JustJay7/kanzlei/internal/repository"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Cache holds record lists keyed by endpoint.
//
// Every Clear starts a new generation. Set takes the generation observed
// before the value was loaded and drops the value if a Clear happened in
// between, so a read racing a write cannot cache pre-write data.
type Cache interface {
	Get(ctx context.Context, key string) ([]repository.Record, bool)
	Set(ctx context.Context, key string, value []repository.Record, gen uint64) error
	Generation(ctx context.Context) uint64
	Delete(ctx context.Context, key string)
	Clear(ctx context.Context)
	Stats() CacheStats
}

type CacheStats struct {
	Backend    string    `json:"backend"`
	Hits       int64     `json:"hits"`
	Misses     int64     `json:"misses"`
	Size       int       `json:"size"`
	LastAccess time.Time `json:"last_access"`
}

// New builds the backend selected by CACHE_BACKEND.
func New(ctx context.Context, cfg *config.Config) (Cache, error) {
	switch cfg.CacheBackend {
	case "memory":
		return NewCache(cfg.CacheSize, cfg.CacheTTL), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return NewRedisCache(client, cfg.CacheTTL), nil
	case "none":
		return NopCache{}, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.CacheBackend)
	}
}

// LRUCache is an in-process cache bounded by entry count. When full, the
// entry closest to expiry is evicted.
type LRUCache struct {
	cache   *cache.Cache
	mu      sync.RWMutex
	stats   CacheStats
	maxSize int
	gen     uint64
}

func NewCache(maxSize int, ttl time.Duration) *LRUCache {
	return &LRUCache{
		cache:   cache.New(ttl, ttl*2),
		maxSize: maxSize,
		stats:   CacheStats{Backend: "memory"},
	}
}

func (c *LRUCache) Get(_ context.Context, key string) ([]repository.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.LastAccess = time.Now()

	if data, found := c.cache.Get(key); found {
		if records, ok := data.([]repository.Record); ok {
			c.stats.Hits++
			return append([]repository.Record(nil), records...), true
		}
	}

	c.stats.Misses++
	return nil, false
}

func (c *LRUCache) Set(_ context.Context, key string, value []repository.Record, gen uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return nil
	}

	if _, exists := c.cache.Get(key); !exists && c.cache.ItemCount() >= c.maxSize {
		c.removeOldest()
	}

	c.cache.Set(key, value, cache.DefaultExpiration)
	return nil
}

func (c *LRUCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Delete(key)
}

func (c *LRUCache) Generation(_ context.Context) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.gen
}

// Clear drops every entry. Hit and miss counters survive.
func (c *LRUCache) Clear(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.cache.Flush()
}

func (c *LRUCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := c.stats
	stats.Size = c.cache.ItemCount()
	return stats
}

func (c *LRUCache) removeOldest() {
	items := c.cache.Items()
	if len(items) == 0 {
		return
	}

	var oldestKey string
	var oldestExpiration int64

	for key, item := range items {
		if oldestKey == "" || item.Expiration < oldestExpiration {
			oldestKey = key
			oldestExpiration = item.Expiration
		}
	}

	c.cache.Delete(oldestKey)
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]repository.Record, bool) { return nil, false }
func (NopCache) Set(context.Context, string, []repository.Record, uint64) error { return nil }
func (NopCache) Generation(context.Context) uint64 { return 0 }
func (NopCache) Delete(context.Context, string) {}
func (NopCache) Clear(context.Context) {}
func (NopCache) Stats() CacheStats { return CacheStats{Backend: "none"} }

// ListKey is the cache key of an endpoint's full listing.
func ListKey(name string) string {
	return fmt.Sprintf("list:%s", name)
}
