package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/JustJay7/kanzlei/internal/repository"
	"github.com/redis/go-redis/v9"
)

const redisPrefix = "kanzlei:"

// Kept outside redisPrefix so Clear does not reset it.
const redisGenKey = "kanzlei-gen"

// RedisCache shares cached lists between server processes.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.Mutex
	stats  CacheStats
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
		stats:  CacheStats{Backend: "redis"},
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]repository.Record, bool) {
	data, err := c.client.Get(ctx, redisPrefix+key).Bytes()

	var records []repository.Record
	found := err == nil && json.Unmarshal(data, &records) == nil

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.LastAccess = time.Now()
	if found {
		c.stats.Hits++
		return records, true
	}
	c.stats.Misses++
	return nil, false
}

// Set stores value only while the generation is still gen. The check and
// the write run in one WATCH transaction against the generation key.
func (c *RedisCache) Set(ctx context.Context, key string, value []repository.Record, gen uint64) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, redisGenKey).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, redisPrefix+key, data, c.ttl)
			return nil
		})
		return err
	}, redisGenKey)
	if errors.Is(err, redis.TxFailedErr) {
		// generation moved while we were writing
		return nil
	}
	return err
}

// Generation returns the shared generation counter. An unreachable server
// reads as 0, which never matches once a Clear has run.
func (c *RedisCache) Generation(ctx context.Context) uint64 {
	gen, err := c.client.Get(ctx, redisGenKey).Uint64()
	if err != nil {
		return 0
	}
	return gen
}

func (c *RedisCache) Delete(ctx context.Context, key string) {
	c.client.Del(ctx, redisPrefix+key)
}

// Clear bumps the generation, then removes every key under the kanzlei
// prefix.
func (c *RedisCache) Clear(ctx context.Context) {
	c.client.Incr(ctx, redisGenKey)

	iter := c.client.Scan(ctx, 0, redisPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		c.client.Del(ctx, keys...)
	}
}

func (c *RedisCache) Stats() CacheStats {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	size := 0
	iter := c.client.Scan(ctx, 0, redisPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		size++
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	stats := c.stats
	stats.Size = size
	return stats
}

// Close releases the client connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
