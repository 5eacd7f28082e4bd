// Redis response cache for the variant-annotation and drug-label KB clients — [ADDED],
// grounded on pkg/external/cache.go's CacheClient (redis.Nil miss handling,
// corrupted-entry deletion, explicit expiry check).
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/variant-actionability/assessor/internal/domain"
)

// ResponseCache memoizes a KB client's raw response bytes by source+key.
type ResponseCache struct {
	redis      *redis.Client
	defaultTTL time.Duration
}

func NewResponseCache(cfg domain.CacheConfig) (*ResponseCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.PoolTimeout = cfg.PoolTimeout
	opts.MaxRetries = cfg.MaxRetries

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	ttl := cfg.DefaultTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &ResponseCache{redis: client, defaultTTL: ttl}, nil
}

type cachedEntry struct {
	Data      json.RawMessage `json:"data"`
	CachedAt  time.Time       `json:"cached_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

func cacheKey(source, key string) string {
	return fmt.Sprintf("kb:%s:%s", source, key)
}

// Get returns the cached bytes for (source, key), or (nil, false, nil) on miss.
func (c *ResponseCache) Get(ctx context.Context, source, key string) ([]byte, bool, error) {
	k := cacheKey(source, key)
	val, err := c.redis.Get(ctx, k).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting cache entry: %w", err)
	}

	var entry cachedEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		c.redis.Del(ctx, k)
		return nil, false, nil
	}
	if time.Now().After(entry.ExpiresAt) {
		c.redis.Del(ctx, k)
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// Set stores data for (source, key) with the cache's default TTL.
func (c *ResponseCache) Set(ctx context.Context, source, key string, data []byte) error {
	now := time.Now()
	entry := cachedEntry{Data: data, CachedAt: now, ExpiresAt: now.Add(c.defaultTTL)}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, cacheKey(source, key), payload, c.defaultTTL).Err()
}

func (c *ResponseCache) Close() error {
	return c.redis.Close()
}
