package vies

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores VIES verdicts in Redis with a TTL. A nil Cache (or one built
// over a nil client) is a no-op, so callers never branch on cache presence.
// Writes are last-writer-wins; two racing lookups of the same number both
// store a fresh verdict, which is harmless.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache wraps a Redis client. ttl <= 0 falls back to 24 hours.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(countryCode, number string) string {
	return fmt.Sprintf("vies:%s:%s", countryCode, number)
}

// Get returns a cached verdict, reporting whether one was present. Redis
// errors are treated as misses.
func (c *Cache) Get(ctx context.Context, key string) (Result, bool) {
	if c == nil || c.client == nil {
		return Result{}, false
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return Result{}, false
	}
	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return Result{}, false
	}
	return result, true
}

// Set stores a verdict under the configured TTL. Failures are swallowed; the
// cache is an optimisation, never a dependency.
func (c *Cache) Set(ctx context.Context, key string, result Result) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, payload, c.ttl).Err()
}

// Keys lists the cached VAT number keys, used by the refresh job.
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	var keys []string
	iter := c.client.Scan(ctx, 0, "vies:*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning vies cache keys: %w", err)
	}
	return keys, nil
}

// Drop removes a cached verdict so the next lookup goes live.
func (c *Cache) Drop(ctx context.Context, key string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, key).Err()
}
