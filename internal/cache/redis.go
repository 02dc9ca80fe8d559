package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/actuallystonmai/beautybot/internal/domain"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const defaultTTL = 10 * time.Minute

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func buildKey(category string) string {
	return fmt.Sprintf("rec:category:%s", category)
}

// Get recommendation from cache, found is false on a miss
func (c *Cache) Get(ctx context.Context, category string) (*domain.Recommendation, bool, error) {
	key := buildKey(category)
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get recommendation from cache: %w", err)
	}

	var rec domain.Recommendation
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal recommendation %s: %w", key, err)
	}
	return &rec, true, nil
}

// Store recommendation in cache
func (c *Cache) Set(ctx context.Context, category string, rec *domain.Recommendation) error {
	key := buildKey(category)
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendation: %w", err)
	}

	if err := c.client.Set(ctx, key, val, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set recommendation in cache: %w", err)
	}
	return nil
}

// Clear every cached recommendation: used after the catalog is reseeded
func (c *Cache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "rec:category:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache delete %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// Ping connectivity
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
