package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/microcred/lendbook/internal/service/portfolio"
)

const summaryCacheKey = "lendbook:portfolio:summary"

// RedisSummaryCache holds the computed portfolio summary in Redis for a short
// TTL. It implements portfolio.SummaryCache; lookups that fail for any reason
// report a miss so the caller recomputes.
type RedisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSummaryCache(client *redis.Client, ttl time.Duration) *RedisSummaryCache {
	return &RedisSummaryCache{client: client, ttl: ttl}
}

func (c *RedisSummaryCache) Get(ctx context.Context) (*portfolio.Summary, bool) {
	val, err := c.client.Get(ctx, summaryCacheKey).Result()
	if err != nil {
		return nil, false
	}

	var s portfolio.Summary
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return nil, false
	}
	return &s, true
}

func (c *RedisSummaryCache) Set(ctx context.Context, s portfolio.Summary) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("Set: marshal: %w", err)
	}
	if err := c.client.Set(ctx, summaryCacheKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("Set: %w", err)
	}
	return nil
}

func (c *RedisSummaryCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, summaryCacheKey).Err(); err != nil {
		return fmt.Errorf("Invalidate: %w", err)
	}
	return nil
}
