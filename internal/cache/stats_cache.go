package cache

import (
	"context"
	"encoding/json"
	"time"

	dom "github.com/Trust-Mwendabai/CDIMS/internal/domain"

	"github.com/redis/go-redis/v9"
)

const keySummary = "dashboard:summary"

// StatsCache caches the dashboard summary in Redis.
type StatsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStatsCache returns a new StatsCache.
func NewStatsCache(rdb *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{rdb: rdb, ttl: ttl}
}

// GetSummary returns the cached summary or nil if miss.
func (c *StatsCache) GetSummary(ctx context.Context) (*dom.DashboardSummary, error) {
	b, err := c.rdb.Get(ctx, keySummary).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s dom.DashboardSummary
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SetSummary stores the summary in cache.
func (c *StatsCache) SetSummary(ctx context.Context, s dom.DashboardSummary) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keySummary, b, c.ttl).Err()
}
