package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyDashboard      = "reports:dashboard"
	keyProjectSummary = "reports:project:"
)

// ReportCache caches computed report payloads as JSON. A nil client disables it.
type ReportCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewReportCache(rdb *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{rdb: rdb, ttl: ttl}
}

func (c *ReportCache) Enabled() bool { return c != nil && c.rdb != nil }

// GetDashboard decodes the cached dashboard into dst. It reports false on a miss.
func (c *ReportCache) GetDashboard(ctx context.Context, dst any) (bool, error) {
	return c.get(ctx, keyDashboard, dst)
}

func (c *ReportCache) SetDashboard(ctx context.Context, v any) error {
	return c.set(ctx, keyDashboard, v)
}

func (c *ReportCache) GetProjectSummary(ctx context.Context, projectID string, dst any) (bool, error) {
	return c.get(ctx, keyProjectSummary+projectID, dst)
}

func (c *ReportCache) SetProjectSummary(ctx context.Context, projectID string, v any) error {
	return c.set(ctx, keyProjectSummary+projectID, v)
}

// InvalidateAll removes the dashboard and every project summary.
func (c *ReportCache) InvalidateAll(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.rdb.Del(ctx, keyDashboard).Err(); err != nil {
		return err
	}
	iter := c.rdb.Scan(ctx, 0, keyProjectSummary+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (c *ReportCache) get(ctx context.Context, key string, dst any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *ReportCache) set(ctx context.Context, key string, v any) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}
