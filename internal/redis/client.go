// Redis client used for rate limiting, refresh tokens and the dashboard cache.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Mikbal34/muhasebe-sub003/internal/config"
)

// New creates a Redis client and pings it. It returns (nil, nil) when Redis
// is not configured; callers treat a nil client as "feature disabled".
func New(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	cli := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout.Duration(),
		ReadTimeout:  cfg.ReadTimeout.Duration(),
		WriteTimeout: cfg.WriteTimeout.Duration(),
	})
	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout.Duration())
	defer cancel()
	if err := cli.Ping(ctx).Err(); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return cli, nil
}

// Close closes the client; nil is allowed.
func Close(cli *redis.Client) {
	if cli != nil {
		_ = cli.Close()
	}
}
