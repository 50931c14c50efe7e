package utils

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to url, which may be a redis:// URL or a bare
// host:port address.
func NewRedisClient(ctx context.Context, url, password string, db int) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{
			Addr:     url,
			Password: password,
			DB:       db,
		}
	}

	// Pub/sub holds one dedicated connection; the rest serve the rate
	// limiter and health checks.
	opts.PoolSize = 20
	opts.MinIdleConns = 2
	opts.MaxRetries = 3

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}

	slog.Info("connected to redis", "addr", opts.Addr)
	return client, nil
}

// RedisHealthCheck performs a health check on the Redis connection.
func RedisHealthCheck(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	return nil
}
