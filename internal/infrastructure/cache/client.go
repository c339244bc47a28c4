// Package cache keeps tax reference tables close to the calculator.
//
// Two tiers are stacked: an in-process map (L1) in front of Redis (L2).
// Writes go to both tiers and publish an invalidation message so other
// instances drop their L1 copy.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/mestresdocafe/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

const defaultPingTimeout = 5 * time.Second

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
