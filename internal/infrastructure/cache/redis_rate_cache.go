package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/tax"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultScanBatchSize = 100
	defaultRedisTTL      = time.Hour
	keyPrefix            = "tax:"
)

// ncmEnvelope lets a cached "no entry" be told apart from a miss
type ncmEnvelope struct {
	Found bool         `json:"found"`
	NCM   *tax.NCMCode `json:"ncm,omitempty"`
}

// RedisRateCache stores reference tables in Redis, shared by every instance
type RedisRateCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// RedisRateCacheOption configures a RedisRateCache
type RedisRateCacheOption func(*RedisRateCache)

// WithRedisTTL sets the expiry of every key written
func WithRedisTTL(ttl time.Duration) RedisRateCacheOption {
	return func(c *RedisRateCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithRedisLogger sets the logger
func WithRedisLogger(logger *zap.Logger) RedisRateCacheOption {
	return func(c *RedisRateCache) {
		c.logger = logger
	}
}

// NewRedisRateCache wraps an existing client. The caller owns the client.
func NewRedisRateCache(client *redis.Client, opts ...RedisRateCacheOption) *RedisRateCache {
	c := &RedisRateCache{
		client: client,
		ttl:    defaultRedisTTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func stateRatesKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("%srates:%s", keyPrefix, tenantID)
}

func ncmCacheKey(tenantID uuid.UUID, code string) string {
	return fmt.Sprintf("%sncm:%s:%s", keyPrefix, tenantID, code)
}

// GetStateRates returns (nil, false, nil) on a miss
func (c *RedisRateCache) GetStateRates(ctx context.Context, tenantID uuid.UUID) ([]tax.StateTaxRate, bool, error) {
	key := stateRatesKey(tenantID)
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get state rates from cache: %w", err)
	}

	var rates []tax.StateTaxRate
	if err := json.Unmarshal(data, &rates); err != nil {
		// Delete corrupted cache entry
		_ = c.client.Del(ctx, key)
		return nil, false, fmt.Errorf("failed to unmarshal state rates: %w", err)
	}
	return rates, true, nil
}

// SetStateRates stores a tenant's rate list
func (c *RedisRateCache) SetStateRates(ctx context.Context, tenantID uuid.UUID, rates []tax.StateTaxRate) error {
	if rates == nil {
		rates = []tax.StateTaxRate{}
	}
	data, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("failed to marshal state rates: %w", err)
	}
	if err := c.client.Set(ctx, stateRatesKey(tenantID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set state rates in cache: %w", err)
	}
	return nil
}

// GetNCM returns a cached resolution, which may be nil
func (c *RedisRateCache) GetNCM(ctx context.Context, tenantID uuid.UUID, code string) (*tax.NCMCode, bool, error) {
	key := ncmCacheKey(tenantID, code)
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get NCM from cache: %w", err)
	}

	var env ncmEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		_ = c.client.Del(ctx, key)
		return nil, false, fmt.Errorf("failed to unmarshal NCM: %w", err)
	}
	if !env.Found {
		return nil, true, nil
	}
	return env.NCM, true, nil
}

// SetNCM stores a resolution; nil records that the code has no entry
func (c *RedisRateCache) SetNCM(ctx context.Context, tenantID uuid.UUID, code string, ncm *tax.NCMCode) error {
	data, err := json.Marshal(ncmEnvelope{Found: ncm != nil, NCM: ncm})
	if err != nil {
		return fmt.Errorf("failed to marshal NCM: %w", err)
	}
	if err := c.client.Set(ctx, ncmCacheKey(tenantID, code), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set NCM in cache: %w", err)
	}
	return nil
}

// InvalidateStateRates deletes a tenant's rate list
func (c *RedisRateCache) InvalidateStateRates(ctx context.Context, tenantID uuid.UUID) error {
	if err := c.client.Del(ctx, stateRatesKey(tenantID)).Err(); err != nil {
		return fmt.Errorf("failed to delete state rates from cache: %w", err)
	}
	return nil
}

// InvalidateNCM deletes every NCM resolution of a tenant
func (c *RedisRateCache) InvalidateNCM(ctx context.Context, tenantID uuid.UUID) error {
	deleted, err := c.deleteMatching(ctx, ncmCacheKey(tenantID, "*"))
	if err != nil {
		return err
	}
	c.logger.Debug("Invalidated NCM cache",
		zap.String("tenant_id", tenantID.String()),
		zap.Int64("deleted_count", deleted))
	return nil
}

// deleteMatching uses SCAN rather than KEYS to avoid blocking Redis
func (c *RedisRateCache) deleteMatching(ctx context.Context, pattern string) (int64, error) {
	var cursor uint64
	var deletedCount int64

	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, defaultScanBatchSize).Result()
		if err != nil {
			return deletedCount, fmt.Errorf("failed to scan cache keys: %w", err)
		}
		if len(keys) > 0 {
			deleted, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return deletedCount, fmt.Errorf("failed to delete cache keys: %w", err)
			}
			deletedCount += deleted
		}
		cursor = next
		if cursor == 0 {
			return deletedCount, nil
		}
	}
}
