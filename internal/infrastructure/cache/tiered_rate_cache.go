package cache

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	apptax "github.com/mestresdocafe/backend/internal/application/tax"
	"github.com/mestresdocafe/backend/internal/domain/tax"
	"go.uber.org/zap"
)

// Stats reports hit ratios across both tiers
type Stats struct {
	L1Hits      int64   `json:"l1_hits"`
	L1Misses    int64   `json:"l1_misses"`
	L2Hits      int64   `json:"l2_hits"`
	L2Misses    int64   `json:"l2_misses"`
	L2Errors    int64   `json:"l2_errors"`
	HitRatio    float64 `json:"hit_ratio"`
	L1RateLists int     `json:"l1_rate_lists"`
	L1NCM       int     `json:"l1_ncm"`
}

// TieredRateCache reads through L1 then L2 and writes both.
// Redis errors degrade to a miss; the database stays the source of truth.
type TieredRateCache struct {
	l1          *InMemoryRateCache
	l2          *RedisRateCache
	invalidator *RedisInvalidator
	logger      *zap.Logger

	l1Hits   int64
	l1Misses int64
	l2Hits   int64
	l2Misses int64
	l2Errors int64
}

// TieredRateCacheOption configures a TieredRateCache
type TieredRateCacheOption func(*TieredRateCache)

// WithTieredLogger sets the logger
func WithTieredLogger(logger *zap.Logger) TieredRateCacheOption {
	return func(c *TieredRateCache) {
		c.logger = logger
	}
}

// WithInvalidator broadcasts invalidations to other instances
func WithInvalidator(invalidator *RedisInvalidator) TieredRateCacheOption {
	return func(c *TieredRateCache) {
		c.invalidator = invalidator
	}
}

// NewTieredRateCache stacks l1 in front of l2
func NewTieredRateCache(l1 *InMemoryRateCache, l2 *RedisRateCache, opts ...TieredRateCacheOption) *TieredRateCache {
	c := &TieredRateCache{
		l1:     l1,
		l2:     l2,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartInvalidationSubscription blocks applying remote invalidations to L1
func (c *TieredRateCache) StartInvalidationSubscription(ctx context.Context) error {
	if c.invalidator == nil {
		return nil
	}
	return c.invalidator.Subscribe(ctx, c.handleInvalidation)
}

func (c *TieredRateCache) handleInvalidation(msg InvalidationMessage) {
	ctx := context.Background()
	switch msg.Scope {
	case ScopeStateRates:
		c.l1.InvalidateStateRates(ctx, msg.TenantID)
	case ScopeNCM:
		c.l1.InvalidateNCM(ctx, msg.TenantID)
	default:
		c.logger.Warn("Unknown invalidation scope", zap.String("scope", string(msg.Scope)))
		return
	}
	c.logger.Debug("Applied remote cache invalidation",
		zap.String("scope", string(msg.Scope)),
		zap.String("tenant_id", msg.TenantID.String()))
}

func (c *TieredRateCache) l2Failed(op string, tenantID uuid.UUID, err error) {
	atomic.AddInt64(&c.l2Errors, 1)
	c.logger.Warn("Redis rate cache error",
		zap.String("op", op),
		zap.String("tenant_id", tenantID.String()),
		zap.Error(err))
}

// GetStateRates reads L1, then L2 (populating L1 on hit)
func (c *TieredRateCache) GetStateRates(ctx context.Context, tenantID uuid.UUID) ([]tax.StateTaxRate, bool) {
	if rates, ok := c.l1.GetStateRates(ctx, tenantID); ok {
		atomic.AddInt64(&c.l1Hits, 1)
		return rates, true
	}
	atomic.AddInt64(&c.l1Misses, 1)

	rates, ok, err := c.l2.GetStateRates(ctx, tenantID)
	if err != nil {
		c.l2Failed("get_state_rates", tenantID, err)
		return nil, false
	}
	if !ok {
		atomic.AddInt64(&c.l2Misses, 1)
		return nil, false
	}
	atomic.AddInt64(&c.l2Hits, 1)
	c.l1.SetStateRates(ctx, tenantID, rates)
	return rates, true
}

// SetStateRates writes both tiers
func (c *TieredRateCache) SetStateRates(ctx context.Context, tenantID uuid.UUID, rates []tax.StateTaxRate) {
	if err := c.l2.SetStateRates(ctx, tenantID, rates); err != nil {
		c.l2Failed("set_state_rates", tenantID, err)
	}
	c.l1.SetStateRates(ctx, tenantID, rates)
}

// GetNCM reads L1, then L2 (populating L1 on hit)
func (c *TieredRateCache) GetNCM(ctx context.Context, tenantID uuid.UUID, code string) (*tax.NCMCode, bool) {
	if ncm, ok := c.l1.GetNCM(ctx, tenantID, code); ok {
		atomic.AddInt64(&c.l1Hits, 1)
		return ncm, true
	}
	atomic.AddInt64(&c.l1Misses, 1)

	ncm, ok, err := c.l2.GetNCM(ctx, tenantID, code)
	if err != nil {
		c.l2Failed("get_ncm", tenantID, err)
		return nil, false
	}
	if !ok {
		atomic.AddInt64(&c.l2Misses, 1)
		return nil, false
	}
	atomic.AddInt64(&c.l2Hits, 1)
	c.l1.SetNCM(ctx, tenantID, code, ncm)
	return ncm, true
}

// SetNCM writes both tiers
func (c *TieredRateCache) SetNCM(ctx context.Context, tenantID uuid.UUID, code string, ncm *tax.NCMCode) {
	if err := c.l2.SetNCM(ctx, tenantID, code, ncm); err != nil {
		c.l2Failed("set_ncm", tenantID, err)
	}
	c.l1.SetNCM(ctx, tenantID, code, ncm)
}

// InvalidateStateRates clears both tiers and notifies other instances
func (c *TieredRateCache) InvalidateStateRates(ctx context.Context, tenantID uuid.UUID) {
	if err := c.l2.InvalidateStateRates(ctx, tenantID); err != nil {
		c.l2Failed("invalidate_state_rates", tenantID, err)
	}
	c.l1.InvalidateStateRates(ctx, tenantID)
	c.broadcast(ctx, ScopeStateRates, tenantID)
}

// InvalidateNCM clears both tiers and notifies other instances
func (c *TieredRateCache) InvalidateNCM(ctx context.Context, tenantID uuid.UUID) {
	if err := c.l2.InvalidateNCM(ctx, tenantID); err != nil {
		c.l2Failed("invalidate_ncm", tenantID, err)
	}
	c.l1.InvalidateNCM(ctx, tenantID)
	c.broadcast(ctx, ScopeNCM, tenantID)
}

func (c *TieredRateCache) broadcast(ctx context.Context, scope InvalidationScope, tenantID uuid.UUID) {
	if c.invalidator == nil {
		return
	}
	if err := c.invalidator.Publish(ctx, InvalidationMessage{Scope: scope, TenantID: tenantID}); err != nil {
		c.logger.Warn("Failed to publish cache invalidation",
			zap.String("scope", string(scope)),
			zap.Error(err))
	}
}

// Stats returns hit and miss counters of both tiers
func (c *TieredRateCache) Stats() Stats {
	s := Stats{
		L1Hits:   atomic.LoadInt64(&c.l1Hits),
		L1Misses: atomic.LoadInt64(&c.l1Misses),
		L2Hits:   atomic.LoadInt64(&c.l2Hits),
		L2Misses: atomic.LoadInt64(&c.l2Misses),
		L2Errors: atomic.LoadInt64(&c.l2Errors),
	}
	hits := s.L1Hits + s.L2Hits
	// Only L2 misses and errors reach the database
	if total := hits + s.L2Misses + s.L2Errors; total > 0 {
		s.HitRatio = float64(hits) / float64(total)
	}
	s.L1RateLists, s.L1NCM = c.l1.Count()
	return s
}

// Close stops the subscription and the L1 cleanup goroutine
func (c *TieredRateCache) Close() error {
	var lastErr error
	if c.invalidator != nil {
		if err := c.invalidator.Close(); err != nil {
			lastErr = err
		}
	}
	if err := c.l1.Close(); err != nil {
		lastErr = err
	}
	return lastErr
}

var (
	_ apptax.RateCache = (*TieredRateCache)(nil)
	_ apptax.RateCache = (*InMemoryRateCache)(nil)
)
