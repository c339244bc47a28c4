package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/tax"
	"go.uber.org/zap"
)

const (
	defaultCleanupInterval = 30 * time.Second
	defaultLocalTTL        = time.Minute
)

// cacheEntry wraps a cached value with expiration time
type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e *cacheEntry[T]) isExpired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// InMemoryRateCache caches reference tables in process-local maps.
// It serves as L1 in front of Redis, or alone when Redis is disabled.
type InMemoryRateCache struct {
	stateRates sync.Map // tenantID -> *cacheEntry[[]tax.StateTaxRate]
	ncm        sync.Map // "tenantID:code" -> *cacheEntry[*tax.NCMCode]
	ttl        time.Duration
	now        func() time.Time
	logger     *zap.Logger
	stopCh     chan struct{}
	stopped    int32

	hits   int64
	misses int64
}

// InMemoryRateCacheOption configures an InMemoryRateCache
type InMemoryRateCacheOption func(*InMemoryRateCache)

// WithLocalTTL sets how long entries live
func WithLocalTTL(ttl time.Duration) InMemoryRateCacheOption {
	return func(c *InMemoryRateCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithInMemoryLogger sets the logger
func WithInMemoryLogger(logger *zap.Logger) InMemoryRateCacheOption {
	return func(c *InMemoryRateCache) {
		c.logger = logger
	}
}

// withClock replaces time.Now in tests
func withClock(now func() time.Time) InMemoryRateCacheOption {
	return func(c *InMemoryRateCache) {
		c.now = now
	}
}

// NewInMemoryRateCache creates the cache and starts its cleanup goroutine.
// Call Close to stop it.
func NewInMemoryRateCache(opts ...InMemoryRateCacheOption) *InMemoryRateCache {
	c := &InMemoryRateCache{
		ttl:    defaultLocalTTL,
		now:    time.Now,
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.cleanupExpired()
	return c
}

func ncmKey(tenantID uuid.UUID, code string) string {
	return tenantID.String() + ":" + code
}

// GetStateRates returns the tenant's cached rate list
func (c *InMemoryRateCache) GetStateRates(_ context.Context, tenantID uuid.UUID) ([]tax.StateTaxRate, bool) {
	if value, ok := c.stateRates.Load(tenantID); ok {
		entry := value.(*cacheEntry[[]tax.StateTaxRate])
		if !entry.isExpired(c.now()) {
			atomic.AddInt64(&c.hits, 1)
			return entry.value, true
		}
		c.stateRates.Delete(tenantID)
	}
	atomic.AddInt64(&c.misses, 1)
	return nil, false
}

// SetStateRates stores the tenant's rate list
func (c *InMemoryRateCache) SetStateRates(_ context.Context, tenantID uuid.UUID, rates []tax.StateTaxRate) {
	c.stateRates.Store(tenantID, &cacheEntry[[]tax.StateTaxRate]{
		value:     rates,
		expiresAt: c.now().Add(c.ttl),
	})
}

// GetNCM returns a cached resolution. A hit may carry a nil entry.
func (c *InMemoryRateCache) GetNCM(_ context.Context, tenantID uuid.UUID, code string) (*tax.NCMCode, bool) {
	key := ncmKey(tenantID, code)
	if value, ok := c.ncm.Load(key); ok {
		entry := value.(*cacheEntry[*tax.NCMCode])
		if !entry.isExpired(c.now()) {
			atomic.AddInt64(&c.hits, 1)
			return entry.value, true
		}
		c.ncm.Delete(key)
	}
	atomic.AddInt64(&c.misses, 1)
	return nil, false
}

// SetNCM stores a resolution, including a negative one
func (c *InMemoryRateCache) SetNCM(_ context.Context, tenantID uuid.UUID, code string, ncm *tax.NCMCode) {
	c.ncm.Store(ncmKey(tenantID, code), &cacheEntry[*tax.NCMCode]{
		value:     ncm,
		expiresAt: c.now().Add(c.ttl),
	})
}

// InvalidateStateRates drops the tenant's rate list
func (c *InMemoryRateCache) InvalidateStateRates(_ context.Context, tenantID uuid.UUID) {
	c.stateRates.Delete(tenantID)
}

// InvalidateNCM drops every NCM resolution of the tenant
func (c *InMemoryRateCache) InvalidateNCM(_ context.Context, tenantID uuid.UUID) {
	prefix := tenantID.String() + ":"
	c.ncm.Range(func(key, _ any) bool {
		if strings.HasPrefix(key.(string), prefix) {
			c.ncm.Delete(key)
		}
		return true
	})
}

// InvalidateTenant drops everything cached for the tenant
func (c *InMemoryRateCache) InvalidateTenant(ctx context.Context, tenantID uuid.UUID) {
	c.InvalidateStateRates(ctx, tenantID)
	c.InvalidateNCM(ctx, tenantID)
}

// Count returns the number of cached state rate lists and NCM entries
func (c *InMemoryRateCache) Count() (stateRates, ncm int) {
	c.stateRates.Range(func(_, _ any) bool {
		stateRates++
		return true
	})
	c.ncm.Range(func(_, _ any) bool {
		ncm++
		return true
	})
	return stateRates, ncm
}

// Stats returns hit and miss counters
func (c *InMemoryRateCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// cleanupExpired periodically removes expired entries
func (c *InMemoryRateCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *InMemoryRateCache) removeExpired() {
	now := c.now()
	removed := 0
	c.stateRates.Range(func(key, value any) bool {
		if value.(*cacheEntry[[]tax.StateTaxRate]).isExpired(now) {
			c.stateRates.Delete(key)
			removed++
		}
		return true
	})
	c.ncm.Range(func(key, value any) bool {
		if value.(*cacheEntry[*tax.NCMCode]).isExpired(now) {
			c.ncm.Delete(key)
			removed++
		}
		return true
	})
	if removed > 0 {
		c.logger.Debug("Removed expired rate cache entries", zap.Int("count", removed))
	}
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (c *InMemoryRateCache) Close() error {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}
