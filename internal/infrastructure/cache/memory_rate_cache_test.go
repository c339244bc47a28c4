package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
	"github.com/mestresdocafe/backend/internal/domain/tax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newStateRate(t *testing.T, tenantID uuid.UUID, origin, dest, rate string) tax.StateTaxRate {
	t.Helper()
	r, err := tax.NewStateTaxRate(tenantID, valueobject.UF(origin), valueobject.UF(dest), valueobject.MustPercentage(rate))
	require.NoError(t, err)
	return *r
}

func newNCM(t *testing.T, tenantID uuid.UUID, code string) *tax.NCMCode {
	t.Helper()
	n, err := tax.NewNCMCode(tenantID, code, "Café torrado")
	require.NoError(t, err)
	return n
}

func TestInMemoryRateCache_StateRates(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := NewInMemoryRateCache(WithLocalTTL(time.Minute), withClock(clock.Now))
	defer c.Close()

	tenantID := uuid.New()
	_, ok := c.GetStateRates(ctx, tenantID)
	assert.False(t, ok)

	rates := []tax.StateTaxRate{newStateRate(t, tenantID, "SP", "RJ", "12")}
	c.SetStateRates(ctx, tenantID, rates)

	got, ok := c.GetStateRates(ctx, tenantID)
	require.True(t, ok)
	assert.Len(t, got, 1)

	_, ok = c.GetStateRates(ctx, uuid.New())
	assert.False(t, ok, "other tenants must not see the entry")

	clock.Advance(2 * time.Minute)
	_, ok = c.GetStateRates(ctx, tenantID)
	assert.False(t, ok, "entry should expire")

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(3), misses)
}

func TestInMemoryRateCache_NCM(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryRateCache()
	defer c.Close()

	tenantA, tenantB := uuid.New(), uuid.New()

	t.Run("negative entries are hits", func(t *testing.T) {
		c.SetNCM(ctx, tenantA, "21011100", nil)
		ncm, ok := c.GetNCM(ctx, tenantA, "21011100")
		assert.True(t, ok)
		assert.Nil(t, ncm)
	})

	t.Run("invalidation is tenant wide", func(t *testing.T) {
		c.SetNCM(ctx, tenantA, "09012100", newNCM(t, tenantA, "09012100"))
		c.SetNCM(ctx, tenantB, "09012100", newNCM(t, tenantB, "09012100"))

		c.InvalidateNCM(ctx, tenantA)

		_, ok := c.GetNCM(ctx, tenantA, "09012100")
		assert.False(t, ok)
		_, ok = c.GetNCM(ctx, tenantA, "21011100")
		assert.False(t, ok)
		got, ok := c.GetNCM(ctx, tenantB, "09012100")
		require.True(t, ok)
		assert.Equal(t, tenantB, got.TenantID)
	})
}

func TestInMemoryRateCache_RemoveExpired(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Now()}
	c := NewInMemoryRateCache(WithLocalTTL(time.Second), withClock(clock.Now))
	defer c.Close()

	tenantID := uuid.New()
	c.SetStateRates(ctx, tenantID, nil)
	c.SetNCM(ctx, tenantID, "09012100", nil)

	rates, ncm := c.Count()
	assert.Equal(t, 1, rates)
	assert.Equal(t, 1, ncm)

	clock.Advance(time.Minute)
	c.removeExpired()

	rates, ncm = c.Count()
	assert.Zero(t, rates)
	assert.Zero(t, ncm)
}

func TestInMemoryRateCache_CloseTwice(t *testing.T) {
	c := NewInMemoryRateCache()
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
