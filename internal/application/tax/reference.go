package tax

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/tax"
)

// RateCache caches a tenant's reference tables.
// A cached NCM entry may be nil, meaning the code is known to have no entry.
type RateCache interface {
	GetStateRates(ctx context.Context, tenantID uuid.UUID) ([]tax.StateTaxRate, bool)
	SetStateRates(ctx context.Context, tenantID uuid.UUID, rates []tax.StateTaxRate)
	GetNCM(ctx context.Context, tenantID uuid.UUID, code string) (*tax.NCMCode, bool)
	SetNCM(ctx context.Context, tenantID uuid.UUID, code string, ncm *tax.NCMCode)
	InvalidateStateRates(ctx context.Context, tenantID uuid.UUID)
	InvalidateNCM(ctx context.Context, tenantID uuid.UUID)
}

// NopRateCache never caches
type NopRateCache struct{}

// GetStateRates always misses
func (NopRateCache) GetStateRates(context.Context, uuid.UUID) ([]tax.StateTaxRate, bool) {
	return nil, false
}

// SetStateRates does nothing
func (NopRateCache) SetStateRates(context.Context, uuid.UUID, []tax.StateTaxRate) {}

// GetNCM always misses
func (NopRateCache) GetNCM(context.Context, uuid.UUID, string) (*tax.NCMCode, bool) {
	return nil, false
}

// SetNCM does nothing
func (NopRateCache) SetNCM(context.Context, uuid.UUID, string, *tax.NCMCode) {}

// InvalidateStateRates does nothing
func (NopRateCache) InvalidateStateRates(context.Context, uuid.UUID) {}

// InvalidateNCM does nothing
func (NopRateCache) InvalidateNCM(context.Context, uuid.UUID) {}

// ReferenceData loads state rate tables and NCM entries through the cache
type ReferenceData struct {
	ncmRepo  tax.NCMRepository
	rateRepo tax.StateTaxRateRepository
	cache    RateCache
}

// NewReferenceData creates a ReferenceData. A nil cache disables caching.
func NewReferenceData(ncmRepo tax.NCMRepository, rateRepo tax.StateTaxRateRepository, cache RateCache) *ReferenceData {
	if cache == nil {
		cache = NopRateCache{}
	}
	return &ReferenceData{
		ncmRepo:  ncmRepo,
		rateRepo: rateRepo,
		cache:    cache,
	}
}

// RateTable returns the tenant's active state rates
func (r *ReferenceData) RateTable(ctx context.Context, tenantID uuid.UUID) (*tax.StateRateTable, error) {
	if rates, ok := r.cache.GetStateRates(ctx, tenantID); ok {
		return tax.NewStateRateTable(rates), nil
	}
	rates, err := r.rateRepo.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load state rates: %w", err)
	}
	r.cache.SetStateRates(ctx, tenantID, rates)
	return tax.NewStateRateTable(rates), nil
}

// ResolveNCM returns the most specific active entry for a product code,
// falling back from 8 to 6 to 4 digits. Returns nil when nothing matches.
func (r *ReferenceData) ResolveNCM(ctx context.Context, tenantID uuid.UUID, code string) (*tax.NCMCode, error) {
	if code == "" {
		return nil, nil
	}
	if ncm, ok := r.cache.GetNCM(ctx, tenantID, code); ok {
		return ncm, nil
	}
	candidates, err := r.ncmRepo.FindByCodes(ctx, tenantID, tax.NCMLookupKeys(code))
	if err != nil {
		return nil, fmt.Errorf("failed to load NCM %s: %w", code, err)
	}
	ncm := tax.MostSpecificNCM(code, candidates)
	r.cache.SetNCM(ctx, tenantID, code, ncm)
	return ncm, nil
}

// InvalidateStateRates drops the cached rate table of a tenant
func (r *ReferenceData) InvalidateStateRates(ctx context.Context, tenantID uuid.UUID) {
	r.cache.InvalidateStateRates(ctx, tenantID)
}

// InvalidateNCM drops every cached NCM resolution of a tenant
func (r *ReferenceData) InvalidateNCM(ctx context.Context, tenantID uuid.UUID) {
	r.cache.InvalidateNCM(ctx, tenantID)
}
