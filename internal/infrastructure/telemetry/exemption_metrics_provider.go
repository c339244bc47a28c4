package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormExemptionMetricsProvider implements ExemptionMetricsProvider by
// querying the tax_exemptions table directly.
type GormExemptionMetricsProvider struct {
	db *gorm.DB
}

// NewGormExemptionMetricsProvider creates a new GormExemptionMetricsProvider.
func NewGormExemptionMetricsProvider(db *gorm.DB) *GormExemptionMetricsProvider {
	return &GormExemptionMetricsProvider{db: db}
}

// ActiveTenantIDs returns every tenant with at least one active exemption.
func (p *GormExemptionMetricsProvider) ActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("tax_exemptions").
		Where("active = ?", true).
		Distinct().
		Pluck("tenant_id", &ids).Error
	return ids, err
}

// CountActiveExemptions counts the exemptions of a tenant in force at a date.
func (p *GormExemptionMetricsProvider) CountActiveExemptions(ctx context.Context, tenantID uuid.UUID, at time.Time) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("tax_exemptions").
		Where("tenant_id = ? AND active = ? AND valid_from <= ?", tenantID, true, at).
		Where("valid_until IS NULL OR valid_until >= ?", at).
		Count(&count).Error
	return count, err
}
