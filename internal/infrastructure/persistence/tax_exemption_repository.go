package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/tax"
	"github.com/mestresdocafe/backend/internal/infrastructure/persistence/models"
	"github.com/mestresdocafe/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormTaxExemptionRepository implements tax.TaxExemptionRepository using GORM
type GormTaxExemptionRepository struct {
	db *gorm.DB
}

// NewGormTaxExemptionRepository creates a new GormTaxExemptionRepository
func NewGormTaxExemptionRepository(db *gorm.DB) *GormTaxExemptionRepository {
	return &GormTaxExemptionRepository{db: db}
}

// FindByIDForTenant finds an exemption by ID within a tenant
func (r *GormTaxExemptionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*tax.TaxExemption, error) {
	var model models.TaxExemptionModel
	if err := tenant.Scoped(ctx, r.db, tenantID).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer lists every exemption of a customer, newest first
func (r *GormTaxExemptionRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]tax.TaxExemption, error) {
	var rows []models.TaxExemptionModel
	if err := tenant.Scoped(ctx, r.db, tenantID).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return exemptionsToDomain(rows), nil
}

// FindActiveByCustomer lists active exemptions whose window contains at
func (r *GormTaxExemptionRepository) FindActiveByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, at time.Time) ([]tax.TaxExemption, error) {
	var rows []models.TaxExemptionModel
	if err := tenant.Scoped(ctx, r.db, tenantID).
		Where("customer_id = ? AND active = ?", customerID, true).
		Where("valid_from <= ?", at).
		Where("valid_until IS NULL OR valid_until >= ?", at).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return exemptionsToDomain(rows), nil
}

// Save creates or updates an exemption
func (r *GormTaxExemptionRepository) Save(ctx context.Context, exemption *tax.TaxExemption) error {
	return r.db.WithContext(ctx).Save(models.TaxExemptionModelFromDomain(exemption)).Error
}

func exemptionsToDomain(rows []models.TaxExemptionModel) []tax.TaxExemption {
	out := make([]tax.TaxExemption, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ tax.TaxExemptionRepository = (*GormTaxExemptionRepository)(nil)
