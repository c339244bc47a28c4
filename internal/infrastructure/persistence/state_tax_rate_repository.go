package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
	"github.com/mestresdocafe/backend/internal/domain/tax"
	"github.com/mestresdocafe/backend/internal/infrastructure/persistence/models"
	"github.com/mestresdocafe/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormStateTaxRateRepository implements tax.StateTaxRateRepository using GORM
type GormStateTaxRateRepository struct {
	db *gorm.DB
}

// NewGormStateTaxRateRepository creates a new GormStateTaxRateRepository
func NewGormStateTaxRateRepository(db *gorm.DB) *GormStateTaxRateRepository {
	return &GormStateTaxRateRepository{db: db}
}

// FindAllForTenant lists every configured pair, active or not
func (r *GormStateTaxRateRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]tax.StateTaxRate, error) {
	var rows []models.StateTaxRateModel
	if err := tenant.Scoped(ctx, r.db, tenantID).
		Order("origin_state ASC, destination_state ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]tax.StateTaxRate, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// FindByPair finds the rate configured for a state pair
func (r *GormStateTaxRateRepository) FindByPair(ctx context.Context, tenantID uuid.UUID, origin, destination valueobject.UF) (*tax.StateTaxRate, error) {
	var model models.StateTaxRateModel
	if err := tenant.Scoped(ctx, r.db, tenantID).
		Where("origin_state = ? AND destination_state = ?", string(origin), string(destination)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a pair
func (r *GormStateTaxRateRepository) Save(ctx context.Context, rate *tax.StateTaxRate) error {
	return r.db.WithContext(ctx).Save(models.StateTaxRateModelFromDomain(rate)).Error
}

var _ tax.StateTaxRateRepository = (*GormStateTaxRateRepository)(nil)
