package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/tax"
	"github.com/mestresdocafe/backend/internal/infrastructure/persistence/models"
	"github.com/mestresdocafe/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormProductTaxRepository implements tax.ProductTaxRepository using GORM
type GormProductTaxRepository struct {
	db *gorm.DB
}

// NewGormProductTaxRepository creates a new GormProductTaxRepository
func NewGormProductTaxRepository(db *gorm.DB) *GormProductTaxRepository {
	return &GormProductTaxRepository{db: db}
}

// FindByProduct finds the fiscal configuration of a product
func (r *GormProductTaxRepository) FindByProduct(ctx context.Context, tenantID, productID uuid.UUID) (*tax.ProductTax, error) {
	var model models.ProductTaxModel
	if err := tenant.Scoped(ctx, r.db, tenantID).
		Where("product_id = ?", productID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByProducts loads the configurations of several products; products
// without one are simply absent from the result
func (r *GormProductTaxRepository) FindByProducts(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) ([]tax.ProductTax, error) {
	if len(productIDs) == 0 {
		return []tax.ProductTax{}, nil
	}
	var rows []models.ProductTaxModel
	if err := tenant.Scoped(ctx, r.db, tenantID).
		Where("product_id IN ?", productIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]tax.ProductTax, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Save creates or updates a configuration
func (r *GormProductTaxRepository) Save(ctx context.Context, pt *tax.ProductTax) error {
	return r.db.WithContext(ctx).Save(models.ProductTaxModelFromDomain(pt)).Error
}

var _ tax.ProductTaxRepository = (*GormProductTaxRepository)(nil)
