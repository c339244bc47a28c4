package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/sales"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/infrastructure/persistence/models"
	"github.com/mestresdocafe/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormOrderRepository implements sales.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByIDForTenant loads an order with its items
func (r *GormOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sales.Order, error) {
	var model models.OrderModel
	if err := tenant.Scoped(ctx, r.db, tenantID).
		Preload("Items").
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveTaxTotals writes only the tax columns of an order so concurrent
// storefront edits to other fields are left alone. The order must carry
// exactly one unsaved change: the row is updated only while it still holds
// order.Version-1.
func (r *GormOrderRepository) SaveTaxTotals(ctx context.Context, order *sales.Order) error {
	result := tenant.Scoped(ctx, r.db, order.TenantID).
		Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", order.ID, order.Version-1).
		Updates(map[string]interface{}{
			"tax_amount":        order.TaxAmount,
			"total_amount":      order.TotalAmount,
			"tax_calculated_at": order.TaxCalculatedAt,
			"version":           order.Version,
			"updated_at":        order.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := tenant.Scoped(ctx, r.db, order.TenantID).
		Model(&models.OrderModel{}).
		Where("id = ?", order.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.NewDomainError("CONCURRENCY_CONFLICT", "The order has been modified by another process")
}

// Save creates or replaces an order together with its items
func (r *GormOrderRepository) Save(ctx context.Context, order *sales.Order) error {
	model := models.OrderModelFromDomain(order)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItemModel{}).Error; err != nil {
			return err
		}
		if len(model.Items) == 0 {
			return nil
		}
		return tx.Create(&model.Items).Error
	})
}

var _ sales.OrderRepository = (*GormOrderRepository)(nil)
