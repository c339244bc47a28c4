package sales

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository reads orders and persists their tax totals
type OrderRepository interface {
	// FindByIDForTenant loads an order with its items
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Order, error)
	// SaveTaxTotals writes tax_amount, total_amount and tax_calculated_at
	SaveTaxTotals(ctx context.Context, order *Order) error
}

// ProductRepository reads catalog products
type ProductRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Product, error)
}

// CustomerRepository reads customers
type CustomerRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)
}
