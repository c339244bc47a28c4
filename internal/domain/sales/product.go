package sales

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the catalog entry referenced by order lines
type Product struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Name     string
	SKU      string
	Price    decimal.Decimal
	Active   bool
}
