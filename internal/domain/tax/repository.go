package tax

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
)

// NCMRepository defines persistence for NCM classifications
type NCMRepository interface {
	// FindByCode finds an exact 8-digit code
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*NCMCode, error)
	// FindByCodes returns the active codes among the given keys, in any order
	FindByCodes(ctx context.Context, tenantID uuid.UUID, codes []string) ([]NCMCode, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]NCMCode, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, ncm *NCMCode) error
}

// ProductTaxRepository defines persistence for product fiscal configuration
type ProductTaxRepository interface {
	FindByProduct(ctx context.Context, tenantID, productID uuid.UUID) (*ProductTax, error)
	FindByProducts(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) ([]ProductTax, error)
	Save(ctx context.Context, pt *ProductTax) error
}

// TaxExemptionRepository defines persistence for customer exemptions
type TaxExemptionRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*TaxExemption, error)
	FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]TaxExemption, error)
	// FindActiveByCustomer returns active exemptions whose validity window contains at
	FindActiveByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, at time.Time) ([]TaxExemption, error)
	Save(ctx context.Context, exemption *TaxExemption) error
}

// StateTaxRateRepository defines persistence for state pair ICMS rates
type StateTaxRateRepository interface {
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]StateTaxRate, error)
	FindByPair(ctx context.Context, tenantID uuid.UUID, origin, destination valueobject.UF) (*StateTaxRate, error)
	Save(ctx context.Context, rate *StateTaxRate) error
}

// TaxCalculationRepository defines persistence for per-line tax results
type TaxCalculationRepository interface {
	FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]TaxCalculation, error)
	DeleteByOrder(ctx context.Context, tenantID, orderID uuid.UUID) error
	SaveBatch(ctx context.Context, calcs []TaxCalculation) error
	// SumBetween totals calculations made in [from, to)
	SumBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (TaxTotals, error)
}
