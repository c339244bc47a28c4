package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
	"github.com/mestresdocafe/backend/internal/domain/tax"
	"github.com/mestresdocafe/backend/internal/infrastructure/persistence/models"
	"github.com/mestresdocafe/backend/internal/infrastructure/persistence/tenant"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// calculationBatchSize bounds the rows per INSERT statement
const calculationBatchSize = 100

// GormTaxCalculationRepository implements tax.TaxCalculationRepository using GORM
type GormTaxCalculationRepository struct {
	db *gorm.DB
}

// NewGormTaxCalculationRepository creates a new GormTaxCalculationRepository
func NewGormTaxCalculationRepository(db *gorm.DB) *GormTaxCalculationRepository {
	return &GormTaxCalculationRepository{db: db}
}

// FindByOrder returns the stored line calculations of an order
func (r *GormTaxCalculationRepository) FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]tax.TaxCalculation, error) {
	var rows []models.TaxCalculationModel
	if err := tenant.Scoped(ctx, r.db, tenantID).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]tax.TaxCalculation, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// DeleteByOrder removes every calculation of an order
func (r *GormTaxCalculationRepository) DeleteByOrder(ctx context.Context, tenantID, orderID uuid.UUID) error {
	return tenant.Scoped(ctx, r.db, tenantID).
		Where("order_id = ?", orderID).
		Delete(&models.TaxCalculationModel{}).Error
}

// SaveBatch inserts a set of line calculations
func (r *GormTaxCalculationRepository) SaveBatch(ctx context.Context, calcs []tax.TaxCalculation) error {
	if len(calcs) == 0 {
		return nil
	}
	rows := make([]*models.TaxCalculationModel, len(calcs))
	for i := range calcs {
		rows[i] = models.TaxCalculationModelFromDomain(&calcs[i])
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, calculationBatchSize).Error
}

type calculationSums struct {
	ICMS      decimal.Decimal `gorm:"column:icms"`
	PIS       decimal.Decimal `gorm:"column:pis"`
	COFINS    decimal.Decimal `gorm:"column:cofins"`
	IPI       decimal.Decimal `gorm:"column:ipi"`
	Total     decimal.Decimal `gorm:"column:total"`
	Gross     decimal.Decimal `gorm:"column:gross"`
	LineCount int             `gorm:"column:line_count"`
}

// SumBetween totals the calculations made in [from, to)
func (r *GormTaxCalculationRepository) SumBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (tax.TaxTotals, error) {
	var sums calculationSums
	if err := tenant.Scoped(ctx, r.db, tenantID).
		Model(&models.TaxCalculationModel{}).
		Select(`COALESCE(SUM(icms_amount), 0) AS icms,
			COALESCE(SUM(pis_amount), 0) AS pis,
			COALESCE(SUM(cofins_amount), 0) AS cofins,
			COALESCE(SUM(ipi_amount), 0) AS ipi,
			COALESCE(SUM(total_tax), 0) AS total,
			COALESCE(SUM(gross_amount), 0) AS gross,
			COUNT(*) AS line_count`).
		Where("calculated_at >= ? AND calculated_at < ?", from, to).
		Scan(&sums).Error; err != nil {
		return tax.TaxTotals{}, err
	}
	return tax.TaxTotals{
		ICMS:   valueobject.NewMoneyBRL(sums.ICMS),
		PIS:    valueobject.NewMoneyBRL(sums.PIS),
		COFINS: valueobject.NewMoneyBRL(sums.COFINS),
		IPI:    valueobject.NewMoneyBRL(sums.IPI),
		Total:  valueobject.NewMoneyBRL(sums.Total),
		Gross:  valueobject.NewMoneyBRL(sums.Gross),
		Lines:  sums.LineCount,
	}, nil
}

var _ tax.TaxCalculationRepository = (*GormTaxCalculationRepository)(nil)
