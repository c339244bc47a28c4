package tax

import (
	"time"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
)

// TaxComponent is the computed result of one tax on one line
type TaxComponent struct {
	Base      valueobject.Money
	Rate      valueobject.Percentage
	Amount    valueobject.Money
	Situation SituationCode
}

// IsCharged reports whether any amount is due
func (c TaxComponent) IsCharged() bool {
	return c.Amount.IsPositive()
}

func zeroComponent(situation SituationCode) TaxComponent {
	return TaxComponent{
		Base:      valueobject.ZeroBRL(),
		Rate:      valueobject.ZeroPercent(),
		Amount:    valueobject.ZeroBRL(),
		Situation: situation,
	}
}

// TaxCalculation is the tax breakdown of a single order line
type TaxCalculation struct {
	shared.BaseEntity
	TenantID         uuid.UUID
	OrderID          uuid.UUID
	OrderItemID      uuid.UUID
	ProductID        uuid.UUID
	NCMCode          string
	CFOP             string
	OriginState      valueobject.UF
	DestinationState valueobject.UF
	GrossAmount      valueobject.Money
	ICMS             TaxComponent
	PIS              TaxComponent
	COFINS           TaxComponent
	IPI              TaxComponent
	TotalTax         valueobject.Money
	CalculatedAt     time.Time
}

// Component returns the result for one tax
func (c *TaxCalculation) Component(taxType TaxType) TaxComponent {
	switch taxType {
	case TaxTypeICMS:
		return c.ICMS
	case TaxTypePIS:
		return c.PIS
	case TaxTypeCOFINS:
		return c.COFINS
	case TaxTypeIPI:
		return c.IPI
	}
	return zeroComponent("")
}

func (c *TaxCalculation) sumTotal() {
	c.TotalTax = valueobject.SumMoney(c.ICMS.Amount, c.PIS.Amount, c.COFINS.Amount, c.IPI.Amount)
}

// TaxTotals aggregates amounts per tax type
type TaxTotals struct {
	ICMS   valueobject.Money
	PIS    valueobject.Money
	COFINS valueobject.Money
	IPI    valueobject.Money
	Total  valueobject.Money
	Gross  valueobject.Money
	Lines  int
}

// SummarizeCalculations adds up a set of line calculations
func SummarizeCalculations(calcs []TaxCalculation) TaxTotals {
	totals := TaxTotals{
		ICMS:   valueobject.ZeroBRL(),
		PIS:    valueobject.ZeroBRL(),
		COFINS: valueobject.ZeroBRL(),
		IPI:    valueobject.ZeroBRL(),
		Total:  valueobject.ZeroBRL(),
		Gross:  valueobject.ZeroBRL(),
	}
	for i := range calcs {
		c := &calcs[i]
		totals.ICMS = totals.ICMS.Add(c.ICMS.Amount)
		totals.PIS = totals.PIS.Add(c.PIS.Amount)
		totals.COFINS = totals.COFINS.Add(c.COFINS.Amount)
		totals.IPI = totals.IPI.Add(c.IPI.Amount)
		totals.Total = totals.Total.Add(c.TotalTax)
		totals.Gross = totals.Gross.Add(c.GrossAmount)
		totals.Lines++
	}
	return totals
}
