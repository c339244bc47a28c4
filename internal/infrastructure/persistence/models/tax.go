package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
	"github.com/mestresdocafe/backend/internal/domain/tax"
	"github.com/shopspring/decimal"
)

// NCMCodeModel is the persistence model for the NCMCode aggregate root.
type NCMCodeModel struct {
	TenantAggregateModel
	Code        string              `gorm:"type:varchar(8);not null"`
	Description string              `gorm:"type:varchar(500);not null"`
	IPIRate     decimal.NullDecimal `gorm:"column:ipi_rate;type:decimal(7,4)"`
	PISRate     decimal.NullDecimal `gorm:"type:decimal(7,4)"`
	COFINSRate  decimal.NullDecimal `gorm:"type:decimal(7,4)"`
	Active      bool                `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (NCMCodeModel) TableName() string {
	return "ncm_codes"
}

// ToDomain converts the persistence model to a domain NCMCode
func (m *NCMCodeModel) ToDomain() *tax.NCMCode {
	n := &tax.NCMCode{
		Code:        m.Code,
		Description: m.Description,
		IPIRate:     rateFromNullable(m.IPIRate),
		PISRate:     rateFromNullable(m.PISRate),
		COFINSRate:  rateFromNullable(m.COFINSRate),
		Active:      m.Active,
	}
	n.TenantAggregateRoot = m.root()
	return n
}

// FromDomain populates the persistence model from a domain NCMCode
func (m *NCMCodeModel) FromDomain(n *tax.NCMCode) {
	m.setRoot(n.TenantAggregateRoot)
	m.Code = n.Code
	m.Description = n.Description
	m.IPIRate = nullableRate(n.IPIRate)
	m.PISRate = nullableRate(n.PISRate)
	m.COFINSRate = nullableRate(n.COFINSRate)
	m.Active = n.Active
}

// NCMCodeModelFromDomain creates a new persistence model from a domain NCMCode
func NCMCodeModelFromDomain(n *tax.NCMCode) *NCMCodeModel {
	m := &NCMCodeModel{}
	m.FromDomain(n)
	return m
}

// ProductTaxModel is the persistence model for a product's fiscal configuration.
type ProductTaxModel struct {
	TenantAggregateModel
	ProductID       uuid.UUID           `gorm:"type:uuid;not null"`
	NCMCode         string              `gorm:"type:varchar(8);not null;index"`
	Origin          int                 `gorm:"not null;default:0"`
	ICMSSituation   string              `gorm:"type:varchar(3)"`
	PISSituation    string              `gorm:"type:varchar(2)"`
	COFINSSituation string              `gorm:"type:varchar(2)"`
	IPISituation    string              `gorm:"column:ipi_situation;type:varchar(2)"`
	ICMSRate        decimal.NullDecimal `gorm:"type:decimal(7,4)"`
	PISRate         decimal.NullDecimal `gorm:"type:decimal(7,4)"`
	COFINSRate      decimal.NullDecimal `gorm:"type:decimal(7,4)"`
	IPIRate         decimal.NullDecimal `gorm:"column:ipi_rate;type:decimal(7,4)"`
	ICMSReducedBase decimal.NullDecimal `gorm:"type:decimal(7,4)"`
	CFOPIntraState  string              `gorm:"type:varchar(4);not null;default:'5102'"`
	CFOPInterState  string              `gorm:"type:varchar(4);not null;default:'6102'"`
}

// TableName returns the table name for GORM
func (ProductTaxModel) TableName() string {
	return "product_taxes"
}

// ToDomain converts the persistence model to a domain ProductTax
func (m *ProductTaxModel) ToDomain() *tax.ProductTax {
	pt := &tax.ProductTax{
		ProductID:       m.ProductID,
		NCMCode:         m.NCMCode,
		Origin:          tax.ProductOrigin(m.Origin),
		ICMSSituation:   tax.SituationCode(m.ICMSSituation),
		PISSituation:    tax.SituationCode(m.PISSituation),
		COFINSSituation: tax.SituationCode(m.COFINSSituation),
		IPISituation:    tax.SituationCode(m.IPISituation),
		ICMSRate:        rateFromNullable(m.ICMSRate),
		PISRate:         rateFromNullable(m.PISRate),
		COFINSRate:      rateFromNullable(m.COFINSRate),
		IPIRate:         rateFromNullable(m.IPIRate),
		ICMSReducedBase: rateFromNullable(m.ICMSReducedBase),
		CFOPIntraState:  m.CFOPIntraState,
		CFOPInterState:  m.CFOPInterState,
	}
	pt.TenantAggregateRoot = m.root()
	return pt
}

// FromDomain populates the persistence model from a domain ProductTax
func (m *ProductTaxModel) FromDomain(pt *tax.ProductTax) {
	m.setRoot(pt.TenantAggregateRoot)
	m.ProductID = pt.ProductID
	m.NCMCode = pt.NCMCode
	m.Origin = int(pt.Origin)
	m.ICMSSituation = string(pt.ICMSSituation)
	m.PISSituation = string(pt.PISSituation)
	m.COFINSSituation = string(pt.COFINSSituation)
	m.IPISituation = string(pt.IPISituation)
	m.ICMSRate = nullableRate(pt.ICMSRate)
	m.PISRate = nullableRate(pt.PISRate)
	m.COFINSRate = nullableRate(pt.COFINSRate)
	m.IPIRate = nullableRate(pt.IPIRate)
	m.ICMSReducedBase = nullableRate(pt.ICMSReducedBase)
	m.CFOPIntraState = pt.CFOPIntraState
	m.CFOPInterState = pt.CFOPInterState
}

// ProductTaxModelFromDomain creates a new persistence model from a domain ProductTax
func ProductTaxModelFromDomain(pt *tax.ProductTax) *ProductTaxModel {
	m := &ProductTaxModel{}
	m.FromDomain(pt)
	return m
}

// TaxExemptionModel is the persistence model for the TaxExemption aggregate root.
// Applicable states are stored as a comma separated list; empty means every state.
type TaxExemptionModel struct {
	TenantAggregateModel
	CustomerID       uuid.UUID           `gorm:"type:uuid;not null;index:idx_exemption_tenant_customer,priority:2"`
	TaxType          string              `gorm:"type:varchar(10);not null"`
	Kind             string              `gorm:"type:varchar(20);not null"`
	ReducedRate      decimal.NullDecimal `gorm:"type:decimal(7,4)"`
	ApplicableStates string              `gorm:"type:varchar(100)"`
	ValidFrom        time.Time           `gorm:"not null"`
	ValidUntil       *time.Time
	LegalBasis       string `gorm:"type:varchar(500)"`
	Condition        string `gorm:"type:text"`
	Active           bool   `gorm:"not null;default:true;index"`
	DeactivatedAt    *time.Time
	DeactivateReason string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (TaxExemptionModel) TableName() string {
	return "tax_exemptions"
}

// ToDomain converts the persistence model to a domain TaxExemption
func (m *TaxExemptionModel) ToDomain() *tax.TaxExemption {
	e := &tax.TaxExemption{
		CustomerID:       m.CustomerID,
		TaxType:          tax.TaxType(m.TaxType),
		Kind:             tax.ExemptionKind(m.Kind),
		ReducedRate:      rateFromNullable(m.ReducedRate),
		ApplicableStates: splitStates(m.ApplicableStates),
		ValidFrom:        m.ValidFrom,
		ValidUntil:       m.ValidUntil,
		LegalBasis:       m.LegalBasis,
		Condition:        m.Condition,
		Active:           m.Active,
		DeactivatedAt:    m.DeactivatedAt,
		DeactivateReason: m.DeactivateReason,
	}
	e.TenantAggregateRoot = m.root()
	return e
}

// FromDomain populates the persistence model from a domain TaxExemption
func (m *TaxExemptionModel) FromDomain(e *tax.TaxExemption) {
	m.setRoot(e.TenantAggregateRoot)
	m.CustomerID = e.CustomerID
	m.TaxType = string(e.TaxType)
	m.Kind = string(e.Kind)
	m.ReducedRate = nullableRate(e.ReducedRate)
	m.ApplicableStates = joinStates(e.ApplicableStates)
	m.ValidFrom = e.ValidFrom
	m.ValidUntil = e.ValidUntil
	m.LegalBasis = e.LegalBasis
	m.Condition = e.Condition
	m.Active = e.Active
	m.DeactivatedAt = e.DeactivatedAt
	m.DeactivateReason = e.DeactivateReason
}

// TaxExemptionModelFromDomain creates a new persistence model from a domain TaxExemption
func TaxExemptionModelFromDomain(e *tax.TaxExemption) *TaxExemptionModel {
	m := &TaxExemptionModel{}
	m.FromDomain(e)
	return m
}

func joinStates(states []valueobject.UF) string {
	parts := make([]string, len(states))
	for i, s := range states {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}

func splitStates(s string) []valueobject.UF {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	states := make([]valueobject.UF, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			states = append(states, valueobject.UF(strings.ToUpper(p)))
		}
	}
	return states
}

// StateTaxRateModel is the persistence model for a state pair ICMS rate.
type StateTaxRateModel struct {
	TenantAggregateModel
	OriginState      string              `gorm:"type:char(2);not null"`
	DestinationState string              `gorm:"type:char(2);not null"`
	ICMSRate         decimal.Decimal     `gorm:"type:decimal(7,4);not null"`
	FCPRate          decimal.NullDecimal `gorm:"type:decimal(7,4)"`
	Active           bool                `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (StateTaxRateModel) TableName() string {
	return "state_tax_rates"
}

// ToDomain converts the persistence model to a domain StateTaxRate
func (m *StateTaxRateModel) ToDomain() *tax.StateTaxRate {
	r := &tax.StateTaxRate{
		OriginState:      valueobject.UF(m.OriginState),
		DestinationState: valueobject.UF(m.DestinationState),
		ICMSRate:         rateFromDecimal(m.ICMSRate),
		FCPRate:          rateFromNullable(m.FCPRate),
		Active:           m.Active,
	}
	r.TenantAggregateRoot = m.root()
	return r
}

// FromDomain populates the persistence model from a domain StateTaxRate
func (m *StateTaxRateModel) FromDomain(r *tax.StateTaxRate) {
	m.setRoot(r.TenantAggregateRoot)
	m.OriginState = string(r.OriginState)
	m.DestinationState = string(r.DestinationState)
	m.ICMSRate = r.ICMSRate.Decimal()
	m.FCPRate = nullableRate(r.FCPRate)
	m.Active = r.Active
}

// StateTaxRateModelFromDomain creates a new persistence model from a domain StateTaxRate
func StateTaxRateModelFromDomain(r *tax.StateTaxRate) *StateTaxRateModel {
	m := &StateTaxRateModel{}
	m.FromDomain(r)
	return m
}

// TaxCalculationModel is the persistence model for one line's tax breakdown.
// Each tax component is flattened into base/rate/amount/situation columns.
type TaxCalculationModel struct {
	BaseModel
	TenantID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_tax_calc_tenant_order,priority:1;index:idx_tax_calc_tenant_date,priority:1;uniqueIndex:uq_tax_calc_tenant_item,priority:1"`
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index:idx_tax_calc_tenant_order,priority:2"`
	OrderItemID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_tax_calc_tenant_item,priority:2"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null"`
	NCMCode          string          `gorm:"type:varchar(8)"`
	CFOP             string          `gorm:"type:varchar(4)"`
	OriginState      string          `gorm:"type:char(2);not null"`
	DestinationState string          `gorm:"type:char(2);not null"`
	GrossAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ICMSBase         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	ICMSRate         decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0"`
	ICMSAmount       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	ICMSSituation    string          `gorm:"type:varchar(3)"`
	PISBase          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	PISRate          decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0"`
	PISAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	PISSituation     string          `gorm:"type:varchar(2)"`
	COFINSBase       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	COFINSRate       decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0"`
	COFINSAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	COFINSSituation  string          `gorm:"type:varchar(2)"`
	IPIBase          decimal.Decimal `gorm:"column:ipi_base;type:decimal(18,2);not null;default:0"`
	IPIRate          decimal.Decimal `gorm:"column:ipi_rate;type:decimal(7,4);not null;default:0"`
	IPIAmount        decimal.Decimal `gorm:"column:ipi_amount;type:decimal(18,2);not null;default:0"`
	IPISituation     string          `gorm:"column:ipi_situation;type:varchar(2)"`
	TotalTax         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CalculatedAt     time.Time       `gorm:"not null;index:idx_tax_calc_tenant_date,priority:2"`
}

// TableName returns the table name for GORM
func (TaxCalculationModel) TableName() string {
	return "tax_calculations"
}

// ToDomain converts the persistence model to a domain TaxCalculation
func (m *TaxCalculationModel) ToDomain() *tax.TaxCalculation {
	return &tax.TaxCalculation{
		BaseEntity:       m.entity(),
		TenantID:         m.TenantID,
		OrderID:          m.OrderID,
		OrderItemID:      m.OrderItemID,
		ProductID:        m.ProductID,
		NCMCode:          m.NCMCode,
		CFOP:             m.CFOP,
		OriginState:      valueobject.UF(m.OriginState),
		DestinationState: valueobject.UF(m.DestinationState),
		GrossAmount:      valueobject.NewMoneyBRL(m.GrossAmount),
		ICMS:             component(m.ICMSBase, m.ICMSRate, m.ICMSAmount, m.ICMSSituation),
		PIS:              component(m.PISBase, m.PISRate, m.PISAmount, m.PISSituation),
		COFINS:           component(m.COFINSBase, m.COFINSRate, m.COFINSAmount, m.COFINSSituation),
		IPI:              component(m.IPIBase, m.IPIRate, m.IPIAmount, m.IPISituation),
		TotalTax:         valueobject.NewMoneyBRL(m.TotalTax),
		CalculatedAt:     m.CalculatedAt,
	}
}

// FromDomain populates the persistence model from a domain TaxCalculation
func (m *TaxCalculationModel) FromDomain(c *tax.TaxCalculation) {
	m.setEntity(c.BaseEntity)
	m.TenantID = c.TenantID
	m.OrderID = c.OrderID
	m.OrderItemID = c.OrderItemID
	m.ProductID = c.ProductID
	m.NCMCode = c.NCMCode
	m.CFOP = c.CFOP
	m.OriginState = string(c.OriginState)
	m.DestinationState = string(c.DestinationState)
	m.GrossAmount = c.GrossAmount.Amount()
	m.ICMSBase, m.ICMSRate, m.ICMSAmount, m.ICMSSituation = flatten(c.ICMS)
	m.PISBase, m.PISRate, m.PISAmount, m.PISSituation = flatten(c.PIS)
	m.COFINSBase, m.COFINSRate, m.COFINSAmount, m.COFINSSituation = flatten(c.COFINS)
	m.IPIBase, m.IPIRate, m.IPIAmount, m.IPISituation = flatten(c.IPI)
	m.TotalTax = c.TotalTax.Amount()
	m.CalculatedAt = c.CalculatedAt
}

// TaxCalculationModelFromDomain creates a new persistence model from a domain TaxCalculation
func TaxCalculationModelFromDomain(c *tax.TaxCalculation) *TaxCalculationModel {
	m := &TaxCalculationModel{}
	m.FromDomain(c)
	return m
}

func component(base, rate, amount decimal.Decimal, situation string) tax.TaxComponent {
	return tax.TaxComponent{
		Base:      valueobject.NewMoneyBRL(base),
		Rate:      rateFromDecimal(rate),
		Amount:    valueobject.NewMoneyBRL(amount),
		Situation: tax.SituationCode(situation),
	}
}

func flatten(c tax.TaxComponent) (base, rate, amount decimal.Decimal, situation string) {
	return c.Base.Amount(), c.Rate.Decimal(), c.Amount.Amount(), string(c.Situation)
}
