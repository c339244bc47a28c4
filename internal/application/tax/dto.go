package tax

import (
	"time"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
	"github.com/mestresdocafe/backend/internal/domain/tax"
	"github.com/shopspring/decimal"
)

// ==================== Calculation DTOs ====================

// CalculateOrderTaxesRequest overrides the states used for an order.
// Empty origin uses the store origin; empty destination uses the customer address.
type CalculateOrderTaxesRequest struct {
	OriginState      string `json:"origin_state" binding:"omitempty,uf"`
	DestinationState string `json:"destination_state" binding:"omitempty,uf"`
}

// QuoteRequest asks for the taxes of an ad-hoc line
type QuoteRequest struct {
	ProductID        *uuid.UUID       `json:"product_id"`
	CustomerID       *uuid.UUID       `json:"customer_id"`
	NCMCode          string           `json:"ncm_code" binding:"omitempty,ncm"`
	UnitPrice        *decimal.Decimal `json:"unit_price"`
	Quantity         decimal.Decimal  `json:"quantity" binding:"required"`
	OriginState      string           `json:"origin_state" binding:"omitempty,uf"`
	DestinationState string           `json:"destination_state" binding:"omitempty,uf"`
}

// TaxComponentResponse is one tax of one line
type TaxComponentResponse struct {
	Base      decimal.Decimal `json:"base"`
	Rate      decimal.Decimal `json:"rate"`
	Amount    decimal.Decimal `json:"amount"`
	Situation string          `json:"situation"`
}

// TaxCalculationResponse is the tax breakdown of one line
type TaxCalculationResponse struct {
	ID               uuid.UUID            `json:"id"`
	OrderID          uuid.UUID            `json:"order_id,omitempty"`
	OrderItemID      uuid.UUID            `json:"order_item_id,omitempty"`
	ProductID        uuid.UUID            `json:"product_id,omitempty"`
	NCMCode          string               `json:"ncm_code,omitempty"`
	CFOP             string               `json:"cfop"`
	OriginState      string               `json:"origin_state"`
	DestinationState string               `json:"destination_state"`
	GrossAmount      decimal.Decimal      `json:"gross_amount"`
	ICMS             TaxComponentResponse `json:"icms"`
	PIS              TaxComponentResponse `json:"pis"`
	COFINS           TaxComponentResponse `json:"cofins"`
	IPI              TaxComponentResponse `json:"ipi"`
	TotalTax         decimal.Decimal      `json:"total_tax"`
	CalculatedAt     time.Time            `json:"calculated_at"`
}

// TaxTotalsResponse adds up amounts per tax
type TaxTotalsResponse struct {
	ICMS   decimal.Decimal `json:"icms"`
	PIS    decimal.Decimal `json:"pis"`
	COFINS decimal.Decimal `json:"cofins"`
	IPI    decimal.Decimal `json:"ipi"`
	Total  decimal.Decimal `json:"total"`
	Gross  decimal.Decimal `json:"gross"`
	Lines  int             `json:"lines"`
}

// OrderTaxesResponse is the stored tax state of an order
type OrderTaxesResponse struct {
	OrderID     uuid.UUID                `json:"order_id"`
	OrderNumber string                   `json:"order_number"`
	TaxAmount   decimal.Decimal          `json:"tax_amount"`
	TotalAmount decimal.Decimal          `json:"total_amount"`
	Summary     TaxTotalsResponse        `json:"summary"`
	Lines       []TaxCalculationResponse `json:"lines"`
}

// ComplianceResponse is the compliance report of an order
type ComplianceResponse struct {
	OrderID uuid.UUID `json:"order_id"`
	tax.ComplianceReport
}

// TaxSummaryResponse totals taxes over a period
type TaxSummaryResponse struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
	TaxTotalsResponse
}

// ==================== Exemption DTOs ====================

// CreateExemptionRequest grants an exemption to a customer
type CreateExemptionRequest struct {
	CustomerID       uuid.UUID        `json:"customer_id" binding:"required"`
	TaxType          string           `json:"tax_type" binding:"required,oneof=ICMS PIS COFINS IPI"`
	Kind             string           `json:"kind" binding:"required,oneof=total reduced_rate"`
	ReducedRate      *decimal.Decimal `json:"reduced_rate"`
	ApplicableStates []string         `json:"applicable_states" binding:"omitempty,dive,uf"`
	ValidFrom        *time.Time       `json:"valid_from"`
	ValidUntil       *time.Time       `json:"valid_until"`
	LegalBasis       string           `json:"legal_basis" binding:"max=500"`
	Condition        string           `json:"condition"`
}

// DeactivateExemptionRequest revokes an exemption
type DeactivateExemptionRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ExemptionResponse represents an exemption
type ExemptionResponse struct {
	ID               uuid.UUID        `json:"id"`
	CustomerID       uuid.UUID        `json:"customer_id"`
	TaxType          string           `json:"tax_type"`
	Kind             string           `json:"kind"`
	ReducedRate      *decimal.Decimal `json:"reduced_rate,omitempty"`
	ApplicableStates []string         `json:"applicable_states"`
	ValidFrom        time.Time        `json:"valid_from"`
	ValidUntil       *time.Time       `json:"valid_until,omitempty"`
	LegalBasis       string           `json:"legal_basis"`
	Condition        string           `json:"condition,omitempty"`
	Active           bool             `json:"active"`
	DeactivatedAt    *time.Time       `json:"deactivated_at,omitempty"`
	DeactivateReason string           `json:"deactivate_reason,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// ==================== NCM DTOs ====================

// SaveNCMRequest creates or updates an NCM entry
type SaveNCMRequest struct {
	Code        string           `json:"code" binding:"required"`
	Description string           `json:"description" binding:"required,max=500"`
	IPIRate     *decimal.Decimal `json:"ipi_rate"`
	PISRate     *decimal.Decimal `json:"pis_rate"`
	COFINSRate  *decimal.Decimal `json:"cofins_rate"`
	Active      *bool            `json:"active"`
}

// NCMResponse represents an NCM entry
type NCMResponse struct {
	ID          uuid.UUID        `json:"id"`
	Code        string           `json:"code"`
	Description string           `json:"description"`
	IPIRate     *decimal.Decimal `json:"ipi_rate,omitempty"`
	PISRate     *decimal.Decimal `json:"pis_rate,omitempty"`
	COFINSRate  *decimal.Decimal `json:"cofins_rate,omitempty"`
	Active      bool             `json:"active"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NCMListFilter filters NCM listings
type NCMListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ==================== Product tax DTOs ====================

// SaveProductTaxRequest replaces a product's fiscal configuration
type SaveProductTaxRequest struct {
	NCMCode         string           `json:"ncm_code" binding:"required,ncm"`
	Origin          int              `json:"origin" binding:"min=0,max=8"`
	ICMSSituation   string           `json:"icms_situation"`
	PISSituation    string           `json:"pis_situation"`
	COFINSSituation string           `json:"cofins_situation"`
	IPISituation    string           `json:"ipi_situation"`
	ICMSRate        *decimal.Decimal `json:"icms_rate"`
	PISRate         *decimal.Decimal `json:"pis_rate"`
	COFINSRate      *decimal.Decimal `json:"cofins_rate"`
	IPIRate         *decimal.Decimal `json:"ipi_rate"`
	ICMSReducedBase *decimal.Decimal `json:"icms_reduced_base"`
	CFOPIntraState  string           `json:"cfop_intra_state" binding:"omitempty,len=4,numeric"`
	CFOPInterState  string           `json:"cfop_inter_state" binding:"omitempty,len=4,numeric"`
}

// ProductTaxResponse represents a product's fiscal configuration
type ProductTaxResponse struct {
	ID              uuid.UUID        `json:"id"`
	ProductID       uuid.UUID        `json:"product_id"`
	NCMCode         string           `json:"ncm_code"`
	Origin          int              `json:"origin"`
	ICMSSituation   string           `json:"icms_situation,omitempty"`
	PISSituation    string           `json:"pis_situation,omitempty"`
	COFINSSituation string           `json:"cofins_situation,omitempty"`
	IPISituation    string           `json:"ipi_situation,omitempty"`
	ICMSRate        *decimal.Decimal `json:"icms_rate,omitempty"`
	PISRate         *decimal.Decimal `json:"pis_rate,omitempty"`
	COFINSRate      *decimal.Decimal `json:"cofins_rate,omitempty"`
	IPIRate         *decimal.Decimal `json:"ipi_rate,omitempty"`
	ICMSReducedBase *decimal.Decimal `json:"icms_reduced_base,omitempty"`
	CFOPIntraState  string           `json:"cfop_intra_state"`
	CFOPInterState  string           `json:"cfop_inter_state"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// ==================== State rate DTOs ====================

// SaveStateRateRequest sets the ICMS rate of a state pair
type SaveStateRateRequest struct {
	OriginState      string           `json:"origin_state" binding:"required,uf"`
	DestinationState string           `json:"destination_state" binding:"required,uf"`
	ICMSRate         decimal.Decimal  `json:"icms_rate" binding:"required"`
	FCPRate          *decimal.Decimal `json:"fcp_rate"`
	Active           *bool            `json:"active"`
}

// StateRateResponse represents a state pair rate
type StateRateResponse struct {
	ID               uuid.UUID        `json:"id"`
	OriginState      string           `json:"origin_state"`
	DestinationState string           `json:"destination_state"`
	ICMSRate         decimal.Decimal  `json:"icms_rate"`
	FCPRate          *decimal.Decimal `json:"fcp_rate,omitempty"`
	Active           bool             `json:"active"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// ==================== Converters ====================

func toComponentResponse(c tax.TaxComponent) TaxComponentResponse {
	return TaxComponentResponse{
		Base:      c.Base.Amount(),
		Rate:      c.Rate.Decimal(),
		Amount:    c.Amount.Amount(),
		Situation: string(c.Situation),
	}
}

// ToTaxCalculationResponse converts a calculation to a response DTO
func ToTaxCalculationResponse(c *tax.TaxCalculation) TaxCalculationResponse {
	return TaxCalculationResponse{
		ID:               c.ID,
		OrderID:          c.OrderID,
		OrderItemID:      c.OrderItemID,
		ProductID:        c.ProductID,
		NCMCode:          c.NCMCode,
		CFOP:             c.CFOP,
		OriginState:      c.OriginState.String(),
		DestinationState: c.DestinationState.String(),
		GrossAmount:      c.GrossAmount.Amount(),
		ICMS:             toComponentResponse(c.ICMS),
		PIS:              toComponentResponse(c.PIS),
		COFINS:           toComponentResponse(c.COFINS),
		IPI:              toComponentResponse(c.IPI),
		TotalTax:         c.TotalTax.Amount(),
		CalculatedAt:     c.CalculatedAt,
	}
}

// ToTaxCalculationResponses converts a slice of calculations
func ToTaxCalculationResponses(calcs []tax.TaxCalculation) []TaxCalculationResponse {
	responses := make([]TaxCalculationResponse, len(calcs))
	for i := range calcs {
		responses[i] = ToTaxCalculationResponse(&calcs[i])
	}
	return responses
}

// ToTaxTotalsResponse converts totals to a response DTO
func ToTaxTotalsResponse(t tax.TaxTotals) TaxTotalsResponse {
	return TaxTotalsResponse{
		ICMS:   t.ICMS.Amount(),
		PIS:    t.PIS.Amount(),
		COFINS: t.COFINS.Amount(),
		IPI:    t.IPI.Amount(),
		Total:  t.Total.Amount(),
		Gross:  t.Gross.Amount(),
		Lines:  t.Lines,
	}
}

// ToExemptionResponse converts an exemption to a response DTO
func ToExemptionResponse(e *tax.TaxExemption) ExemptionResponse {
	states := make([]string, len(e.ApplicableStates))
	for i, s := range e.ApplicableStates {
		states[i] = s.String()
	}
	return ExemptionResponse{
		ID:               e.ID,
		CustomerID:       e.CustomerID,
		TaxType:          string(e.TaxType),
		Kind:             string(e.Kind),
		ReducedRate:      percentDecimal(e.ReducedRate),
		ApplicableStates: states,
		ValidFrom:        e.ValidFrom,
		ValidUntil:       e.ValidUntil,
		LegalBasis:       e.LegalBasis,
		Condition:        e.Condition,
		Active:           e.Active,
		DeactivatedAt:    e.DeactivatedAt,
		DeactivateReason: e.DeactivateReason,
		CreatedAt:        e.CreatedAt,
	}
}

// ToExemptionResponses converts a slice of exemptions
func ToExemptionResponses(exemptions []tax.TaxExemption) []ExemptionResponse {
	responses := make([]ExemptionResponse, len(exemptions))
	for i := range exemptions {
		responses[i] = ToExemptionResponse(&exemptions[i])
	}
	return responses
}

// ToNCMResponse converts an NCM entry to a response DTO
func ToNCMResponse(n *tax.NCMCode) NCMResponse {
	return NCMResponse{
		ID:          n.ID,
		Code:        n.Code,
		Description: n.Description,
		IPIRate:     percentDecimal(n.IPIRate),
		PISRate:     percentDecimal(n.PISRate),
		COFINSRate:  percentDecimal(n.COFINSRate),
		Active:      n.Active,
		UpdatedAt:   n.UpdatedAt,
	}
}

// ToProductTaxResponse converts a product configuration to a response DTO
func ToProductTaxResponse(p *tax.ProductTax) ProductTaxResponse {
	return ProductTaxResponse{
		ID:              p.ID,
		ProductID:       p.ProductID,
		NCMCode:         p.NCMCode,
		Origin:          int(p.Origin),
		ICMSSituation:   string(p.ICMSSituation),
		PISSituation:    string(p.PISSituation),
		COFINSSituation: string(p.COFINSSituation),
		IPISituation:    string(p.IPISituation),
		ICMSRate:        percentDecimal(p.ICMSRate),
		PISRate:         percentDecimal(p.PISRate),
		COFINSRate:      percentDecimal(p.COFINSRate),
		IPIRate:         percentDecimal(p.IPIRate),
		ICMSReducedBase: percentDecimal(p.ICMSReducedBase),
		CFOPIntraState:  p.CFOPIntraState,
		CFOPInterState:  p.CFOPInterState,
		UpdatedAt:       p.UpdatedAt,
	}
}

// ToStateRateResponse converts a state rate to a response DTO
func ToStateRateResponse(r *tax.StateTaxRate) StateRateResponse {
	return StateRateResponse{
		ID:               r.ID,
		OriginState:      r.OriginState.String(),
		DestinationState: r.DestinationState.String(),
		ICMSRate:         r.ICMSRate.Decimal(),
		FCPRate:          percentDecimal(r.FCPRate),
		Active:           r.Active,
		UpdatedAt:        r.UpdatedAt,
	}
}

func percentDecimal(p *valueobject.Percentage) *decimal.Decimal {
	if p == nil {
		return nil
	}
	d := p.Decimal()
	return &d
}

// toPercentage validates an optional rate from a request
func toPercentage(field string, d *decimal.Decimal) (*valueobject.Percentage, error) {
	if d == nil {
		return nil, nil
	}
	p, err := valueobject.NewPercentage(*d)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_RATE", field+": "+err.Error())
	}
	return &p, nil
}

// parseState parses an optional state, returning fallback when empty
func parseState(field, value string, fallback valueobject.UF) (valueobject.UF, error) {
	if value == "" {
		return fallback, nil
	}
	uf, err := valueobject.ParseUF(value)
	if err != nil {
		return "", shared.NewDomainError("INVALID_STATE_CODE", field+": "+err.Error())
	}
	return uf, nil
}
