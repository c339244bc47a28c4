package tax

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var hundredPercent = decimal.NewFromInt(100)

// ConditionEvaluator decides whether an exemption condition holds for a line
type ConditionEvaluator interface {
	Matches(condition string, facts map[string]any) (bool, error)
}

// LineInput describes one order line to be taxed
type LineInput struct {
	TenantID    uuid.UUID
	OrderID     uuid.UUID
	OrderItemID uuid.UUID
	ProductID   uuid.UUID
	UnitPrice   valueobject.Money
	Quantity    decimal.Decimal
	Origin      valueobject.UF
	Destination valueobject.UF
	ProductTax  *ProductTax
	NCM         *NCMCode
	// Exemptions are the customer's exemptions; state, date and condition
	// are checked again per line
	Exemptions []TaxExemption
	At         time.Time
}

// Calculator composes ICMS, PIS, COFINS and IPI for order lines
type Calculator struct {
	rates      RateTable
	conditions ConditionEvaluator
	now        func() time.Time
}

// CalculatorOption configures a Calculator
type CalculatorOption func(*Calculator)

// WithConditionEvaluator enables JSONLogic exemption conditions.
// Without an evaluator, conditional exemptions never apply.
func WithConditionEvaluator(e ConditionEvaluator) CalculatorOption {
	return func(c *Calculator) {
		c.conditions = e
	}
}

// WithClock overrides the reference time used when a line has none
func WithClock(now func() time.Time) CalculatorOption {
	return func(c *Calculator) {
		c.now = now
	}
}

// NewCalculator creates a calculator over a state rate table (nil uses only the static defaults)
func NewCalculator(rates RateTable, opts ...CalculatorOption) *Calculator {
	c := &Calculator{rates: rates, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calculate taxes a single line
func (c *Calculator) Calculate(in LineInput) (*TaxCalculation, error) {
	if !in.Quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if in.UnitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if !in.Origin.IsValid() || !in.Destination.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATE_CODE", "Origin and destination must be valid state codes")
	}
	at := in.At
	if at.IsZero() {
		at = c.now()
	}

	gross := in.UnitPrice.Multiply(in.Quantity).RoundCurrency()
	ncmCode := ""
	if in.ProductTax != nil {
		ncmCode = in.ProductTax.NCMCode
	} else if in.NCM != nil {
		ncmCode = in.NCM.Code
	}

	exemptions, err := c.applicableExemptions(in, gross, ncmCode, at)
	if err != nil {
		return nil, err
	}

	calc := &TaxCalculation{
		BaseEntity:       shared.NewBaseEntity(),
		TenantID:         in.TenantID,
		OrderID:          in.OrderID,
		OrderItemID:      in.OrderItemID,
		ProductID:        in.ProductID,
		NCMCode:          ncmCode,
		CFOP:             in.ProductTax.CFOPFor(in.Origin, in.Destination),
		OriginState:      in.Origin,
		DestinationState: in.Destination,
		GrossAmount:      gross,
		CalculatedAt:     at,
	}
	calc.ICMS = c.icms(in, gross, exemptions[TaxTypeICMS])
	calc.PIS = c.contribution(TaxTypePIS, DefaultPISRate, in, gross, exemptions[TaxTypePIS])
	calc.COFINS = c.contribution(TaxTypeCOFINS, DefaultCOFINSRate, in, gross, exemptions[TaxTypeCOFINS])
	calc.IPI = c.ipi(in, gross, exemptions[TaxTypeIPI])
	calc.sumTotal()
	return calc, nil
}

// applicableExemptions picks, per tax, the exemption that applies to the line.
// A total exemption beats a reduced rate; among reduced rates the lowest wins.
func (c *Calculator) applicableExemptions(in LineInput, gross valueobject.Money, ncmCode string, at time.Time) (map[TaxType]*TaxExemption, error) {
	chosen := make(map[TaxType]*TaxExemption, len(in.Exemptions))
	var facts map[string]any
	for i := range in.Exemptions {
		ex := &in.Exemptions[i]
		if ex.TenantID != in.TenantID || !ex.AppliesTo(in.Destination, at) {
			continue
		}
		if ex.HasCondition() {
			if c.conditions == nil {
				continue
			}
			if facts == nil {
				facts = lineFacts(in, gross, ncmCode)
			}
			ok, err := c.conditions.Matches(ex.Condition, facts)
			if err != nil {
				return nil, shared.NewDomainError("INVALID_EXEMPTION_CONDITION",
					fmt.Sprintf("Exemption %s has an invalid condition: %v", ex.ID, err))
			}
			if !ok {
				continue
			}
		}
		current := chosen[ex.TaxType]
		if current == nil || preferExemption(ex, current) {
			chosen[ex.TaxType] = ex
		}
	}
	return chosen, nil
}

func preferExemption(candidate, current *TaxExemption) bool {
	if current.IsTotal() {
		return false
	}
	if candidate.IsTotal() {
		return true
	}
	return candidate.ReducedRate.Decimal().LessThan(current.ReducedRate.Decimal())
}

func lineFacts(in LineInput, gross valueobject.Money, ncmCode string) map[string]any {
	amount, _ := gross.Amount().Float64()
	quantity, _ := in.Quantity.Float64()
	return map[string]any{
		"product_id":        in.ProductID.String(),
		"ncm":               ncmCode,
		"amount":            amount,
		"quantity":          quantity,
		"origin_state":      string(in.Origin),
		"destination_state": string(in.Destination),
		"interstate":        in.Origin != in.Destination,
	}
}

func (c *Calculator) icms(in LineInput, gross valueobject.Money, ex *TaxExemption) TaxComponent {
	if ex != nil && ex.IsTotal() {
		return zeroComponent(ExemptionSituation(TaxTypeICMS))
	}
	situation := in.ProductTax.Situation(TaxTypeICMS)
	if situation != "" && IsExemptOrNonTaxed(TaxTypeICMS, situation) {
		return zeroComponent(situation)
	}

	rate, ok := valueobject.Percentage{}, false
	if c.rates != nil {
		rate, ok = c.rates.ICMSRate(in.Origin, in.Destination)
	}
	if !ok {
		rate = DefaultICMSRate(in.Origin, in.Destination)
	}
	if override := in.ProductTax.RateOverride(TaxTypeICMS); override != nil {
		rate = *override
	}
	if ex != nil {
		rate = *ex.ReducedRate
	}

	base := gross
	if in.ProductTax != nil && in.ProductTax.ICMSReducedBase != nil {
		base = gross.Multiply(in.ProductTax.ICMSReducedBase.Complement().Fraction()).RoundCurrency()
		situation = ICMSReducedBase
	} else if situation == "" || situation == ICMSReducedBase {
		situation = ICMSTaxed
	}

	return TaxComponent{
		Base:      base,
		Rate:      rate,
		Amount:    base.ApplyRate(rate),
		Situation: situation,
	}
}

func (c *Calculator) contribution(taxType TaxType, legalDefault valueobject.Percentage, in LineInput, gross valueobject.Money, ex *TaxExemption) TaxComponent {
	if ex != nil && ex.IsTotal() {
		return zeroComponent(ExemptionSituation(taxType))
	}
	situation := in.ProductTax.Situation(taxType)
	if situation != "" && IsExemptOrNonTaxed(taxType, situation) {
		return zeroComponent(situation)
	}

	rate := legalDefault
	if override := in.ProductTax.RateOverride(taxType); override != nil {
		rate = *override
	} else if ncmRate := in.NCM.DefaultRate(taxType); ncmRate != nil {
		rate = *ncmRate
	}
	if ex != nil {
		rate = *ex.ReducedRate
	}
	if situation == "" {
		situation = DefaultSituation(taxType)
	}

	return TaxComponent{
		Base:      gross,
		Rate:      rate,
		Amount:    gross.ApplyRate(rate),
		Situation: situation,
	}
}

func (c *Calculator) ipi(in LineInput, gross valueobject.Money, ex *TaxExemption) TaxComponent {
	configured := in.ProductTax.RateOverride(TaxTypeIPI)
	if configured == nil {
		configured = in.NCM.DefaultRate(TaxTypeIPI)
	}
	if configured == nil || configured.IsZero() {
		return zeroComponent(IPINotTaxed)
	}
	if ex != nil && ex.IsTotal() {
		return zeroComponent(ExemptionSituation(TaxTypeIPI))
	}
	situation := in.ProductTax.Situation(TaxTypeIPI)
	if situation != "" && IsExemptOrNonTaxed(TaxTypeIPI, situation) {
		return zeroComponent(situation)
	}

	rate := *configured
	if ex != nil {
		rate = *ex.ReducedRate
	}
	return TaxComponent{
		Base:      gross,
		Rate:      rate,
		Amount:    gross.ApplyRate(rate),
		Situation: IPITaxed,
	}
}
