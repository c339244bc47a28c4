package tax

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
)

// ProductOrigin is the goods origin digit printed before the ICMS situation (0-8)
type ProductOrigin int

const (
	OriginNational              ProductOrigin = 0
	OriginForeignDirectImport   ProductOrigin = 1
	OriginForeignDomesticMarket ProductOrigin = 2
	OriginNationalImportOver40  ProductOrigin = 3
	OriginNationalBasicProcess  ProductOrigin = 4
	OriginNationalImportUpTo40  ProductOrigin = 5
	OriginForeignNoSimilarDI    ProductOrigin = 6
	OriginForeignNoSimilarDM    ProductOrigin = 7
	OriginNationalImportOver70  ProductOrigin = 8
)

// IsValid checks if the origin digit is in range
func (o ProductOrigin) IsValid() bool {
	return o >= OriginNational && o <= OriginNationalImportOver70
}

// Default CFOP codes for sales of goods acquired from third parties
const (
	DefaultCFOPIntraState = "5102"
	DefaultCFOPInterState = "6102"
)

// ProductTax is the fiscal configuration of a product.
// Empty situations and nil rates mean "use the defaults".
type ProductTax struct {
	shared.TenantAggregateRoot
	ProductID       uuid.UUID
	NCMCode         string
	Origin          ProductOrigin
	ICMSSituation   SituationCode
	PISSituation    SituationCode
	COFINSSituation SituationCode
	IPISituation    SituationCode
	ICMSRate        *valueobject.Percentage
	PISRate         *valueobject.Percentage
	COFINSRate      *valueobject.Percentage
	IPIRate         *valueobject.Percentage
	// ICMSReducedBase is the share of the ICMS base removed, in percent
	ICMSReducedBase *valueobject.Percentage
	CFOPIntraState  string
	CFOPInterState  string
}

// NewProductTax creates the fiscal configuration for a product
func NewProductTax(tenantID, productID uuid.UUID, ncmCode string, origin ProductOrigin) (*ProductTax, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	normalized, err := NormalizeNCM(ncmCode)
	if err != nil {
		return nil, err
	}
	if !origin.IsValid() {
		return nil, shared.NewDomainError("INVALID_ORIGIN", "Product origin must be between 0 and 8")
	}
	return &ProductTax{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ProductID:           productID,
		NCMCode:             normalized,
		Origin:              origin,
		CFOPIntraState:      DefaultCFOPIntraState,
		CFOPInterState:      DefaultCFOPInterState,
	}, nil
}

// Reclassify moves the product to another NCM code
func (p *ProductTax) Reclassify(ncmCode string, origin ProductOrigin) error {
	normalized, err := NormalizeNCM(ncmCode)
	if err != nil {
		return err
	}
	if !origin.IsValid() {
		return shared.NewDomainError("INVALID_ORIGIN", "Product origin must be between 0 and 8")
	}
	p.NCMCode = normalized
	p.Origin = origin
	p.Touch()
	return nil
}

// SetSituation sets the default situation code of a tax; an empty code clears it
func (p *ProductTax) SetSituation(taxType TaxType, code SituationCode) error {
	if code != "" && !IsKnownSituation(taxType, code) {
		return shared.NewDomainError("INVALID_SITUATION", fmt.Sprintf("Situation %s is not valid for %s", code, taxType))
	}
	switch taxType {
	case TaxTypeICMS:
		p.ICMSSituation = code
	case TaxTypePIS:
		p.PISSituation = code
	case TaxTypeCOFINS:
		p.COFINSSituation = code
	case TaxTypeIPI:
		p.IPISituation = code
	default:
		return shared.NewDomainError("INVALID_TAX_TYPE", fmt.Sprintf("Unknown tax type %s", taxType))
	}
	p.Touch()
	return nil
}

// SetRateOverride replaces the rate used for a tax; nil removes the override
func (p *ProductTax) SetRateOverride(taxType TaxType, rate *valueobject.Percentage) error {
	switch taxType {
	case TaxTypeICMS:
		p.ICMSRate = rate
	case TaxTypePIS:
		p.PISRate = rate
	case TaxTypeCOFINS:
		p.COFINSRate = rate
	case TaxTypeIPI:
		p.IPIRate = rate
	default:
		return shared.NewDomainError("INVALID_TAX_TYPE", fmt.Sprintf("Unknown tax type %s", taxType))
	}
	p.Touch()
	return nil
}

// SetReducedBase sets the ICMS base reduction; nil removes it
func (p *ProductTax) SetReducedBase(reduction *valueobject.Percentage) error {
	if reduction != nil {
		d := reduction.Decimal()
		if !d.IsPositive() || d.GreaterThanOrEqual(hundredPercent) {
			return shared.NewDomainError("INVALID_REDUCED_BASE", "ICMS base reduction must be greater than 0 and less than 100")
		}
	}
	p.ICMSReducedBase = reduction
	p.Touch()
	return nil
}

// SetCFOP overrides the CFOP hints; empty values keep the defaults
func (p *ProductTax) SetCFOP(intraState, interState string) {
	if intraState != "" {
		p.CFOPIntraState = intraState
	}
	if interState != "" {
		p.CFOPInterState = interState
	}
	p.Touch()
}

// RateOverride returns the configured rate of a tax, nil when unset
func (p *ProductTax) RateOverride(taxType TaxType) *valueobject.Percentage {
	if p == nil {
		return nil
	}
	switch taxType {
	case TaxTypeICMS:
		return p.ICMSRate
	case TaxTypePIS:
		return p.PISRate
	case TaxTypeCOFINS:
		return p.COFINSRate
	case TaxTypeIPI:
		return p.IPIRate
	}
	return nil
}

// Situation returns the configured situation of a tax, empty when unset
func (p *ProductTax) Situation(taxType TaxType) SituationCode {
	if p == nil {
		return ""
	}
	switch taxType {
	case TaxTypeICMS:
		return p.ICMSSituation
	case TaxTypePIS:
		return p.PISSituation
	case TaxTypeCOFINS:
		return p.COFINSSituation
	case TaxTypeIPI:
		return p.IPISituation
	}
	return ""
}

// CFOPFor picks the CFOP for a sale between two states
func (p *ProductTax) CFOPFor(origin, destination valueobject.UF) string {
	intra, inter := DefaultCFOPIntraState, DefaultCFOPInterState
	if p != nil {
		if p.CFOPIntraState != "" {
			intra = p.CFOPIntraState
		}
		if p.CFOPInterState != "" {
			inter = p.CFOPInterState
		}
	}
	if origin == destination {
		return intra
	}
	return inter
}
