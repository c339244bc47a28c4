package tax

import (
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
)

// TaxType identifies one of the four taxes composed on every order line
type TaxType string

const (
	TaxTypeICMS   TaxType = "ICMS"
	TaxTypePIS    TaxType = "PIS"
	TaxTypeCOFINS TaxType = "COFINS"
	TaxTypeIPI    TaxType = "IPI"
)

// AllTaxTypes returns the taxes in calculation order
func AllTaxTypes() []TaxType {
	return []TaxType{TaxTypeICMS, TaxTypePIS, TaxTypeCOFINS, TaxTypeIPI}
}

// IsValid checks if the tax type is known
func (t TaxType) IsValid() bool {
	switch t {
	case TaxTypeICMS, TaxTypePIS, TaxTypeCOFINS, TaxTypeIPI:
		return true
	}
	return false
}

// String returns the string representation of TaxType
func (t TaxType) String() string {
	return string(t)
}

// SituationCode is the CST (código de situação tributária) reported for a tax
type SituationCode string

// ICMS situation codes
const (
	ICMSTaxed       SituationCode = "00"
	ICMSReducedBase SituationCode = "20"
	ICMSExempt      SituationCode = "40"
	ICMSNotTaxed    SituationCode = "41"
	ICMSSuspended   SituationCode = "50"
)

// PIS and COFINS situation codes
const (
	ContributionTaxed      SituationCode = "01"
	ContributionSingleRate SituationCode = "04"
	ContributionZeroRate   SituationCode = "06"
	ContributionExempt     SituationCode = "07"
	ContributionNotSubject SituationCode = "08"
	ContributionSuspended  SituationCode = "09"
)

// IPI situation codes
const (
	IPITaxed     SituationCode = "50"
	IPIExempt    SituationCode = "52"
	IPINotTaxed  SituationCode = "53"
	IPIImmune    SituationCode = "54"
	IPISuspended SituationCode = "55"
)

var knownSituations = map[TaxType]map[SituationCode]bool{
	TaxTypeICMS: {
		ICMSTaxed: false, ICMSReducedBase: false,
		ICMSExempt: true, ICMSNotTaxed: true, ICMSSuspended: true,
	},
	TaxTypePIS: {
		ContributionTaxed: false, ContributionSingleRate: true, ContributionZeroRate: true,
		ContributionExempt: true, ContributionNotSubject: true, ContributionSuspended: true,
	},
	TaxTypeCOFINS: {
		ContributionTaxed: false, ContributionSingleRate: true, ContributionZeroRate: true,
		ContributionExempt: true, ContributionNotSubject: true, ContributionSuspended: true,
	},
	TaxTypeIPI: {
		IPITaxed: false, IPIExempt: true, IPINotTaxed: true, IPIImmune: true, IPISuspended: true,
	},
}

// IsKnownSituation reports whether the code is valid for the tax
func IsKnownSituation(taxType TaxType, code SituationCode) bool {
	_, ok := knownSituations[taxType][code]
	return ok
}

// IsExemptOrNonTaxed reports whether the code declares that no tax is due
// (exempt, not taxed, zero rate, suspended)
func IsExemptOrNonTaxed(taxType TaxType, code SituationCode) bool {
	return knownSituations[taxType][code]
}

// ExemptionSituation returns the code used when a total exemption applies
func ExemptionSituation(taxType TaxType) SituationCode {
	switch taxType {
	case TaxTypeICMS:
		return ICMSExempt
	case TaxTypeIPI:
		return IPIExempt
	default:
		return ContributionExempt
	}
}

// DefaultSituation returns the code for a normally taxed line
func DefaultSituation(taxType TaxType) SituationCode {
	switch taxType {
	case TaxTypeICMS:
		return ICMSTaxed
	case TaxTypeIPI:
		return IPITaxed
	default:
		return ContributionTaxed
	}
}

// Legal default rates
var (
	DefaultIntraStateICMSRate = valueobject.MustPercentage("18")
	DefaultInterStateICMSRate = valueobject.MustPercentage("12")
	DefaultPISRate            = valueobject.MustPercentage("1.65")
	DefaultCOFINSRate         = valueobject.MustPercentage("7.60")
)
