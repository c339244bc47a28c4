package tax

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ComplianceLevel classifies a compliance score
type ComplianceLevel string

const (
	ComplianceCompliant    ComplianceLevel = "compliant"
	ComplianceAttention    ComplianceLevel = "attention"
	ComplianceNonCompliant ComplianceLevel = "non_compliant"
)

var (
	compliantThreshold = decimal.NewFromInt(95)
	attentionThreshold = decimal.NewFromInt(70)
)

// ComplianceIssue is a tax on a line that is neither charged nor declared exempt
type ComplianceIssue struct {
	OrderItemID uuid.UUID     `json:"order_item_id"`
	ProductID   uuid.UUID     `json:"product_id"`
	TaxType     TaxType       `json:"tax_type"`
	Situation   SituationCode `json:"situation"`
	Message     string        `json:"message"`
}

// ComplianceReport summarizes the checks run over a set of calculations
type ComplianceReport struct {
	Lines        int               `json:"lines"`
	TotalChecks  int               `json:"total_checks"`
	PassedChecks int               `json:"passed_checks"`
	Score        decimal.Decimal   `json:"score"`
	Level        ComplianceLevel   `json:"level"`
	Issues       []ComplianceIssue `json:"issues"`
}

// LevelForScore maps a score to its level
func LevelForScore(score decimal.Decimal) ComplianceLevel {
	switch {
	case score.GreaterThanOrEqual(compliantThreshold):
		return ComplianceCompliant
	case score.GreaterThanOrEqual(attentionThreshold):
		return ComplianceAttention
	default:
		return ComplianceNonCompliant
	}
}

// EvaluateCompliance checks that every tax on every line is either charged
// or carries an exempt/non-taxed situation code
func EvaluateCompliance(calcs []TaxCalculation) ComplianceReport {
	report := ComplianceReport{
		Lines:  len(calcs),
		Issues: make([]ComplianceIssue, 0),
	}
	for i := range calcs {
		calc := &calcs[i]
		for _, taxType := range AllTaxTypes() {
			component := calc.Component(taxType)
			report.TotalChecks++
			if !component.Amount.IsZero() || IsExemptOrNonTaxed(taxType, component.Situation) {
				report.PassedChecks++
				continue
			}
			report.Issues = append(report.Issues, ComplianceIssue{
				OrderItemID: calc.OrderItemID,
				ProductID:   calc.ProductID,
				TaxType:     taxType,
				Situation:   component.Situation,
				Message: fmt.Sprintf("%s is zero but situation %q does not declare exemption",
					taxType, component.Situation),
			})
		}
	}

	if report.TotalChecks == 0 {
		report.Score = hundredPercent
	} else {
		report.Score = decimal.NewFromInt(int64(report.PassedChecks)).
			Mul(hundredPercent).
			Div(decimal.NewFromInt(int64(report.TotalChecks))).
			Round(2)
	}
	report.Level = LevelForScore(report.Score)
	return report
}
