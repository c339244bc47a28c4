package tax

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func calculatedLine(t *testing.T, in LineInput) TaxCalculation {
	t.Helper()
	c, err := NewCalculator(nil).Calculate(in)
	require.NoError(t, err)
	return *c
}

func TestEvaluateCompliance_NoLines(t *testing.T) {
	report := EvaluateCompliance(nil)
	assert.Equal(t, 0, report.TotalChecks)
	assert.True(t, report.Score.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, ComplianceCompliant, report.Level)
	assert.Empty(t, report.Issues)
}

func TestEvaluateCompliance_CalculatedLinesPass(t *testing.T) {
	exempt := line("100.00", 1, "SP", "SP")
	exempt.Exemptions = []TaxExemption{newExemption(t, TaxTypeICMS, ExemptionTotal, nil)}

	calcs := []TaxCalculation{
		calculatedLine(t, line("100.00", 1, "SP", "SP")),
		calculatedLine(t, exempt),
	}

	report := EvaluateCompliance(calcs)
	assert.Equal(t, 2, report.Lines)
	assert.Equal(t, 8, report.TotalChecks)
	assert.Equal(t, 8, report.PassedChecks)
	assert.Equal(t, "100", report.Score.String())
	assert.Equal(t, ComplianceCompliant, report.Level)
}

func TestEvaluateCompliance_CountsEachTaxPerLine(t *testing.T) {
	// zero amount with a taxed situation is an issue
	bad := calculatedLine(t, line("100.00", 1, "SP", "SP"))
	bad.PIS = TaxComponent{Base: money("100"), Rate: valueobject.ZeroPercent(), Amount: valueobject.ZeroBRL(), Situation: ContributionTaxed}
	bad.COFINS.Situation = ""
	bad.COFINS.Amount = valueobject.ZeroBRL()

	report := EvaluateCompliance([]TaxCalculation{bad})
	assert.Equal(t, 4, report.TotalChecks)
	assert.Equal(t, 2, report.PassedChecks)
	assert.Equal(t, "50", report.Score.String())
	assert.Equal(t, ComplianceNonCompliant, report.Level)
	require.Len(t, report.Issues, 2)
	assert.Equal(t, TaxTypePIS, report.Issues[0].TaxType)
	assert.Equal(t, ContributionTaxed, report.Issues[0].Situation)
	assert.Equal(t, TaxTypeCOFINS, report.Issues[1].TaxType)
	assert.Equal(t, bad.OrderItemID, report.Issues[0].OrderItemID)
}

func TestEvaluateCompliance_RecognisedSituations(t *testing.T) {
	situations := map[TaxType][]SituationCode{
		TaxTypeICMS:   {"40", "41", "50"},
		TaxTypePIS:    {"04", "06", "07", "08", "09"},
		TaxTypeCOFINS: {"04", "06", "07", "08", "09"},
		TaxTypeIPI:    {"52", "53", "54", "55"},
	}
	for taxType, codes := range situations {
		for _, code := range codes {
			calc := TaxCalculation{OrderItemID: uuid.New()}
			for _, tt := range AllTaxTypes() {
				setComponent(&calc, tt, TaxComponent{Amount: money("1.00"), Situation: DefaultSituation(tt)})
			}
			setComponent(&calc, taxType, zeroComponent(code))

			report := EvaluateCompliance([]TaxCalculation{calc})
			assert.Equal(t, 4, report.PassedChecks, "%s %s", taxType, code)
		}
	}
}

func setComponent(c *TaxCalculation, taxType TaxType, comp TaxComponent) {
	switch taxType {
	case TaxTypeICMS:
		c.ICMS = comp
	case TaxTypePIS:
		c.PIS = comp
	case TaxTypeCOFINS:
		c.COFINS = comp
	case TaxTypeIPI:
		c.IPI = comp
	}
}

func TestLevelForScore(t *testing.T) {
	tests := []struct {
		score string
		want  ComplianceLevel
	}{
		{"100", ComplianceCompliant},
		{"95", ComplianceCompliant},
		{"94.99", ComplianceAttention},
		{"70", ComplianceAttention},
		{"69.99", ComplianceNonCompliant},
		{"0", ComplianceNonCompliant},
	}
	for _, tt := range tests {
		t.Run(tt.score, func(t *testing.T) {
			assert.Equal(t, tt.want, LevelForScore(decimal.RequireFromString(tt.score)))
		})
	}
}

func TestEvaluateCompliance_ScoreRounding(t *testing.T) {
	good := calculatedLine(t, line("100.00", 1, "SP", "SP"))
	bad := good
	bad.ICMS = zeroComponent(ICMSTaxed)

	report := EvaluateCompliance([]TaxCalculation{good, good, bad})
	assert.Equal(t, 12, report.TotalChecks)
	assert.Equal(t, 11, report.PassedChecks)
	assert.Equal(t, "91.67", report.Score.String())
	assert.Equal(t, ComplianceAttention, report.Level)
}
