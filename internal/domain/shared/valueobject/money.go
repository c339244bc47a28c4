package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code. Every fiscal amount is in reais, so BRL
// is the only one the calculator produces.
type Currency string

const BRL Currency = "BRL"

// CurrencyPlaces is the scale amounts are settled at (centavos)
const CurrencyPlaces int32 = 2

// Money is an amount in reais. Arithmetic keeps full precision;
// RoundCurrency settles a result to centavos.
type Money struct {
	amount decimal.Decimal
}

// NewMoneyBRL wraps a decimal amount
func NewMoneyBRL(amount decimal.Decimal) Money {
	return Money{amount: amount}
}

// NewMoneyBRLFromString parses a decimal string such as "59.90"
func NewMoneyBRLFromString(amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return Money{amount: d}, nil
}

// ZeroBRL is R$ 0
func ZeroBRL() Money {
	return Money{}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return BRL }
func (m Money) IsZero() bool            { return m.amount.IsZero() }
func (m Money) IsPositive() bool        { return m.amount.IsPositive() }
func (m Money) IsNegative() bool        { return m.amount.IsNegative() }

// Add sums two amounts
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Sub subtracts other
func (m Money) Sub(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount)}
}

// Multiply scales the amount without rounding, e.g. unit price by quantity
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor)}
}

// ApplyRate is the tax a rate levies on this base, in centavos
func (m Money) ApplyRate(rate Percentage) Money {
	return m.Multiply(rate.Fraction()).RoundCurrency()
}

// RoundCurrency rounds half away from zero to centavos, which for the
// non-negative amounts of a tax calculation is ROUND_HALF_UP.
func (m Money) RoundCurrency() Money {
	return Money{amount: m.amount.Round(CurrencyPlaces)}
}

// Equals compares amounts numerically, so 10.5 equals 10.50
func (m Money) Equals(other Money) bool {
	return m.amount.Equal(other.amount)
}

// String formats as "R$ 1234.50"
func (m Money) String() string {
	return "R$ " + m.amount.StringFixed(CurrencyPlaces)
}

type moneyJSON struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
}

// MarshalJSON writes {"amount":"12.30","currency":"BRL"}. The amount is a
// string so clients never see float rounding.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.StringFixed(CurrencyPlaces), Currency: BRL})
}

// UnmarshalJSON accepts a missing currency but rejects anything but BRL
func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Currency != "" && v.Currency != BRL {
		return fmt.Errorf("unsupported currency %s", v.Currency)
	}
	amount, err := decimal.NewFromString(v.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	m.amount = amount
	return nil
}

// Value stores the bare amount in a NUMERIC column
func (m Money) Value() (driver.Value, error) {
	return m.amount.String(), nil
}

// Scan reads a NUMERIC column. NULL reads as zero.
func (m *Money) Scan(value any) error {
	if value == nil {
		m.amount = decimal.Zero
		return nil
	}
	var d decimal.NullDecimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("cannot scan %T into Money: %w", value, err)
	}
	m.amount = d.Decimal
	return nil
}

// SumMoney adds amounts
func SumMoney(values ...Money) Money {
	var total Money
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
