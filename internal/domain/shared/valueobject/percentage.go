package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// RatePlaces is the number of decimal places tax rates are kept at
const RatePlaces int32 = 4

var hundred = decimal.NewFromInt(100)

// Percentage is a rate expressed in percent (18 means 18%).
// It is immutable and always within [0, 100].
type Percentage struct {
	value decimal.Decimal
}

// NewPercentage creates a percentage, rejecting values outside [0, 100]
func NewPercentage(value decimal.Decimal) (Percentage, error) {
	if value.IsNegative() {
		return Percentage{}, fmt.Errorf("percentage cannot be negative: %s", value.String())
	}
	if value.GreaterThan(hundred) {
		return Percentage{}, fmt.Errorf("percentage cannot exceed 100: %s", value.String())
	}
	return Percentage{value: value.Round(RatePlaces)}, nil
}

// MustPercentage creates a percentage from a string literal, panics on error.
// Intended for package-level constants.
func MustPercentage(value string) Percentage {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	p, err := NewPercentage(d)
	if err != nil {
		panic(err)
	}
	return p
}

// ZeroPercent returns a 0% rate
func ZeroPercent() Percentage {
	return Percentage{value: decimal.Zero}
}

// Decimal returns the rate in percent
func (p Percentage) Decimal() decimal.Decimal {
	return p.value
}

// Fraction returns the rate as a fraction (18% -> 0.18)
func (p Percentage) Fraction() decimal.Decimal {
	return p.value.Div(hundred)
}

// Complement returns 100 - p
func (p Percentage) Complement() Percentage {
	return Percentage{value: hundred.Sub(p.value)}
}

// IsZero reports whether the rate is 0%
func (p Percentage) IsZero() bool {
	return p.value.IsZero()
}

// Equals compares two percentages
func (p Percentage) Equals(other Percentage) bool {
	return p.value.Equal(other.value)
}

// String formats the rate with two decimal places and a percent sign
func (p Percentage) String() string {
	return p.value.StringFixed(2) + "%"
}

// MarshalJSON encodes the rate as a decimal string
func (p Percentage) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.value.String())
}

// UnmarshalJSON accepts a decimal string or a JSON number
func (p *Percentage) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid percentage: %w", err)
	}
	v, err := NewPercentage(d)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Value implements driver.Valuer
func (p Percentage) Value() (driver.Value, error) {
	return p.value.String(), nil
}

// Scan implements sql.Scanner
func (p *Percentage) Scan(value any) error {
	var d decimal.NullDecimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("cannot scan %T into Percentage: %w", value, err)
	}
	if !d.Valid {
		p.value = decimal.Zero
		return nil
	}
	p.value = d.Decimal
	return nil
}
