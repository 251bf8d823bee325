package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "risk_guard/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// Percent is a ratio expressed on the 0-100 scale. Strict percents reject
// values outside [0, 100]; unrestricted percents allow any value.
type Percent struct {
	value  decimal.Decimal
	strict bool
}

// NewPercent creates a strict percent in [0, 100].
func NewPercent(value decimal.Decimal) (Percent, error) {
	if value.IsNegative() || value.GreaterThan(oneHundred) {
		return Percent{}, fmt.Errorf("%w: %s is outside [0, 100]", apperrors.ErrInvalidPercent, value)
	}
	return Percent{value: value, strict: true}, nil
}

// NewPercentFromFloat creates a strict percent from a float64 value.
func NewPercentFromFloat(value float64) (Percent, error) {
	return NewPercent(decimal.NewFromFloat(value))
}

// NewUnrestrictedPercent creates a percent without range validation.
func NewUnrestrictedPercent(value decimal.Decimal) Percent {
	return Percent{value: value}
}

// PercentFromPart converts a fraction to a percent: 0.25 becomes 25%.
func PercentFromPart(part decimal.Decimal) (Percent, error) {
	return NewPercent(part.Mul(oneHundred))
}

// MustPercent creates a strict percent and panics on contract violation.
func MustPercent(value float64) Percent {
	p, err := NewPercentFromFloat(value)
	if err != nil {
		panic(err)
	}
	return p
}

// Of multiplies: p.Of(x) = x * p / 100.
func (p Percent) Of(x decimal.Decimal) decimal.Decimal {
	return x.Mul(p.value).Div(oneHundred)
}

// Part returns the percent as a fraction: 25% becomes 0.25.
func (p Percent) Part() decimal.Decimal {
	return p.value.Div(oneHundred)
}

// Decimal returns the percent on the 0-100 scale.
func (p Percent) Decimal() decimal.Decimal {
	return p.value
}

// IsStrict reports whether the percent was built with range validation.
func (p Percent) IsStrict() bool {
	return p.strict
}

func (p Percent) LessThan(other Percent) bool {
	return p.value.LessThan(other.value)
}

func (p Percent) GreaterThan(other Percent) bool {
	return p.value.GreaterThan(other.value)
}

func (p Percent) String() string {
	return p.value.String() + "%"
}
