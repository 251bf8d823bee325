// Package pricing provides the fixed-precision value types shared by the
// sandbox, the risk parameter engine and the check pipeline.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "risk_guard/pkg/errors"
)

// Price is a positive decimal quantity rounded to a symbol-specific tick
// precision. Arithmetic always re-rounds; results that would be zero or
// negative are rejected with ErrInvalidPrice.
type Price struct {
	value     decimal.Decimal
	precision int32
}

// NewPrice creates a Price rounded to the given number of decimals.
func NewPrice(value decimal.Decimal, precision int32) (Price, error) {
	rounded := value.Round(precision)
	if rounded.LessThanOrEqual(decimal.Zero) {
		return Price{}, fmt.Errorf("%w: %s", apperrors.ErrInvalidPrice, value)
	}
	return Price{value: rounded, precision: precision}, nil
}

// NewPriceFromFloat creates a Price from a float64 value.
func NewPriceFromFloat(value float64, precision int32) (Price, error) {
	return NewPrice(decimal.NewFromFloat(value), precision)
}

// MustPrice creates a Price and panics on contract violation. Intended for
// constants and tests.
func MustPrice(value float64, precision int32) Price {
	p, err := NewPriceFromFloat(value, precision)
	if err != nil {
		panic(err)
	}
	return p
}

// Decimal returns the underlying decimal value.
func (p Price) Decimal() decimal.Decimal {
	return p.value
}

// Precision returns the tick precision in decimals.
func (p Price) Precision() int32 {
	return p.precision
}

// IsZero reports whether p is the zero value (no price set).
func (p Price) IsZero() bool {
	return p.value.IsZero()
}

// Add returns a new Price moved up by delta, re-rounded to the tick.
func (p Price) Add(delta decimal.Decimal) (Price, error) {
	return NewPrice(p.value.Add(delta), p.precision)
}

// Sub returns a new Price moved down by delta, re-rounded to the tick.
func (p Price) Sub(delta decimal.Decimal) (Price, error) {
	return NewPrice(p.value.Sub(delta), p.precision)
}

// Difference returns the absolute distance between two prices, re-rounded.
func (p Price) Difference(other Price) decimal.Decimal {
	return p.value.Sub(other.value).Abs().Round(p.precision)
}

// LessThan reports whether p is strictly below other.
func (p Price) LessThan(other Price) bool {
	return p.value.LessThan(other.value)
}

// GreaterThan reports whether p is strictly above other.
func (p Price) GreaterThan(other Price) bool {
	return p.value.GreaterThan(other.value)
}

// Equal reports whether both prices are the same after tick rounding.
func (p Price) Equal(other Price) bool {
	return p.value.Equal(other.value)
}

func (p Price) String() string {
	return p.value.StringFixed(p.precision)
}
