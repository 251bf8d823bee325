package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "risk_guard/pkg/errors"
)

// PriceRange is an ordered [from, to) pair tied to a symbol.
type PriceRange struct {
	symbol string
	from   Price
	to     Price
}

// NewPriceRange creates a range; from must be strictly below to.
func NewPriceRange(symbol string, from, to Price) (PriceRange, error) {
	if !from.LessThan(to) {
		return PriceRange{}, fmt.Errorf("%w: [%s, %s) on %s", apperrors.ErrInvalidRange, from, to, symbol)
	}
	return PriceRange{symbol: symbol, from: from, to: to}, nil
}

// Symbol returns the symbol the range belongs to.
func (r PriceRange) Symbol() string {
	return r.symbol
}

// From returns the inclusive lower bound.
func (r PriceRange) From() Price {
	return r.from
}

// To returns the exclusive upper bound.
func (r PriceRange) To() Price {
	return r.to
}

// Width returns to - from.
func (r PriceRange) Width() decimal.Decimal {
	return r.to.Decimal().Sub(r.from.Decimal())
}

// Contains reports whether p falls inside [from, to).
func (r PriceRange) Contains(p Price) bool {
	return !p.LessThan(r.from) && p.LessThan(r.to)
}

// SplitByStep divides the range into sub-ranges of the given step width. The
// last sub-range absorbs any remainder so the union always equals r.
func (r PriceRange) SplitByStep(step decimal.Decimal) ([]PriceRange, error) {
	if step.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: non-positive step %s", apperrors.ErrInvalidRange, step)
	}

	var out []PriceRange
	from := r.from
	for {
		next, err := from.Add(step)
		if err != nil {
			return nil, err
		}
		if !next.LessThan(r.to) {
			sub, err := NewPriceRange(r.symbol, from, r.to)
			if err != nil {
				return nil, err
			}
			return append(out, sub), nil
		}
		sub, err := NewPriceRange(r.symbol, from, next)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
		from = next
	}
}

// SplitByCount divides the range into count equal sub-ranges.
func (r PriceRange) SplitByCount(count int) ([]PriceRange, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: non-positive count %d", apperrors.ErrInvalidRange, count)
	}
	step := r.Width().Div(decimal.NewFromInt(int64(count)))
	ranges, err := r.SplitByStep(step)
	if err != nil {
		return nil, err
	}
	// Step rounding may produce one extra sliver; merge it into the last range.
	if len(ranges) > count {
		last, err := NewPriceRange(r.symbol, ranges[count-1].from, r.to)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges[:count-1], last)
	}
	return ranges, nil
}

func (r PriceRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.from, r.to)
}
