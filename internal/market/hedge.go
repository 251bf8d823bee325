package market

import (
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "risk_guard/pkg/errors"
)

// Hedge is a read-only view over a long+short pair on the same symbol. It is
// computed on demand from the two positions and never persisted, so the pair
// forms no ownership cycle.
type Hedge struct {
	main    *Position
	support *Position
}

// NewHedge resolves the main/support roles of a pair. The main leg is picked
// by the explicit support flag first, then by larger notional, then by which
// position existed first.
func NewHedge(a, b *Position) (*Hedge, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("hedge requires both legs")
	}
	if !a.Symbol.Equal(b.Symbol) {
		return nil, fmt.Errorf("%w: hedge legs on %s and %s", apperrors.ErrSymbolMismatch, a.Symbol.Name, b.Symbol.Name)
	}
	if a.Side == b.Side {
		return nil, fmt.Errorf("hedge legs must be on opposite sides, both are %s", a.Side)
	}

	switch {
	case a.Support && !b.Support:
		return &Hedge{main: b, support: a}, nil
	case b.Support && !a.Support:
		return &Hedge{main: a, support: b}, nil
	}

	if !a.Value.Equal(b.Value) {
		if a.Value.GreaterThan(b.Value) {
			return &Hedge{main: a, support: b}, nil
		}
		return &Hedge{main: b, support: a}, nil
	}

	// Equal notionals: the leg that existed first is the main one.
	if b.OpenedAt.Before(a.OpenedAt) {
		return &Hedge{main: b, support: a}, nil
	}
	return &Hedge{main: a, support: b}, nil
}

// MainPosition returns the leg carrying the liquidation risk.
func (h *Hedge) MainPosition() *Position {
	return h.main
}

// SupportPosition returns the protective leg.
func (h *Hedge) SupportPosition() *Position {
	return h.support
}

// IsEquivalent reports whether both legs fully net out, leaving no residual
// risk.
func (h *Hedge) IsEquivalent() bool {
	return h.main.Size.Equal(h.support.Size)
}

// NotCoveredSize is the part of the main leg not offset by the support leg.
func (h *Hedge) NotCoveredSize() decimal.Decimal {
	size := h.main.Size.Sub(h.support.Size)
	if size.IsNegative() {
		return decimal.Zero
	}
	return size
}
