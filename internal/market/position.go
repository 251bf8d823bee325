package market

import (
	"time"

	"github.com/shopspring/decimal"

	"risk_guard/pkg/pricing"
)

// Position is a snapshot of one leg of exposure on a symbol. Side is fixed at
// creation; every mutation goes through a With* builder returning a copy, so
// sandbox steps never alias each other's state.
//
// A zero LiquidationPrice means the leg carries no independent liquidation
// risk (the support leg of a hedge). Size must stay positive while the
// position is open; a closed position is modeled as absence, not a zero-size
// value.
type Position struct {
	Side             Side
	Symbol           Symbol
	EntryPrice       pricing.Price
	Size             decimal.Decimal
	Value            decimal.Decimal
	LiquidationPrice pricing.Price
	InitialMargin    decimal.Decimal
	Leverage         decimal.Decimal
	UnrealizedPnl    decimal.Decimal
	Support          bool
	OpenedAt         time.Time

	// Weak back-reference to the other leg of a hedge. Set symmetrically by
	// LinkOpposite, never owned or serialized.
	opposite *Position
}

// Opposite returns the other leg of the hedge, or nil.
func (p *Position) Opposite() *Position {
	return p.opposite
}

// LinkOpposite wires the weak back-references of a hedge pair symmetrically.
func LinkOpposite(a, b *Position) {
	if a != nil {
		a.opposite = b
	}
	if b != nil {
		b.opposite = a
	}
}

// WithEntry returns a copy with a new entry price; Value and InitialMargin
// are re-derived from the new entry.
func (p *Position) WithEntry(entry pricing.Price) *Position {
	c := *p
	c.EntryPrice = entry
	c.rederive()
	return &c
}

// WithSize returns a copy with a new size; Value and InitialMargin are
// re-derived from the new size.
func (p *Position) WithSize(size decimal.Decimal) *Position {
	c := *p
	c.Size = size
	c.rederive()
	return &c
}

// WithLiquidation returns a copy with a new liquidation price. A zero price
// marks the leg as carrying no independent liquidation risk.
func (p *Position) WithLiquidation(liquidation pricing.Price) *Position {
	c := *p
	c.LiquidationPrice = liquidation
	return &c
}

// WithSupport returns a copy with the support-leg flag set.
func (p *Position) WithSupport(support bool) *Position {
	c := *p
	c.Support = support
	return &c
}

func (p *Position) rederive() {
	p.Value = p.Size.Mul(p.EntryPrice.Decimal())
	if p.Leverage.IsPositive() {
		p.InitialMargin = p.Value.Div(p.Leverage)
	}
}

// IsLong reports whether the position is long exposure.
func (p *Position) IsLong() bool {
	return p.Side == SideLong
}

// InLoss reports whether the reference price sits on the loss side of entry.
func (p *Position) InLoss(ref pricing.Price) bool {
	if p.IsLong() {
		return ref.LessThan(p.EntryPrice)
	}
	return ref.GreaterThan(p.EntryPrice)
}

// PnlAt returns the unrealized PnL in quote units at the given price.
func (p *Position) PnlAt(price pricing.Price) decimal.Decimal {
	diff := price.Decimal().Sub(p.EntryPrice.Decimal())
	if !p.IsLong() {
		diff = diff.Neg()
	}
	return diff.Mul(p.Size)
}

// Clone returns a deep copy. The weak opposite reference is dropped; the
// assembler re-links pairs after cloning both legs.
func (p *Position) Clone() *Position {
	c := *p
	c.opposite = nil
	return &c
}
