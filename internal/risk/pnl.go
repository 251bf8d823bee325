// Package risk derives position-dependent liquidation thresholds and ships
// the default liquidation price estimator.
package risk

import (
	"github.com/shopspring/decimal"

	"risk_guard/internal/market"
	"risk_guard/pkg/pricing"
)

var oneHundred = decimal.NewFromInt(100)

// AbsoluteDeltaForPnl is the canonical conversion from a PnL percentage to an
// absolute price delta. All callers must go through it so rounding never
// diverges between components.
//
// A pnl% move of the margin corresponds to a price move of
// price * pnl% / leverage.
func AbsoluteDeltaForPnl(pnl pricing.Percent, price pricing.Price, leverage decimal.Decimal) decimal.Decimal {
	if leverage.LessThanOrEqual(decimal.Zero) {
		leverage = decimal.NewFromInt(1)
	}
	return pnl.Of(price.Decimal()).Div(leverage).Round(price.Precision())
}

// PnlPercentForDelta is the inverse conversion: the PnL percentage a price
// delta represents for a position at the given price and leverage.
func PnlPercentForDelta(delta decimal.Decimal, price pricing.Price, leverage decimal.Decimal) pricing.Percent {
	if leverage.LessThanOrEqual(decimal.Zero) {
		leverage = decimal.NewFromInt(1)
	}
	return pricing.NewUnrestrictedPercent(delta.Mul(leverage).Div(price.Decimal()).Mul(oneHundred))
}

// PnlInQuote returns the realized PnL in quote units for closing the given
// volume between entry and exit. Loss comes out negative.
func PnlInQuote(side market.Side, entry, exit pricing.Price, volume decimal.Decimal) decimal.Decimal {
	diff := exit.Decimal().Sub(entry.Decimal())
	if side == market.SideShort {
		diff = diff.Neg()
	}
	return diff.Mul(volume)
}
