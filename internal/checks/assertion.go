package checks

import (
	"github.com/shopspring/decimal"

	"risk_guard/internal/core"
)

var (
	conservativeDistanceScale = decimal.RequireFromString("2")
	aggressiveDistanceScale   = decimal.RequireFromString("0.5")
)

// PositionLiquidationIsSafeAssertion decides whether a liquidation price
// sits far enough from the mark price. The strategies differ only in which
// side of the distance window they enforce: Conservative requires the far
// bound, Moderate the configured distance itself, Aggressive accepts the
// near bound.
type PositionLiquidationIsSafeAssertion struct {
	mode core.AssertionMode
}

// NewLiquidationSafeAssertion creates an assertion for the given mode.
func NewLiquidationSafeAssertion(mode core.AssertionMode) *PositionLiquidationIsSafeAssertion {
	return &PositionLiquidationIsSafeAssertion{mode: mode}
}

// RequiredDistance returns the effective distance the mode enforces.
func (a *PositionLiquidationIsSafeAssertion) RequiredDistance(safeDistance decimal.Decimal) decimal.Decimal {
	switch a.mode {
	case core.AssertionModeConservative:
		return safeDistance.Mul(conservativeDistanceScale)
	case core.AssertionModeAggressive:
		return safeDistance.Mul(aggressiveDistanceScale)
	default:
		return safeDistance
	}
}

// Holds reports whether the mark-to-liquidation delta satisfies the mode.
func (a *PositionLiquidationIsSafeAssertion) Holds(delta, safeDistance decimal.Decimal) bool {
	return delta.GreaterThanOrEqual(a.RequiredDistance(safeDistance))
}
