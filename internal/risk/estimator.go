package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"risk_guard/internal/market"
	"risk_guard/pkg/pricing"
)

// IsolatedMarginEstimator is the default liquidation price estimator. It
// models isolated-margin mechanics: the position is liquidated once the
// unrealized loss eats the initial margin plus the free balance backing it,
// less the maintenance margin the exchange keeps.
type IsolatedMarginEstimator struct {
	maintenanceMarginRate decimal.Decimal
}

// NewIsolatedMarginEstimator creates an estimator with the given maintenance
// margin rate, e.g. 0.005 for 0.5%.
func NewIsolatedMarginEstimator(maintenanceMarginRate decimal.Decimal) *IsolatedMarginEstimator {
	return &IsolatedMarginEstimator{maintenanceMarginRate: maintenanceMarginRate}
}

// Estimate returns the estimated liquidation price for the position backed by
// the given free balance. A zero price is returned when the buffer is large
// enough that no liquidation price exists on the valid price domain.
func (e *IsolatedMarginEstimator) Estimate(position *market.Position, freeBalance decimal.Decimal) (pricing.Price, error) {
	if position == nil {
		return pricing.Price{}, fmt.Errorf("estimate requires a position")
	}
	if !position.Size.IsPositive() {
		return pricing.Price{}, fmt.Errorf("estimate requires a positive size, got %s", position.Size)
	}

	buffer := position.InitialMargin.Add(decimal.Max(freeBalance, decimal.Zero))
	maintenance := position.Value.Mul(e.maintenanceMarginRate)
	margin := buffer.Sub(maintenance)
	if margin.IsNegative() {
		margin = decimal.Zero
	}

	// The price move that exhausts the margin, from entry toward loss.
	delta := margin.Div(position.Size)
	entry := position.EntryPrice
	if position.IsLong() {
		liq := entry.Decimal().Sub(delta)
		if liq.LessThanOrEqual(decimal.Zero) {
			// Buffer covers the whole price domain, no liquidation risk.
			return pricing.Price{}, nil
		}
		return pricing.NewPrice(liq, entry.Precision())
	}
	return pricing.NewPrice(entry.Decimal().Add(delta), entry.Precision())
}
