// Package fees implements the default order cost calculator.
package fees

import (
	"fmt"

	"github.com/shopspring/decimal"

	"risk_guard/internal/core"
	"risk_guard/internal/market"
)

// Calculator prices orders with a flat taker fee on notional. The fee rate is
// resolved per symbol and side through the settings provider.
type Calculator struct {
	settings core.ISettingsProvider
}

// NewCalculator creates a settings-backed cost calculator.
func NewCalculator(settings core.ISettingsProvider) *Calculator {
	return &Calculator{settings: settings}
}

// TotalBuyCost returns margin plus taker fee for a buy.
func (c *Calculator) TotalBuyCost(order core.Order, leverage decimal.Decimal, side market.Side) (decimal.Decimal, error) {
	margin, err := c.OrderMargin(order, leverage)
	if err != nil {
		return decimal.Zero, err
	}
	feeRate, err := c.settings.Decimal(order.Symbol.Name, side, core.SettingTakerFeeRate)
	if err != nil {
		return decimal.Zero, err
	}
	return margin.Add(order.Notional().Mul(feeRate)), nil
}

// OrderMargin returns the margin the order locks or releases.
func (c *Calculator) OrderMargin(order core.Order, leverage decimal.Decimal) (decimal.Decimal, error) {
	if leverage.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("non-positive leverage %s for order %s", leverage, order.ID)
	}
	return order.Notional().Div(leverage), nil
}
