// Package core defines the collaborator interfaces and shared types of the
// order-safety system.
package core

import (
	"context"

	"github.com/shopspring/decimal"

	"risk_guard/internal/market"
	"risk_guard/pkg/pricing"
)

// ILiquidationEstimator estimates the liquidation price of a hypothetical
// position given the free balance backing it. A zero price means the
// position carries no liquidation risk.
type ILiquidationEstimator interface {
	Estimate(position *market.Position, freeBalance decimal.Decimal) (pricing.Price, error)
}

// IOrderCostCalculator prices hypothetical orders.
type IOrderCostCalculator interface {
	// TotalBuyCost returns the full cost of a buy: margin plus fees.
	TotalBuyCost(order Order, leverage decimal.Decimal, side market.Side) (decimal.Decimal, error)
	// OrderMargin returns the margin locked by (or released for) the order.
	OrderMargin(order Order, leverage decimal.Decimal) (decimal.Decimal, error)
}

// IPositionService reads current positions from the exchange or a local
// cache. A nil position with a nil error means "no open position".
type IPositionService interface {
	GetPosition(ctx context.Context, symbol string, side market.Side) (*market.Position, error)
}

// IStopOrderService lists the protective stop orders ("fixations") currently
// working for a symbol and side.
type IStopOrderService interface {
	GetStops(ctx context.Context, symbol string, side market.Side) ([]Order, error)
}

// IAccountService reads account balances in quote units.
type IAccountService interface {
	FreeBalance(ctx context.Context, quoteCoin string) (decimal.Decimal, error)
	AvailableContractBalance(ctx context.Context, quoteCoin string) (decimal.Decimal, error)
}

// ITickerSource produces fresh ticker snapshots.
type ITickerSource interface {
	Ticker(ctx context.Context, symbol string) (market.Ticker, error)
}

// ISettingsProvider resolves risk parameters keyed by symbol and side, with
// fallback to symbol-less defaults. Absence of a required setting is a hard
// failure, never a silent default.
type ISettingsProvider interface {
	Decimal(symbol string, side market.Side, key SettingKey) (decimal.Decimal, error)
	// OptionalDecimal reports absence via the bool instead of an error.
	OptionalDecimal(symbol string, side market.Side, key SettingKey) (decimal.Decimal, bool, error)
	Percent(symbol string, side market.Side, key SettingKey) (pricing.Percent, error)
	Bool(symbol string, side market.Side, key SettingKey) (bool, error)
	String(symbol string, side market.Side, key SettingKey) (string, error)
}

// ILogger defines the interface for logging
type ILogger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Fatal(msg string, fields ...interface{})
	WithField(key string, value interface{}) ILogger
	WithFields(fields map[string]interface{}) ILogger
}
