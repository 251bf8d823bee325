package core

import (
	"github.com/shopspring/decimal"

	"risk_guard/internal/market"
	"risk_guard/pkg/pricing"
)

// OrderKind tags a hypothetical order as position-increasing or
// position-reducing.
type OrderKind string

const (
	OrderKindBuy  OrderKind = "BUY"
	OrderKindStop OrderKind = "STOP"
)

// Order represents a hypothetical buy or stop order fed to the sandbox and
// the check pipeline.
type Order struct {
	ID     string
	Symbol market.Symbol
	Side   market.Side
	Kind   OrderKind
	Price  pricing.Price
	Volume decimal.Decimal

	// Force short-circuits the liquidation safety check with an automatic
	// success.
	Force bool

	// IgnoreInsufficientBalance lets a simulation treat an underfunded buy as
	// "would succeed anyway" for what-if analysis.
	IgnoreInsufficientBalance bool

	// SkipAveragePriceCheck opts this order out of the entry price distance
	// guard.
	SkipAveragePriceCheck bool
}

// Notional returns price * volume in quote units.
func (o Order) Notional() decimal.Decimal {
	return o.Price.Decimal().Mul(o.Volume)
}

// RiskLevel scales how far a buy may drift from the current entry price.
type RiskLevel string

const (
	RiskLevelCautious   RiskLevel = "CAUTIOUS"
	RiskLevelStandard   RiskLevel = "STANDARD"
	RiskLevelAggressive RiskLevel = "AGGRESSIVE"
)

var (
	cautiousMultiplier   = decimal.RequireFromString("0.5")
	standardMultiplier   = decimal.RequireFromString("1")
	aggressiveMultiplier = decimal.RequireFromString("2")
)

// Multiplier returns the fixed scale applied to the allowed price deviation.
func (r RiskLevel) Multiplier() decimal.Decimal {
	switch r {
	case RiskLevelCautious:
		return cautiousMultiplier
	case RiskLevelAggressive:
		return aggressiveMultiplier
	default:
		return standardMultiplier
	}
}

// AssertionMode selects which bound of the liquidation distance window a
// safety assertion enforces.
type AssertionMode string

const (
	AssertionModeConservative AssertionMode = "CONSERVATIVE"
	AssertionModeModerate     AssertionMode = "MODERATE"
	AssertionModeAggressive   AssertionMode = "AGGRESSIVE"
)

// SettingKey identifies one risk parameter in the settings store.
type SettingKey string

const (
	SettingWarningPnlDistance                        SettingKey = "warning_pnl_distance"
	SettingCriticalPartOfLiquidationDistance         SettingKey = "critical_part_of_liquidation_distance"
	SettingPercentOfLiquidationDistanceToAddStop     SettingKey = "percent_of_liquidation_distance_to_add_stop"
	SettingPercentOfLiquidationDistanceForStopsRange SettingKey = "percent_of_liquidation_distance_for_stops_range"
	SettingStopsRangePnlPercent                      SettingKey = "stops_range_pnl_percent"
	SettingCheckStopsOnDistance                      SettingKey = "check_stops_on_distance"
	SettingAcceptableStoppedPart                     SettingKey = "acceptable_stopped_part"
	SettingAcceptableStoppedPartDivider              SettingKey = "acceptable_stopped_part_divider"
	SettingSafeLiquidationDistance                   SettingKey = "safe_liquidation_distance"
	SettingMaxAveragePriceDeviation                  SettingKey = "max_average_price_deviation"
	SettingRiskLevel                                 SettingKey = "risk_level"
	SettingLiquidationAssertionMode                  SettingKey = "liquidation_assertion_mode"
	SettingTakerFeeRate                              SettingKey = "taker_fee_rate"
)
