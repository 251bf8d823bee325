package checks

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"risk_guard/internal/core"
)

var oneHundred = decimal.NewFromInt(100)

// AveragePriceCheck rejects a buy whose price has drifted too far from the
// current position's entry. The allowed deviation scales with the configured
// risk level; a position already in loss may be averaged without limit.
type AveragePriceCheck struct {
	positions core.IPositionService
	settings  core.ISettingsProvider
	logger    core.ILogger
}

// NewAveragePriceCheck wires the check's collaborators.
func NewAveragePriceCheck(positions core.IPositionService, settings core.ISettingsProvider, logger core.ILogger) *AveragePriceCheck {
	return &AveragePriceCheck{
		positions: positions,
		settings:  settings,
		logger:    logger.WithField("check", "average_price"),
	}
}

func (c *AveragePriceCheck) Name() string {
	return "average_price"
}

// Supports governs buys against an existing position, unless the order opted
// out. Populates the context's position cache.
func (c *AveragePriceCheck) Supports(ctx context.Context, order core.Order, ec *Context) (bool, error) {
	if order.Kind != core.OrderKindBuy || order.SkipAveragePriceCheck {
		return false, nil
	}
	position, err := ec.PositionState(ctx, c.positions, order.Side)
	if err != nil {
		return false, err
	}
	return position != nil, nil
}

func (c *AveragePriceCheck) Check(ctx context.Context, order core.Order, ec *Context) (Result, error) {
	position, err := ec.PositionState(ctx, c.positions, order.Side)
	if err != nil {
		return Result{}, err
	}

	if position.InLoss(ec.Ticker.MarkPrice) {
		return Success("position in loss, averaging allowed"), nil
	}

	maxDeviation, err := c.settings.Percent(order.Symbol.Name, order.Side, core.SettingMaxAveragePriceDeviation)
	if err != nil {
		return Result{}, err
	}
	level, err := c.settings.String(order.Symbol.Name, order.Side, core.SettingRiskLevel)
	if err != nil {
		return Result{}, err
	}
	allowed := maxDeviation.Decimal().Mul(core.RiskLevel(level).Multiplier())

	deviation := order.Price.Difference(position.EntryPrice).
		Div(position.EntryPrice.Decimal()).
		Mul(oneHundred)

	if deviation.GreaterThan(allowed) {
		return Failure(FailureAveragePriceTooFar,
			fmt.Sprintf("order price %s deviates %s%% from entry %s, allowed %s%% at %s risk",
				order.Price, deviation.Round(4), position.EntryPrice, allowed, level)), nil
	}
	return Success(fmt.Sprintf("deviation %s%% within allowed %s%%", deviation.Round(4), allowed)), nil
}
