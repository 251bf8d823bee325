package checks

import (
	"context"
	"fmt"

	"risk_guard/internal/core"
	"risk_guard/internal/sandbox"
)

// BuyLiquidationCheck simulates the buy in a sandbox and vetoes it when the
// resulting liquidation price would end up too close to the mark price.
type BuyLiquidationCheck struct {
	factory   *StateFactory
	estimator core.ILiquidationEstimator
	costs     core.IOrderCostCalculator
	settings  core.ISettingsProvider
	logger    core.ILogger
}

// NewBuyLiquidationCheck wires the check's collaborators.
func NewBuyLiquidationCheck(factory *StateFactory, estimator core.ILiquidationEstimator, costs core.IOrderCostCalculator, settings core.ISettingsProvider, logger core.ILogger) *BuyLiquidationCheck {
	return &BuyLiquidationCheck{
		factory:   factory,
		estimator: estimator,
		costs:     costs,
		settings:  settings,
		logger:    logger.WithField("check", "buy_liquidation"),
	}
}

func (c *BuyLiquidationCheck) Name() string {
	return "buy_liquidation"
}

// Supports governs buys only. It warms the sandbox state cache so later
// checks in the evaluation reuse the same snapshot.
func (c *BuyLiquidationCheck) Supports(ctx context.Context, order core.Order, ec *Context) (bool, error) {
	if order.Kind != core.OrderKindBuy {
		return false, nil
	}
	if _, err := ec.SandboxState(ctx, c.factory); err != nil {
		return false, err
	}
	return true, nil
}

func (c *BuyLiquidationCheck) Check(ctx context.Context, order core.Order, ec *Context) (Result, error) {
	if order.Force {
		return Success("forced order, liquidation check skipped"), nil
	}

	pristine, err := ec.SandboxState(ctx, c.factory)
	if err != nil {
		return Result{}, err
	}

	// The simulation answers "where would liquidation land if this buy went
	// through", so an underfunded buy is simulated anyway; funding is the
	// balance guard's concern.
	simulated := order
	simulated.IgnoreInsufficientBalance = true

	box := sandbox.NewTradingSandbox(order.Symbol, c.estimator, c.costs, c.logger)
	if err := box.Bind(pristine.Clone()); err != nil {
		return Result{}, err
	}
	state, err := box.ProcessOrders(simulated)
	if err != nil {
		return Result{}, err
	}

	position := state.Position(order.Side)
	if position == nil || position.LiquidationPrice.IsZero() {
		return Success("no liquidation risk after buy"), nil
	}

	delta := position.LiquidationPrice.Difference(ec.Ticker.MarkPrice)
	safeDistance, err := c.settings.Decimal(order.Symbol.Name, order.Side, core.SettingSafeLiquidationDistance)
	if err != nil {
		return Result{}, err
	}
	assertion, err := c.assertion(order)
	if err != nil {
		return Result{}, err
	}

	if !assertion.Holds(delta, safeDistance) {
		return LiquidationFailure(
			FailureFurtherPositionLiquidationAfterBuyIsTooClose,
			fmt.Sprintf("liquidation %s would be %s from mark %s, safe distance %s",
				position.LiquidationPrice, delta, ec.Ticker.MarkPrice, safeDistance),
			delta, safeDistance,
		), nil
	}
	return Success(fmt.Sprintf("liquidation %s stays %s from mark, safe distance %s",
		position.LiquidationPrice, delta, safeDistance)), nil
}

func (c *BuyLiquidationCheck) assertion(order core.Order) (*PositionLiquidationIsSafeAssertion, error) {
	mode, err := c.settings.String(order.Symbol.Name, order.Side, core.SettingLiquidationAssertionMode)
	if err != nil {
		return nil, err
	}
	return NewLiquidationSafeAssertion(core.AssertionMode(mode)), nil
}
