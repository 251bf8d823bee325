package checks

import (
	"context"
	"fmt"

	"risk_guard/internal/core"
	"risk_guard/internal/market"
	"risk_guard/internal/sandbox"
)

// StopMainLiquidationCheck guards the main leg of a hedge when a stop shrinks
// the support leg: releasing support margin recomputes the main leg's
// liquidation price, and the check vetoes the stop if that price would land
// too close to the mark.
type StopMainLiquidationCheck struct {
	factory   *StateFactory
	estimator core.ILiquidationEstimator
	costs     core.IOrderCostCalculator
	settings  core.ISettingsProvider
	logger    core.ILogger
}

// NewStopMainLiquidationCheck wires the check's collaborators.
func NewStopMainLiquidationCheck(factory *StateFactory, estimator core.ILiquidationEstimator, costs core.IOrderCostCalculator, settings core.ISettingsProvider, logger core.ILogger) *StopMainLiquidationCheck {
	return &StopMainLiquidationCheck{
		factory:   factory,
		estimator: estimator,
		costs:     costs,
		settings:  settings,
		logger:    logger.WithField("check", "stop_main_liquidation"),
	}
}

func (c *StopMainLiquidationCheck) Name() string {
	return "stop_main_liquidation"
}

// Supports governs stops on the support leg of a hedge. A stop on a sole
// position or on the main leg only reduces risk and needs no simulation.
func (c *StopMainLiquidationCheck) Supports(ctx context.Context, order core.Order, ec *Context) (bool, error) {
	if order.Kind != core.OrderKindStop {
		return false, nil
	}
	state, err := ec.SandboxState(ctx, c.factory)
	if err != nil {
		return false, err
	}
	hedge, err := c.hedge(state)
	if err != nil || hedge == nil {
		return false, err
	}
	return hedge.SupportPosition().Side == order.Side, nil
}

func (c *StopMainLiquidationCheck) Check(ctx context.Context, order core.Order, ec *Context) (Result, error) {
	if order.Force {
		return Success("forced order, liquidation check skipped"), nil
	}

	pristine, err := ec.SandboxState(ctx, c.factory)
	if err != nil {
		return Result{}, err
	}

	box := sandbox.NewTradingSandbox(order.Symbol, c.estimator, c.costs, c.logger)
	if err := box.Bind(pristine.Clone()); err != nil {
		return Result{}, err
	}
	state, err := box.ProcessOrders(order)
	if err != nil {
		return Result{}, err
	}

	main := state.Position(order.Side.Opposite())
	if main == nil || main.LiquidationPrice.IsZero() {
		return Success("main leg carries no liquidation risk after stop"), nil
	}

	delta := main.LiquidationPrice.Difference(ec.Ticker.MarkPrice)
	safeDistance, err := c.settings.Decimal(order.Symbol.Name, main.Side, core.SettingSafeLiquidationDistance)
	if err != nil {
		return Result{}, err
	}
	mode, err := c.settings.String(order.Symbol.Name, main.Side, core.SettingLiquidationAssertionMode)
	if err != nil {
		return Result{}, err
	}
	assertion := NewLiquidationSafeAssertion(core.AssertionMode(mode))

	if !assertion.Holds(delta, safeDistance) {
		return LiquidationFailure(
			FailureMainPositionLiquidationAfterStopIsTooClose,
			fmt.Sprintf("main %s liquidation %s would be %s from mark %s, safe distance %s",
				main.Side, main.LiquidationPrice, delta, ec.Ticker.MarkPrice, safeDistance),
			delta, safeDistance,
		), nil
	}
	return Success(fmt.Sprintf("main %s liquidation %s stays %s from mark, safe distance %s",
		main.Side, main.LiquidationPrice, delta, safeDistance)), nil
}

func (c *StopMainLiquidationCheck) hedge(state *sandbox.State) (*market.Hedge, error) {
	long := state.Position(market.SideLong)
	short := state.Position(market.SideShort)
	if long == nil || short == nil {
		return nil, nil
	}
	return market.NewHedge(long, short)
}
