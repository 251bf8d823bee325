package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"risk_guard/internal/core"
	"risk_guard/internal/market"
	"risk_guard/internal/risk"
	apperrors "risk_guard/pkg/errors"
	"risk_guard/pkg/pricing"
	"risk_guard/pkg/telemetry"
)

// TradingSandbox deterministically replays hypothetical buy and stop orders
// against a bound State. It is the "what if we did this" oracle used by the
// safety checks: a pure function of (state, orders) modulo the injected
// estimator and cost calculator, with no I/O of its own.
type TradingSandbox struct {
	symbol    market.Symbol
	estimator core.ILiquidationEstimator
	costs     core.IOrderCostCalculator
	logger    core.ILogger

	state *State
}

// NewTradingSandbox creates a sandbox for one symbol.
func NewTradingSandbox(symbol market.Symbol, estimator core.ILiquidationEstimator, costs core.IOrderCostCalculator, logger core.ILogger) *TradingSandbox {
	return &TradingSandbox{
		symbol:    symbol,
		estimator: estimator,
		costs:     costs,
		logger:    logger.WithField("component", "trading_sandbox").WithField("symbol", symbol.Name),
	}
}

// Bind attaches the sandbox to a state. The state must belong to the
// sandbox's symbol.
func (s *TradingSandbox) Bind(state *State) error {
	if !state.Symbol().Equal(s.symbol) {
		return fmt.Errorf("%w: state on %s, sandbox on %s",
			apperrors.ErrSymbolMismatch, state.Symbol().Name, s.symbol.Name)
	}
	s.state = state
	return nil
}

// State returns the bound state.
func (s *TradingSandbox) State() *State {
	return s.state
}

// ProcessOrders applies the orders in the caller-given order; later orders
// see the effects of earlier ones. Returns the final state.
//
// An underfunded buy yields ErrInsufficientAvailableBalance unless the order
// opted into IgnoreInsufficientBalance; any other failure indicates a caller
// bug or an unexpected collaborator error.
func (s *TradingSandbox) ProcessOrders(orders ...core.Order) (*State, error) {
	if s.state == nil {
		return nil, apperrors.ErrStateNotBound
	}
	for _, order := range orders {
		if !order.Symbol.Equal(s.symbol) {
			return nil, fmt.Errorf("%w: order %s on %s, sandbox on %s",
				apperrors.ErrSymbolMismatch, order.ID, order.Symbol.Name, s.symbol.Name)
		}
		var err error
		switch order.Kind {
		case core.OrderKindBuy:
			err = s.applyBuy(order)
		case core.OrderKindStop:
			err = s.applyStop(order)
		default:
			err = fmt.Errorf("%w: %q", apperrors.ErrUnknownOrderKind, order.Kind)
		}
		if err != nil {
			return nil, err
		}
		s.recordSimulation(order)
	}
	return s.state, nil
}

// recordSimulation counts the applied order and publishes the resulting
// balance and liquidation headroom for the symbol's gauges.
func (s *TradingSandbox) recordSimulation(order core.Order) {
	m := telemetry.GetGlobalMetrics()
	m.RecordSimulation(context.Background(), s.symbol.Name, string(order.Kind))
	m.SetAvailableBalance(s.symbol.Name, s.state.AvailableBalance().InexactFloat64())
	for _, position := range s.state.Positions() {
		if position.LiquidationPrice.IsZero() {
			continue
		}
		m.SetLiquidationDistance(s.symbol.Name,
			s.state.LastPrice().Difference(position.LiquidationPrice).InexactFloat64())
	}
}

func (s *TradingSandbox) applyBuy(order core.Order) error {
	s.state.SetLastPrice(order.Price)

	position := s.state.Position(order.Side)
	leverage := s.leverageFor(position)

	cost, err := s.costs.TotalBuyCost(order, leverage, order.Side)
	if err != nil {
		return fmt.Errorf("buy cost for order %s: %w", order.ID, err)
	}

	available := s.state.AvailableBalance()
	if available.LessThan(cost) && !order.IgnoreInsufficientBalance {
		return fmt.Errorf("%w: available %s, cost %s (order %s)",
			apperrors.ErrInsufficientAvailableBalance, available, cost, order.ID)
	}

	s.state.ModifyFreeBalance(cost.Neg())

	if position == nil {
		position = s.openPosition(order, leverage)
	} else {
		newSize := position.Size.Add(order.Volume)
		weighted := position.Size.Mul(position.EntryPrice.Decimal()).
			Add(order.Volume.Mul(order.Price.Decimal())).
			Div(newSize)
		entry, err := pricing.NewPrice(weighted, order.Price.Precision())
		if err != nil {
			return fmt.Errorf("averaged entry for order %s: %w", order.ID, err)
		}
		position = position.WithEntry(entry).WithSize(newSize)
	}
	if err := s.state.SetPosition(position); err != nil {
		return err
	}

	s.logger.Debug("Applied sandbox buy",
		"order_id", order.ID,
		"side", order.Side,
		"price", order.Price.String(),
		"volume", order.Volume,
		"free_balance", s.state.FreeBalance())

	return s.rederiveLiquidation(order.Side)
}

func (s *TradingSandbox) applyStop(order core.Order) error {
	s.state.SetLastPrice(order.Price)

	position := s.state.Position(order.Side)
	if position == nil {
		return fmt.Errorf("%w: stop %s on %s %s", apperrors.ErrPositionNotFound,
			order.ID, order.Symbol.Name, order.Side)
	}

	margin, err := s.costs.OrderMargin(order, position.Leverage)
	if err != nil {
		return fmt.Errorf("stop margin for order %s: %w", order.ID, err)
	}

	closed := decimal.Min(order.Volume, position.Size)
	pnl := risk.PnlInQuote(position.Side, position.EntryPrice, order.Price, closed)

	// Margin comes back and PnL is realized, loss reducing the balance.
	s.state.ModifyFreeBalance(margin.Add(pnl))

	newSize := position.Size.Sub(closed)
	if newSize.IsPositive() {
		if err := s.state.SetPosition(position.WithSize(newSize)); err != nil {
			return err
		}
	} else {
		// Full close: the position is gone, not a zero-size value.
		s.state.RemovePosition(order.Side)
	}

	s.logger.Debug("Applied sandbox stop",
		"order_id", order.ID,
		"side", order.Side,
		"price", order.Price.String(),
		"closed", closed,
		"pnl", pnl,
		"free_balance", s.state.FreeBalance())

	return s.rederiveLiquidation(order.Side)
}

// rederiveLiquidation recomputes liquidation after a mutation of the given
// side. In a hedged account liquidation is a property of the net exposure:
// the support leg is pinned to zero and the main leg is recomputed with the
// new free balance; a standalone position is recomputed directly.
func (s *TradingSandbox) rederiveLiquidation(side market.Side) error {
	position := s.state.Position(side)
	opposite := s.state.Position(side.Opposite())

	if position == nil {
		// The mutation closed this side; the survivor is standalone now.
		if opposite != nil {
			return s.estimateInto(opposite)
		}
		return nil
	}

	if opposite != nil {
		hedge, err := market.NewHedge(position, opposite)
		if err != nil {
			return err
		}
		if hedge.SupportPosition().Side == side {
			if err := s.state.SetPosition(position.WithLiquidation(pricing.Price{})); err != nil {
				return err
			}
			return s.estimateInto(hedge.MainPosition())
		}
	}
	return s.estimateInto(position)
}

func (s *TradingSandbox) estimateInto(position *market.Position) error {
	liquidation, err := s.estimator.Estimate(position, s.state.FreeBalance())
	if err != nil {
		return fmt.Errorf("liquidation estimate for %s %s: %w",
			position.Symbol.Name, position.Side, err)
	}
	return s.state.SetPosition(position.WithLiquidation(liquidation))
}

func (s *TradingSandbox) openPosition(order core.Order, leverage decimal.Decimal) *market.Position {
	value := order.Notional()
	margin := value
	if leverage.IsPositive() {
		margin = value.Div(leverage)
	}
	return &market.Position{
		Side:          order.Side,
		Symbol:        order.Symbol,
		EntryPrice:    order.Price,
		Size:          order.Volume,
		Value:         value,
		InitialMargin: margin,
		Leverage:      leverage,
		OpenedAt:      time.Now(),
	}
}

// leverageFor picks the leverage a buy is costed at: the open position's own
// leverage, or the symbol's maximum for a fresh position.
func (s *TradingSandbox) leverageFor(position *market.Position) decimal.Decimal {
	if position != nil && position.Leverage.IsPositive() {
		return position.Leverage
	}
	return s.symbol.MaxLeverage
}
