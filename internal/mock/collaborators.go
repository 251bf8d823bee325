// Package mock provides in-memory fakes of the collaborator interfaces for
// tests.
package mock

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"risk_guard/internal/core"
	"risk_guard/internal/market"
	"risk_guard/pkg/pricing"
)

// Logger is a no-op core.ILogger.
type Logger struct{}

func (l *Logger) Debug(msg string, fields ...interface{})          {}
func (l *Logger) Info(msg string, fields ...interface{})           {}
func (l *Logger) Warn(msg string, fields ...interface{})           {}
func (l *Logger) Error(msg string, fields ...interface{})          {}
func (l *Logger) Fatal(msg string, fields ...interface{})          {}
func (l *Logger) WithField(k string, v interface{}) core.ILogger   { return l }
func (l *Logger) WithFields(f map[string]interface{}) core.ILogger { return l }

// Estimator is a configurable core.ILiquidationEstimator.
type Estimator struct {
	// EstimateFunc overrides the default behavior when set.
	EstimateFunc func(position *market.Position, freeBalance decimal.Decimal) (pricing.Price, error)
	// Fixed is returned when EstimateFunc is nil.
	Fixed pricing.Price
}

func (e *Estimator) Estimate(position *market.Position, freeBalance decimal.Decimal) (pricing.Price, error) {
	if e.EstimateFunc != nil {
		return e.EstimateFunc(position, freeBalance)
	}
	return e.Fixed, nil
}

// CostCalculator is a configurable core.IOrderCostCalculator.
type CostCalculator struct {
	BuyCost decimal.Decimal
	Margin  decimal.Decimal

	TotalBuyCostFunc func(order core.Order, leverage decimal.Decimal, side market.Side) (decimal.Decimal, error)
	OrderMarginFunc  func(order core.Order, leverage decimal.Decimal) (decimal.Decimal, error)
}

func (c *CostCalculator) TotalBuyCost(order core.Order, leverage decimal.Decimal, side market.Side) (decimal.Decimal, error) {
	if c.TotalBuyCostFunc != nil {
		return c.TotalBuyCostFunc(order, leverage, side)
	}
	return c.BuyCost, nil
}

func (c *CostCalculator) OrderMargin(order core.Order, leverage decimal.Decimal) (decimal.Decimal, error) {
	if c.OrderMarginFunc != nil {
		return c.OrderMarginFunc(order, leverage)
	}
	return c.Margin, nil
}

// PositionService serves positions from a map keyed by symbol and side.
type PositionService struct {
	mu        sync.RWMutex
	positions map[string]*market.Position
	Err       error
}

func NewPositionService(positions ...*market.Position) *PositionService {
	s := &PositionService{positions: make(map[string]*market.Position)}
	for _, p := range positions {
		s.Set(p)
	}
	return s
}

func (s *PositionService) Set(p *market.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[p.Symbol.Name+"/"+string(p.Side)] = p
}

func (s *PositionService) GetPosition(_ context.Context, symbol string, side market.Side) (*market.Position, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.positions[symbol+"/"+string(side)]
	if p == nil {
		return nil, nil
	}
	return p.Clone(), nil
}

// StopOrderService serves canned stop order lists.
type StopOrderService struct {
	Stops []core.Order
	Err   error

	mu    sync.Mutex
	Calls int
}

func (s *StopOrderService) GetStops(_ context.Context, symbol string, side market.Side) ([]core.Order, error) {
	s.mu.Lock()
	s.Calls++
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Stops, nil
}

// AccountService serves fixed balances.
type AccountService struct {
	Free      decimal.Decimal
	Available decimal.Decimal
	Err       error
}

func (s *AccountService) FreeBalance(_ context.Context, quoteCoin string) (decimal.Decimal, error) {
	return s.Free, s.Err
}

func (s *AccountService) AvailableContractBalance(_ context.Context, quoteCoin string) (decimal.Decimal, error) {
	return s.Available, s.Err
}

// TickerSource serves a fixed ticker per symbol.
type TickerSource struct {
	Tickers map[string]market.Ticker
	Err     error
}

func (s *TickerSource) Ticker(_ context.Context, symbol string) (market.Ticker, error) {
	if s.Err != nil {
		return market.Ticker{}, s.Err
	}
	return s.Tickers[symbol], nil
}
