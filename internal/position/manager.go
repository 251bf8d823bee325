// Package position keeps the in-memory registry of open positions, working
// stop orders and account balances that the check pipeline reads from. The
// registry is fed by the exchange sync loop and never calls out on the read
// path.
package position

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"risk_guard/internal/core"
	"risk_guard/internal/market"
)

type sideKey struct {
	symbol string
	side   market.Side
}

// Manager implements core.IPositionService over an in-memory map. Reads
// return clones so callers can never mutate the registry through a returned
// position.
type Manager struct {
	mu        sync.RWMutex
	positions map[sideKey]*market.Position
	logger    core.ILogger
}

// NewManager creates an empty registry.
func NewManager(logger core.ILogger) *Manager {
	return &Manager{
		positions: make(map[sideKey]*market.Position),
		logger:    logger.WithField("component", "position_manager"),
	}
}

// GetPosition returns a clone of the tracked position, nil when absent. When
// the opposite side is also open the clones are linked so hedge logic sees
// the pair.
func (m *Manager) GetPosition(_ context.Context, symbol string, side market.Side) (*market.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p := m.positions[sideKey{symbol, side}]
	if p == nil {
		return nil, nil
	}
	clone := p.Clone()
	if opp := m.positions[sideKey{symbol, side.Opposite()}]; opp != nil {
		market.LinkOpposite(clone, opp.Clone())
	}
	return clone, nil
}

// Upsert replaces the tracked position for its symbol and side.
func (m *Manager) Upsert(p *market.Position) {
	if p == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[sideKey{p.Symbol.Name, p.Side}] = p.Clone()
	m.logger.Debug("Position updated",
		"symbol", p.Symbol.Name,
		"side", string(p.Side),
		"size", p.Size.String(),
		"entry", p.EntryPrice.String())
}

// Remove drops a tracked position, typically after a full close.
func (m *Manager) Remove(symbol string, side market.Side) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.positions, sideKey{symbol, side})
	m.logger.Debug("Position removed", "symbol", symbol, "side", string(side))
}

// StopBook implements core.IStopOrderService over an in-memory map of working
// stop orders per symbol and side.
type StopBook struct {
	mu    sync.RWMutex
	stops map[sideKey][]core.Order
}

// NewStopBook creates an empty stop book.
func NewStopBook() *StopBook {
	return &StopBook{stops: make(map[sideKey][]core.Order)}
}

// GetStops returns the working stops for a symbol and side.
func (b *StopBook) GetStops(_ context.Context, symbol string, side market.Side) ([]core.Order, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	stops := b.stops[sideKey{symbol, side}]
	out := make([]core.Order, len(stops))
	copy(out, stops)
	return out, nil
}

// Replace swaps the full stop list for a symbol and side.
func (b *StopBook) Replace(symbol string, side market.Side, stops []core.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	copied := make([]core.Order, len(stops))
	copy(copied, stops)
	b.stops[sideKey{symbol, side}] = copied
}

// AccountState implements core.IAccountService over balances pushed by the
// sync loop, keyed by quote coin.
type AccountState struct {
	mu        sync.RWMutex
	free      map[string]decimal.Decimal
	available map[string]decimal.Decimal
}

// NewAccountState creates an empty balance registry.
func NewAccountState() *AccountState {
	return &AccountState{
		free:      make(map[string]decimal.Decimal),
		available: make(map[string]decimal.Decimal),
	}
}

// FreeBalance returns the last pushed free balance for the coin.
func (a *AccountState) FreeBalance(_ context.Context, quoteCoin string) (decimal.Decimal, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.free[quoteCoin], nil
}

// AvailableContractBalance returns the last pushed available contract
// balance for the coin.
func (a *AccountState) AvailableContractBalance(_ context.Context, quoteCoin string) (decimal.Decimal, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.available[quoteCoin], nil
}

// SetBalances pushes both balances for a coin.
func (a *AccountState) SetBalances(quoteCoin string, free, available decimal.Decimal) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.free[quoteCoin] = free
	a.available[quoteCoin] = available
}
