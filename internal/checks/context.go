package checks

import (
	"context"

	"risk_guard/internal/core"
	"risk_guard/internal/market"
	"risk_guard/internal/sandbox"
)

// Context is the per-evaluation bag shared by the checks of one pipeline
// run: the ticker snapshot plus lazily populated position and sandbox
// states. Supports may populate the caches as a documented side effect so
// later checks in the same evaluation reuse them instead of re-querying.
// Lifetime is one order evaluation.
type Context struct {
	Ticker market.Ticker

	positionLoaded bool
	position       *market.Position

	sandboxState *sandbox.State
}

// NewContext creates a fresh evaluation context around a ticker snapshot.
func NewContext(ticker market.Ticker) *Context {
	return &Context{Ticker: ticker}
}

// PositionState returns the cached current position for the order's side,
// loading it through the position service on first use. A nil position means
// no open position.
func (c *Context) PositionState(ctx context.Context, positions core.IPositionService, side market.Side) (*market.Position, error) {
	if c.positionLoaded {
		return c.position, nil
	}
	p, err := positions.GetPosition(ctx, c.Ticker.Symbol.Name, side)
	if err != nil {
		return nil, err
	}
	c.position = p
	c.positionLoaded = true
	return p, nil
}

// SandboxState returns the cached pristine sandbox snapshot, building it on
// first use. Checks must Clone it before simulating so repeated evaluation
// of an unmodified context stays bit-identical.
func (c *Context) SandboxState(ctx context.Context, factory *StateFactory) (*sandbox.State, error) {
	if c.sandboxState != nil {
		return c.sandboxState, nil
	}
	state, err := factory.Build(ctx, c.Ticker)
	if err != nil {
		return nil, err
	}
	c.sandboxState = state
	return state, nil
}
