package checks

import (
	"context"

	"risk_guard/internal/core"
	"risk_guard/internal/market"
	"risk_guard/internal/sandbox"
)

// StateFactory assembles a sandbox state from the live position and balance
// reads of one evaluation.
type StateFactory struct {
	positions core.IPositionService
	account   core.IAccountService
}

// NewStateFactory creates a factory over the given collaborators.
func NewStateFactory(positions core.IPositionService, account core.IAccountService) *StateFactory {
	return &StateFactory{positions: positions, account: account}
}

// Build reads both sides of the symbol and the free balance and snapshots
// them into a fresh sandbox state seeded with the ticker's last price.
func (f *StateFactory) Build(ctx context.Context, ticker market.Ticker) (*sandbox.State, error) {
	var open []*market.Position
	for _, side := range []market.Side{market.SideLong, market.SideShort} {
		p, err := f.positions.GetPosition(ctx, ticker.Symbol.Name, side)
		if err != nil {
			return nil, err
		}
		if p != nil {
			open = append(open, p)
		}
	}

	free, err := f.account.FreeBalance(ctx, ticker.Symbol.QuoteCoin)
	if err != nil {
		return nil, err
	}

	return sandbox.NewState(ticker.Symbol, open, ticker.LastPrice, free)
}
