// Package sandbox replays hypothetical buy and stop orders against an
// in-memory snapshot of one symbol's balances and positions.
package sandbox

import (
	"fmt"

	"github.com/shopspring/decimal"

	"risk_guard/internal/market"
	apperrors "risk_guard/pkg/errors"
	"risk_guard/pkg/pricing"
)

// State is a self-contained snapshot of one symbol's balances and positions.
// It is created once per simulation run, mutated in place by the sandbox, and
// discarded after the check that used it. Never persisted.
type State struct {
	symbol    market.Symbol
	positions map[market.Side]*market.Position
	lastPrice pricing.Price

	freeBalance decimal.Decimal

	// Snapshots captured at construction for audit and diffing.
	freeBalanceBefore      decimal.Decimal
	availableBalanceBefore decimal.Decimal
}

// NewState builds a snapshot from the given positions and free balance.
// Every position must belong to the state's symbol.
func NewState(symbol market.Symbol, positions []*market.Position, lastPrice pricing.Price, freeBalance decimal.Decimal) (*State, error) {
	s := &State{
		symbol:            symbol,
		positions:         make(map[market.Side]*market.Position, 2),
		lastPrice:         lastPrice,
		freeBalance:       freeBalance,
		freeBalanceBefore: freeBalance,
	}
	for _, p := range positions {
		if p == nil {
			continue
		}
		if err := s.SetPosition(p); err != nil {
			return nil, err
		}
	}
	s.availableBalanceBefore = s.AvailableBalance()
	return s, nil
}

// Symbol returns the symbol this state belongs to.
func (s *State) Symbol() market.Symbol {
	return s.symbol
}

// Position returns the position on the given side, or nil when absent. When
// both sides exist the pair is returned with its weak back-references wired,
// so hedge and liquidation logic always sees an up-to-date pair.
func (s *State) Position(side market.Side) *market.Position {
	p := s.positions[side]
	if p == nil {
		return nil
	}
	if opp := s.positions[side.Opposite()]; opp != nil {
		market.LinkOpposite(p, opp)
	}
	return p
}

// Positions returns all open positions.
func (s *State) Positions() []*market.Position {
	out := make([]*market.Position, 0, len(s.positions))
	for _, side := range []market.Side{market.SideLong, market.SideShort} {
		if p := s.positions[side]; p != nil {
			out = append(out, p)
		}
	}
	return out
}

// SetPosition stores a position, failing fast on a cross-symbol mix-up.
func (s *State) SetPosition(p *market.Position) error {
	if !p.Symbol.Equal(s.symbol) {
		return fmt.Errorf("%w: position on %s, state on %s",
			apperrors.ErrSymbolMismatch, p.Symbol.Name, s.symbol.Name)
	}
	s.positions[p.Side] = p
	return nil
}

// RemovePosition drops the position on the given side. Used when a stop
// closes the full size: a closed position is absence, not a zero-size value.
func (s *State) RemovePosition(side market.Side) {
	delete(s.positions, side)
	if opp := s.positions[side.Opposite()]; opp != nil {
		market.LinkOpposite(opp, nil)
	}
}

// LastPrice returns the reference price used by AvailableBalance.
func (s *State) LastPrice() pricing.Price {
	return s.lastPrice
}

// SetLastPrice updates the reference price. Called before applying every
// order since price may move between orders of a multi-order simulation.
func (s *State) SetLastPrice(price pricing.Price) {
	s.lastPrice = price
}

// FreeBalance returns the current free balance.
func (s *State) FreeBalance() decimal.Decimal {
	return s.freeBalance
}

// FreeBalanceBefore returns the free balance captured at construction.
func (s *State) FreeBalanceBefore() decimal.Decimal {
	return s.freeBalanceBefore
}

// AvailableBalanceBefore returns the available balance captured at
// construction.
func (s *State) AvailableBalanceBefore() decimal.Decimal {
	return s.availableBalanceBefore
}

// ModifyFreeBalance adds amount to the free balance. No floor: a negative
// free balance is a legitimate precondition for later insufficient-balance
// checks.
func (s *State) ModifyFreeBalance(amount decimal.Decimal) {
	s.freeBalance = s.freeBalance.Add(amount)
}

// AvailableBalance mirrors exchange margin-call accounting: the unrealized
// loss of the at-risk exposure reduces usable margin before it is realized.
// An equivalent hedge has no at-risk side, so the free balance passes
// through verbatim.
func (s *State) AvailableBalance() decimal.Decimal {
	long := s.positions[market.SideLong]
	short := s.positions[market.SideShort]

	var exposure *market.Position
	notCovered := decimal.Zero

	switch {
	case long != nil && short != nil:
		hedge, err := market.NewHedge(long, short)
		if err == nil {
			if hedge.IsEquivalent() {
				return s.freeBalance
			}
			exposure = hedge.MainPosition()
			notCovered = hedge.NotCoveredSize()
		}
	case long != nil:
		exposure = long
		notCovered = long.Size
	case short != nil:
		exposure = short
		notCovered = short.Size
	}

	loss := decimal.Zero
	if exposure != nil && exposure.InLoss(s.lastPrice) {
		loss = notCovered.Mul(s.lastPrice.Difference(exposure.EntryPrice))
	}
	return decimal.Max(s.freeBalance.Sub(loss), decimal.Zero)
}

// Clone returns a deep copy so a check can simulate orders without touching
// the evaluation's cached snapshot.
func (s *State) Clone() *State {
	c := &State{
		symbol:                 s.symbol,
		positions:              make(map[market.Side]*market.Position, len(s.positions)),
		lastPrice:              s.lastPrice,
		freeBalance:            s.freeBalance,
		freeBalanceBefore:      s.freeBalanceBefore,
		availableBalanceBefore: s.availableBalanceBefore,
	}
	for side, p := range s.positions {
		c.positions[side] = p.Clone()
	}
	return c
}
