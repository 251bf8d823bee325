package checks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"risk_guard/internal/core"
	"risk_guard/internal/market"
	"risk_guard/pkg/pricing"
)

const defaultStopsCacheTTL = 3 * time.Second

// FixationGuardCheck refuses to average into a position while profit-fixation
// stops sit between the entry price and the mark price: buying through a
// working fixation would race the exchange on the same size.
type FixationGuardCheck struct {
	stops     core.IStopOrderService
	positions core.IPositionService
	logger    core.ILogger

	mu    sync.Mutex
	ttl   time.Duration
	cache map[string]stopsCacheEntry
	now   func() time.Time
}

type stopsCacheEntry struct {
	orders    []core.Order
	fetchedAt time.Time
}

// NewFixationGuardCheck wires the check's collaborators. Stop listings are
// cached for a short TTL since evaluations for one symbol often arrive in
// bursts.
func NewFixationGuardCheck(stops core.IStopOrderService, positions core.IPositionService, logger core.ILogger) *FixationGuardCheck {
	return &FixationGuardCheck{
		stops:     stops,
		positions: positions,
		logger:    logger.WithField("check", "fixation_guard"),
		ttl:       defaultStopsCacheTTL,
		cache:     make(map[string]stopsCacheEntry),
		now:       time.Now,
	}
}

func (c *FixationGuardCheck) Name() string {
	return "fixation_guard"
}

// Supports governs buys against an existing position.
func (c *FixationGuardCheck) Supports(ctx context.Context, order core.Order, ec *Context) (bool, error) {
	if order.Kind != core.OrderKindBuy {
		return false, nil
	}
	position, err := ec.PositionState(ctx, c.positions, order.Side)
	if err != nil {
		return false, err
	}
	return position != nil, nil
}

func (c *FixationGuardCheck) Check(ctx context.Context, order core.Order, ec *Context) (Result, error) {
	position, err := ec.PositionState(ctx, c.positions, order.Side)
	if err != nil {
		return Result{}, err
	}

	stops, err := c.listStops(ctx, order.Symbol.Name, order.Side)
	if err != nil {
		return Result{}, err
	}

	var fixations []string
	for _, stop := range stops {
		if priceBetween(stop.Price, position.EntryPrice, ec.Ticker.MarkPrice) {
			fixations = append(fixations, fmt.Sprintf("%s@%s", stop.ID, stop.Price))
		}
	}
	if len(fixations) > 0 {
		return Failure(FailureFixationsFound,
			fmt.Sprintf("%d fixation stop(s) between entry %s and mark %s: %v",
				len(fixations), position.EntryPrice, ec.Ticker.MarkPrice, fixations)), nil
	}
	return Success(fmt.Sprintf("no fixation stops between entry %s and mark %s",
		position.EntryPrice, ec.Ticker.MarkPrice)), nil
}

func (c *FixationGuardCheck) listStops(ctx context.Context, symbol string, side market.Side) ([]core.Order, error) {
	key := symbol + "/" + string(side)

	c.mu.Lock()
	entry, ok := c.cache[key]
	c.mu.Unlock()
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return entry.orders, nil
	}

	orders, err := c.stops.GetStops(ctx, symbol, side)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[key] = stopsCacheEntry{orders: orders, fetchedAt: c.now()}
	c.mu.Unlock()
	return orders, nil
}

// priceBetween reports whether p lies strictly inside the open interval
// spanned by a and b, whichever order they come in.
func priceBetween(p, a, b pricing.Price) bool {
	lo, hi := a, b
	if hi.LessThan(lo) {
		lo, hi = hi, lo
	}
	return p.GreaterThan(lo) && p.LessThan(hi)
}
