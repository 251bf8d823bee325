package market

import (
	"risk_guard/pkg/pricing"
)

// Ticker is an immutable snapshot of the three exchange-reported reference
// prices, created fresh per evaluation.
type Ticker struct {
	Symbol     Symbol
	MarkPrice  pricing.Price
	IndexPrice pricing.Price
	LastPrice  pricing.Price
}
