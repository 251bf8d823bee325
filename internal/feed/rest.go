// Package feed supplies ticker snapshots from the upstream quote service,
// streaming over websocket with a REST fallback for cold or stale symbols.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"risk_guard/internal/core"
	"risk_guard/internal/market"
	"risk_guard/pkg/http"
	"risk_guard/pkg/pricing"
)

type tickerPayload struct {
	Symbol     string `json:"symbol"`
	MarkPrice  string `json:"markPrice"`
	IndexPrice string `json:"indexPrice"`
	LastPrice  string `json:"lastPrice"`
}

// RESTSource reads ticker snapshots over HTTP. It implements
// core.ITickerSource directly and also serves as the fallback behind
// StreamSource.
type RESTSource struct {
	client  *http.Client
	symbols map[string]market.Symbol
	logger  core.ILogger
}

// NewRESTSource creates a source over the quote service base URL. The symbol
// registry supplies the precision metadata tickers are parsed with.
func NewRESTSource(baseURL string, timeout time.Duration, symbols map[string]market.Symbol, logger core.ILogger) *RESTSource {
	return &RESTSource{
		client:  http.NewClient(baseURL, timeout, nil),
		symbols: symbols,
		logger:  logger.WithField("component", "ticker_rest"),
	}
}

// Ticker fetches one fresh snapshot.
func (s *RESTSource) Ticker(ctx context.Context, symbol string) (market.Ticker, error) {
	sym, ok := s.symbols[symbol]
	if !ok {
		return market.Ticker{}, fmt.Errorf("unknown symbol %s", symbol)
	}

	body, err := s.client.Get(ctx, "/v1/tickers", map[string]string{"symbol": symbol})
	if err != nil {
		return market.Ticker{}, fmt.Errorf("failed to fetch ticker for %s: %w", symbol, err)
	}

	var payload tickerPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return market.Ticker{}, fmt.Errorf("failed to decode ticker for %s: %w", symbol, err)
	}
	return parseTicker(sym, payload)
}

func parseTicker(sym market.Symbol, payload tickerPayload) (market.Ticker, error) {
	mark, err := parsePrice(payload.MarkPrice, sym.PricePrecision)
	if err != nil {
		return market.Ticker{}, fmt.Errorf("bad mark price for %s: %w", sym.Name, err)
	}
	index, err := parsePrice(payload.IndexPrice, sym.PricePrecision)
	if err != nil {
		return market.Ticker{}, fmt.Errorf("bad index price for %s: %w", sym.Name, err)
	}
	last, err := parsePrice(payload.LastPrice, sym.PricePrecision)
	if err != nil {
		return market.Ticker{}, fmt.Errorf("bad last price for %s: %w", sym.Name, err)
	}
	return market.Ticker{Symbol: sym, MarkPrice: mark, IndexPrice: index, LastPrice: last}, nil
}

func parsePrice(raw string, precision int32) (pricing.Price, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return pricing.Price{}, err
	}
	return pricing.NewPrice(value, precision)
}
