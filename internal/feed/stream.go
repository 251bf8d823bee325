package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"risk_guard/internal/core"
	"risk_guard/internal/market"
	"risk_guard/pkg/websocket"
)

const defaultStaleAfter = 5 * time.Second

// StreamSource keeps a live ticker cache fed by the quote service's
// websocket stream. A symbol that has not ticked recently falls back to the
// REST source so checks never act on stale prices.
type StreamSource struct {
	ws       *websocket.Client
	fallback *RESTSource
	symbols  map[string]market.Symbol
	logger   core.ILogger

	staleAfter time.Duration
	now        func() time.Time

	mu    sync.RWMutex
	cache map[string]cachedTicker
}

type cachedTicker struct {
	ticker     market.Ticker
	receivedAt time.Time
}

// NewStreamSource creates a streaming source. Start must be called before
// tickers flow; until then every read goes through the fallback.
func NewStreamSource(wsURL string, fallback *RESTSource, symbols map[string]market.Symbol, logger core.ILogger) *StreamSource {
	s := &StreamSource{
		fallback:   fallback,
		symbols:    symbols,
		logger:     logger.WithField("component", "ticker_stream"),
		staleAfter: defaultStaleAfter,
		now:        time.Now,
		cache:      make(map[string]cachedTicker),
	}
	s.ws = websocket.NewClient(wsURL, s.handleMessage, s.logger)
	s.ws.SetOnConnected(s.subscribe)
	return s
}

// Start begins streaming.
func (s *StreamSource) Start() {
	s.ws.Start()
}

// Stop closes the stream.
func (s *StreamSource) Stop() {
	s.ws.Stop()
}

// Ticker returns the cached snapshot when fresh, otherwise falls back to
// REST and refreshes the cache.
func (s *StreamSource) Ticker(ctx context.Context, symbol string) (market.Ticker, error) {
	s.mu.RLock()
	cached, ok := s.cache[symbol]
	s.mu.RUnlock()
	if ok && s.now().Sub(cached.receivedAt) < s.staleAfter {
		return cached.ticker, nil
	}

	ticker, err := s.fallback.Ticker(ctx, symbol)
	if err != nil {
		return market.Ticker{}, err
	}
	s.store(ticker)
	return ticker, nil
}

func (s *StreamSource) subscribe() {
	topics := make([]string, 0, len(s.symbols))
	for name := range s.symbols {
		topics = append(topics, "tickers."+name)
	}
	if err := s.ws.Send(map[string]interface{}{"op": "subscribe", "args": topics}); err != nil {
		s.logger.Error("Ticker subscription failed", "error", err)
	}
}

func (s *StreamSource) handleMessage(message []byte) {
	var payload tickerPayload
	if err := json.Unmarshal(message, &payload); err != nil {
		s.logger.Debug("Skipping non-ticker message", "error", err)
		return
	}
	sym, ok := s.symbols[payload.Symbol]
	if !ok {
		return
	}
	ticker, err := parseTicker(sym, payload)
	if err != nil {
		s.logger.Warn("Dropping malformed ticker", "symbol", payload.Symbol, "error", err)
		return
	}
	s.store(ticker)
}

func (s *StreamSource) store(ticker market.Ticker) {
	s.mu.Lock()
	s.cache[ticker.Symbol.Name] = cachedTicker{ticker: ticker, receivedAt: s.now()}
	s.mu.Unlock()
}
