// Package evaluator runs check-pipeline evaluations concurrently across
// symbols while serializing evaluations that touch the same symbol and side.
package evaluator

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"risk_guard/internal/checks"
	"risk_guard/internal/core"
	"risk_guard/internal/market"
	"risk_guard/pkg/concurrency"
	"risk_guard/pkg/telemetry"
)

// Evaluator fans order evaluations out over a worker pool. Orders for the
// same symbol and side are serialized so their sandbox snapshots never
// interleave; different symbols evaluate in parallel.
type Evaluator struct {
	pipeline *checks.Pipeline
	tickers  core.ITickerSource
	pool     *concurrency.WorkerPool
	logger   core.ILogger
	metrics  *telemetry.MetricsHolder

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEvaluator creates an evaluator over a pipeline and a ticker source.
func NewEvaluator(pipeline *checks.Pipeline, tickers core.ITickerSource, pool *concurrency.WorkerPool, logger core.ILogger) *Evaluator {
	return &Evaluator{
		pipeline: pipeline,
		tickers:  tickers,
		pool:     pool,
		logger:   logger.WithField("component", "evaluator"),
		metrics:  telemetry.GetGlobalMetrics(),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Evaluate runs one order through the pipeline against a fresh ticker
// snapshot.
func (e *Evaluator) Evaluate(ctx context.Context, order core.Order) (checks.Verdict, error) {
	lock := e.lockFor(order.Symbol.Name, order.Side)
	lock.Lock()
	defer lock.Unlock()

	ticker, err := e.tickers.Ticker(ctx, order.Symbol.Name)
	if err != nil {
		return checks.Verdict{}, err
	}

	started := time.Now()
	verdict, err := e.pipeline.Evaluate(ctx, order, ticker)
	e.metrics.RecordEvaluationLatency(ctx, order.Symbol.Name,
		float64(time.Since(started).Microseconds())/1000.0)
	return verdict, err
}

// EvaluateBatch evaluates a batch concurrently on the worker pool and returns
// verdicts in input order. The first unexpected error cancels the remaining
// evaluations; vetoes are verdicts, not errors.
func (e *Evaluator) EvaluateBatch(ctx context.Context, orders []core.Order) ([]checks.Verdict, error) {
	verdicts := make([]checks.Verdict, len(orders))
	g, gctx := errgroup.WithContext(ctx)

	for i, order := range orders {
		i, order := i, order
		done := make(chan error, 1)
		if err := e.pool.Submit(func() {
			verdict, err := e.Evaluate(gctx, order)
			if err == nil {
				verdicts[i] = verdict
			}
			done <- err
		}); err != nil {
			return nil, err
		}
		g.Go(func() error {
			select {
			case err := <-done:
				return err
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return verdicts, nil
}

func (e *Evaluator) lockFor(symbol string, side market.Side) *sync.Mutex {
	key := symbol + "/" + string(side)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locks[key] == nil {
		e.locks[key] = &sync.Mutex{}
	}
	return e.locks[key]
}
