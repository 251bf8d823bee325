// Package server exposes the order evaluation API plus health and metrics
// endpoints.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"risk_guard/internal/checks"
	"risk_guard/internal/core"
	"risk_guard/internal/evaluator"
	"risk_guard/internal/infrastructure/health"
	"risk_guard/internal/market"
	apperrors "risk_guard/pkg/errors"
	"risk_guard/pkg/pricing"
)

// VerdictNotifier forwards vetoed verdicts to the alerting layer.
type VerdictNotifier interface {
	NotifyVerdict(ctx context.Context, order core.Order, verdict checks.Verdict)
}

// APIServer serves the evaluation endpoint alongside health and Prometheus
// metrics.
type APIServer struct {
	port      string
	logger    core.ILogger
	srv       *http.Server
	evaluator *evaluator.Evaluator
	symbols   map[string]market.Symbol
	hm        *health.HealthManager
	notifier  VerdictNotifier
	limiter   *rate.Limiter
}

// NewAPIServer creates the server. The symbol registry resolves request
// symbols into full contract metadata; a nil notifier disables alerting.
func NewAPIServer(port string, ev *evaluator.Evaluator, symbols map[string]market.Symbol, hm *health.HealthManager, notifier VerdictNotifier, logger core.ILogger) *APIServer {
	return &APIServer{
		port:      port,
		logger:    logger.WithField("component", "api_server"),
		evaluator: ev,
		symbols:   symbols,
		hm:        hm,
		notifier:  notifier,
		limiter:   rate.NewLimiter(rate.Limit(100), 200),
	}
}

// Start begins serving in the background.
func (s *APIServer) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/evaluate", s.handleEvaluate)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:    ":" + s.port,
		Handler: mux,
	}

	go func() {
		s.logger.Info("Starting API server", "port", s.port)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("API server failed", "error", err)
		}
	}()
}

// Stop shuts the server down gracefully.
func (s *APIServer) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

type evaluateRequest struct {
	OrderID               string `json:"orderId"`
	Symbol                string `json:"symbol"`
	Side                  string `json:"side"`
	Kind                  string `json:"kind"`
	Price                 string `json:"price"`
	Volume                string `json:"volume"`
	Force                 bool   `json:"force"`
	SkipAveragePriceCheck bool   `json:"skipAveragePriceCheck"`
}

type evaluateResponse struct {
	EvaluationID string           `json:"evaluationId"`
	Passed       bool             `json:"passed"`
	Outcomes     []outcomePayload `json:"outcomes"`
	Failure      *failurePayload  `json:"failure,omitempty"`
}

type outcomePayload struct {
	Check string `json:"check"`
	Ok    bool   `json:"ok"`
	Kind  string `json:"kind,omitempty"`
	Info  string `json:"info"`
}

type failurePayload struct {
	Check        string `json:"check"`
	Kind         string `json:"kind"`
	Info         string `json:"info"`
	Delta        string `json:"delta,omitempty"`
	SafeDistance string `json:"safeDistance,omitempty"`
}

func (s *APIServer) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.limiter.Allow() {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	order, err := s.buildOrder(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	verdict, err := s.evaluator.Evaluate(r.Context(), order)
	if err != nil {
		if apperrors.IsExecutionError(err) {
			s.logger.Error("Evaluation failed", "order_id", order.ID, "error", err)
		}
		http.Error(w, "evaluation failed", http.StatusInternalServerError)
		return
	}

	if s.notifier != nil && !verdict.Passed {
		// Alert delivery must outlive the request context.
		s.notifier.NotifyVerdict(context.Background(), order, verdict)
	}

	resp := evaluateResponse{
		EvaluationID: verdict.EvaluationID,
		Passed:       verdict.Passed,
	}
	for _, outcome := range verdict.Outcomes {
		resp.Outcomes = append(resp.Outcomes, outcomePayload{
			Check: outcome.Check,
			Ok:    outcome.Result.Ok,
			Kind:  string(outcome.Result.Kind),
			Info:  outcome.Result.Info,
		})
	}
	if failure := verdict.FirstFailure(); failure != nil {
		fp := &failurePayload{
			Check: failure.Check,
			Kind:  string(failure.Result.Kind),
			Info:  failure.Result.Info,
		}
		if !failure.Result.Delta.IsZero() {
			fp.Delta = failure.Result.Delta.String()
			fp.SafeDistance = failure.Result.SafeDistance.String()
		}
		resp.Failure = fp
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *APIServer) buildOrder(req evaluateRequest) (core.Order, error) {
	sym, ok := s.symbols[req.Symbol]
	if !ok {
		return core.Order{}, fmt.Errorf("unknown symbol: %s", req.Symbol)
	}

	side := market.Side(req.Side)
	if !side.IsValid() {
		return core.Order{}, fmt.Errorf("invalid side: %s", req.Side)
	}

	kind := core.OrderKind(req.Kind)
	if kind != core.OrderKindBuy && kind != core.OrderKindStop {
		return core.Order{}, fmt.Errorf("invalid order kind: %s", req.Kind)
	}

	priceValue, err := decimal.NewFromString(req.Price)
	if err != nil {
		return core.Order{}, fmt.Errorf("invalid price: %s", req.Price)
	}
	price, err := pricing.NewPrice(priceValue, sym.PricePrecision)
	if err != nil {
		return core.Order{}, err
	}

	volume, err := decimal.NewFromString(req.Volume)
	if err != nil || !volume.IsPositive() {
		return core.Order{}, fmt.Errorf("invalid volume: %s", req.Volume)
	}

	return core.Order{
		ID:                    req.OrderID,
		Symbol:                sym,
		Side:                  side,
		Kind:                  kind,
		Price:                 price,
		Volume:                volume,
		Force:                 req.Force,
		SkipAveragePriceCheck: req.SkipAveragePriceCheck,
	}, nil
}

func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{
		"status": "ok",
		"time":   time.Now(),
	}

	if s.hm != nil {
		payload["components"] = s.hm.GetStatus()
		if !s.hm.IsHealthy() {
			payload["status"] = "unhealthy"
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
