package checks

import (
	"context"

	"github.com/google/uuid"

	"risk_guard/internal/core"
	"risk_guard/internal/market"
	apperrors "risk_guard/pkg/errors"
	"risk_guard/pkg/telemetry"
)

// Policy controls how the pipeline reacts to a failing check.
type Policy string

const (
	// PolicyStopOnFirstFailure short-circuits at the first veto.
	PolicyStopOnFirstFailure Policy = "STOP_ON_FIRST_FAILURE"
	// PolicyAggregate runs every applicable check and collects all vetoes.
	PolicyAggregate Policy = "AGGREGATE"
)

// CheckOutcome pairs a check name with its result.
type CheckOutcome struct {
	Check  string
	Result Result
}

// Verdict is the pipeline's aggregate answer for one order.
type Verdict struct {
	EvaluationID string
	OrderID      string
	Passed       bool
	Outcomes     []CheckOutcome
}

// FirstFailure returns the first failing outcome, or nil when the order
// passed.
func (v Verdict) FirstFailure() *CheckOutcome {
	for i := range v.Outcomes {
		if !v.Outcomes[i].Result.Ok {
			return &v.Outcomes[i]
		}
	}
	return nil
}

// Pipeline runs the registered checks against one order in a fixed order.
// Checks within one evaluation share a Context, so the pipeline itself is the
// unit of idempotence: evaluating the same order against the same market
// state yields the same verdict.
type Pipeline struct {
	checks  []Check
	policy  Policy
	logger  core.ILogger
	metrics *telemetry.MetricsHolder
}

// NewPipeline creates a pipeline over the given checks. Registration order is
// execution order.
func NewPipeline(policy Policy, logger core.ILogger, checks ...Check) *Pipeline {
	return &Pipeline{
		checks:  checks,
		policy:  policy,
		logger:  logger.WithField("component", "check_pipeline"),
		metrics: telemetry.GetGlobalMetrics(),
	}
}

// Evaluate runs the pipeline for one order against one ticker snapshot. A
// returned error is an unexpected collaborator failure wrapped as an
// ExecutionError; a veto is a normal verdict, never an error.
func (p *Pipeline) Evaluate(ctx context.Context, order core.Order, ticker market.Ticker) (Verdict, error) {
	verdict := Verdict{
		EvaluationID: uuid.NewString(),
		OrderID:      order.ID,
		Passed:       true,
	}
	ec := NewContext(ticker)

	logger := p.logger.WithFields(map[string]interface{}{
		"evaluation_id": verdict.EvaluationID,
		"order_id":      order.ID,
		"symbol":        order.Symbol.Name,
		"side":          string(order.Side),
		"kind":          string(order.Kind),
	})

	for _, check := range p.checks {
		supports, err := check.Supports(ctx, order, ec)
		if err != nil {
			return verdict, apperrors.NewExecutionError(verdict.EvaluationID, check.Name(), order.ID, err)
		}
		if !supports {
			continue
		}

		result, err := check.Check(ctx, order, ec)
		if err != nil {
			return verdict, apperrors.NewExecutionError(verdict.EvaluationID, check.Name(), order.ID, err)
		}
		verdict.Outcomes = append(verdict.Outcomes, CheckOutcome{Check: check.Name(), Result: result})

		if result.Ok {
			logger.Debug("Check passed", "check", check.Name(), "info", result.Info)
			continue
		}

		verdict.Passed = false
		p.metrics.RecordVeto(ctx, order.Symbol.Name, check.Name(), string(result.Kind))
		logger.Warn("Check vetoed order",
			"check", check.Name(),
			"failure_kind", string(result.Kind),
			"info", result.Info)
		if p.policy == PolicyStopOnFirstFailure {
			break
		}
	}

	p.metrics.RecordEvaluation(ctx, order.Symbol.Name, verdict.Passed)
	logger.Info("Order evaluation completed", "passed", verdict.Passed, "checks_run", len(verdict.Outcomes))
	return verdict, nil
}
