package alert

import (
	"context"

	"risk_guard/internal/checks"
	"risk_guard/internal/core"
)

// VetoNotifier pushes failed order evaluations to the configured alert
// channels so operators see vetoes without tailing logs.
type VetoNotifier struct {
	manager *AlertManager
}

// NewVetoNotifier wraps an alert manager.
func NewVetoNotifier(manager *AlertManager) *VetoNotifier {
	return &VetoNotifier{manager: manager}
}

// NotifyVerdict sends an alert for a vetoed order. Passing verdicts are
// ignored.
func (n *VetoNotifier) NotifyVerdict(ctx context.Context, order core.Order, verdict checks.Verdict) {
	if verdict.Passed {
		return
	}
	failure := verdict.FirstFailure()
	if failure == nil {
		return
	}

	level := Warning
	switch failure.Result.Kind {
	case checks.FailureFurtherPositionLiquidationAfterBuyIsTooClose,
		checks.FailureMainPositionLiquidationAfterStopIsTooClose,
		checks.FailureLiquidationTooClose:
		level = Critical
	}

	fields := map[string]string{
		"evaluation_id": verdict.EvaluationID,
		"order_id":      order.ID,
		"symbol":        order.Symbol.Name,
		"side":          string(order.Side),
		"kind":          string(order.Kind),
		"check":         failure.Check,
		"failure_kind":  string(failure.Result.Kind),
	}
	if !failure.Result.Delta.IsZero() {
		fields["delta"] = failure.Result.Delta.String()
		fields["safe_distance"] = failure.Result.SafeDistance.String()
	}

	n.manager.Alert(ctx, "Order vetoed", failure.Result.Info, level, fields)
}
