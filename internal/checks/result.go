// Package checks composes the pluggable order-safety assertions that gate
// real trading actions.
package checks

import (
	"github.com/shopspring/decimal"
)

// FailureKind is the closed, machine-readable taxonomy of check failures.
// Callers branch on kind, never on the info string.
type FailureKind string

const (
	FailureInsufficientContractBalance                  FailureKind = "INSUFFICIENT_CONTRACT_BALANCE"
	FailureLiquidationTooClose                          FailureKind = "LIQUIDATION_TOO_CLOSE"
	FailureFurtherPositionLiquidationAfterBuyIsTooClose FailureKind = "FURTHER_POSITION_LIQUIDATION_AFTER_BUY_IS_TOO_CLOSE"
	FailureMainPositionLiquidationAfterStopIsTooClose   FailureKind = "MAIN_POSITION_LIQUIDATION_AFTER_STOP_IS_TOO_CLOSE"
	FailureAveragePriceTooFar                           FailureKind = "AVERAGE_PRICE_TOO_FAR"
	FailureFixationsFound                               FailureKind = "FIXATIONS_FOUND"
)

// Result is the structured outcome of one check: pass/fail, the failure kind
// when failed, and a human-readable trace string. Liquidation failures carry
// the computed delta and the required safe distance so callers can size an
// intervention without re-running the simulation.
type Result struct {
	Ok   bool
	Kind FailureKind
	Info string

	Delta        decimal.Decimal
	SafeDistance decimal.Decimal
}

// Success builds a passing result with a trace string.
func Success(info string) Result {
	return Result{Ok: true, Info: info}
}

// Failure builds a failing result.
func Failure(kind FailureKind, info string) Result {
	return Result{Kind: kind, Info: info}
}

// LiquidationFailure builds a failing result carrying the distance payload.
func LiquidationFailure(kind FailureKind, info string, delta, safeDistance decimal.Decimal) Result {
	return Result{Kind: kind, Info: info, Delta: delta, SafeDistance: safeDistance}
}
