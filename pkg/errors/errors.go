package apperrors

import (
	"errors"
	"fmt"
)

// Standardized domain errors
var (
	ErrInvalidPrice                 = errors.New("invalid price")
	ErrInvalidRange                 = errors.New("invalid price range")
	ErrInvalidPercent               = errors.New("invalid percent")
	ErrSymbolMismatch               = errors.New("symbol mismatch")
	ErrInsufficientAvailableBalance = errors.New("insufficient available balance")
	ErrPositionNotFound             = errors.New("position not found")
	ErrSettingNotFound              = errors.New("required setting not found")
	ErrUnknownOrderKind             = errors.New("unknown order kind")
	ErrStateNotBound                = errors.New("sandbox state not bound")
)

// ExecutionError wraps an unexpected collaborator failure raised inside a
// simulation or check so it is never confused with a normal check failure.
type ExecutionError struct {
	EvaluationID string
	CheckName    string
	OrderID      string
	Err          error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("unexpected sandbox execution error: evaluation=%s check=%s order=%s: %v",
		e.EvaluationID, e.CheckName, e.OrderID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// NewExecutionError wraps err with the identifiers needed to diagnose a
// failed simulation without re-running it.
func NewExecutionError(evaluationID, checkName, orderID string, err error) *ExecutionError {
	return &ExecutionError{
		EvaluationID: evaluationID,
		CheckName:    checkName,
		OrderID:      orderID,
		Err:          err,
	}
}

// IsExecutionError reports whether err is (or wraps) an ExecutionError.
func IsExecutionError(err error) bool {
	var ee *ExecutionError
	return errors.As(err, &ee)
}
