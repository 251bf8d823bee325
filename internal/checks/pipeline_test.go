package checks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"risk_guard/internal/core"
	"risk_guard/internal/market"
	"risk_guard/internal/mock"
	apperrors "risk_guard/pkg/errors"
)

// stubCheck is a scriptable Check for pipeline tests.
type stubCheck struct {
	name       string
	supports   bool
	result     Result
	supportErr error
	checkErr   error

	calls int
}

func (s *stubCheck) Name() string { return s.name }

func (s *stubCheck) Supports(_ context.Context, _ core.Order, _ *Context) (bool, error) {
	return s.supports, s.supportErr
}

func (s *stubCheck) Check(_ context.Context, _ core.Order, _ *Context) (Result, error) {
	s.calls++
	return s.result, s.checkErr
}

func TestPipelinePassingOrder(t *testing.T) {
	first := &stubCheck{name: "first", supports: true, result: Success("ok")}
	skipped := &stubCheck{name: "skipped"}
	second := &stubCheck{name: "second", supports: true, result: Success("ok")}

	p := NewPipeline(PolicyStopOnFirstFailure, &mock.Logger{}, first, skipped, second)

	verdict, err := p.Evaluate(context.Background(),
		checkOrder(core.OrderKindBuy, market.SideLong, 30000, "1"), checkTicker(31000))
	require.NoError(t, err)

	assert.True(t, verdict.Passed)
	assert.NotEmpty(t, verdict.EvaluationID)
	assert.Equal(t, "order-1", verdict.OrderID)
	require.Len(t, verdict.Outcomes, 2, "unsupported checks leave no outcome")
	assert.Equal(t, 0, skipped.calls)
	assert.Nil(t, verdict.FirstFailure())
}

func TestPipelineStopOnFirstFailure(t *testing.T) {
	failing := &stubCheck{name: "failing", supports: true, result: Failure(FailureFixationsFound, "boom")}
	never := &stubCheck{name: "never", supports: true, result: Success("ok")}

	p := NewPipeline(PolicyStopOnFirstFailure, &mock.Logger{}, failing, never)

	verdict, err := p.Evaluate(context.Background(),
		checkOrder(core.OrderKindBuy, market.SideLong, 30000, "1"), checkTicker(31000))
	require.NoError(t, err)

	assert.False(t, verdict.Passed)
	assert.Equal(t, 0, never.calls, "pipeline short-circuits after the veto")
	require.NotNil(t, verdict.FirstFailure())
	assert.Equal(t, "failing", verdict.FirstFailure().Check)
}

func TestPipelineAggregatesFailures(t *testing.T) {
	first := &stubCheck{name: "first", supports: true, result: Failure(FailureFixationsFound, "boom")}
	second := &stubCheck{name: "second", supports: true, result: Failure(FailureAveragePriceTooFar, "far")}

	p := NewPipeline(PolicyAggregate, &mock.Logger{}, first, second)

	verdict, err := p.Evaluate(context.Background(),
		checkOrder(core.OrderKindBuy, market.SideLong, 30000, "1"), checkTicker(31000))
	require.NoError(t, err)

	assert.False(t, verdict.Passed)
	require.Len(t, verdict.Outcomes, 2)
	assert.Equal(t, FailureFixationsFound, verdict.FirstFailure().Result.Kind)
}

func TestPipelineWrapsCollaboratorErrors(t *testing.T) {
	cause := errors.New("exchange timeout")
	broken := &stubCheck{name: "broken", supports: true, checkErr: cause}

	p := NewPipeline(PolicyStopOnFirstFailure, &mock.Logger{}, broken)

	_, err := p.Evaluate(context.Background(),
		checkOrder(core.OrderKindBuy, market.SideLong, 30000, "1"), checkTicker(31000))
	require.Error(t, err)

	var execErr *apperrors.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "broken", execErr.CheckName)
	assert.Equal(t, "order-1", execErr.OrderID)
	assert.True(t, errors.Is(err, cause))
}
