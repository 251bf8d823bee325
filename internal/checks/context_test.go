package checks

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"risk_guard/internal/market"
	"risk_guard/internal/mock"
)

func TestContextCachesPositionState(t *testing.T) {
	long := checkPosition(market.SideLong, 30000, "1")
	svc := mock.NewPositionService(long)
	ec := NewContext(checkTicker(31000))

	first, err := ec.PositionState(context.Background(), svc, market.SideLong)
	require.NoError(t, err)
	require.NotNil(t, first)

	// A write between lookups must not leak into the running evaluation.
	svc.Set(checkPosition(market.SideLong, 20000, "5"))

	second, err := ec.PositionState(context.Background(), svc, market.SideLong)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestContextCachesAbsentPosition(t *testing.T) {
	svc := mock.NewPositionService()
	ec := NewContext(checkTicker(31000))

	p, err := ec.PositionState(context.Background(), svc, market.SideLong)
	require.NoError(t, err)
	assert.Nil(t, p, "no position is a valid, cacheable answer")

	svc.Set(checkPosition(market.SideLong, 30000, "1"))
	p, err = ec.PositionState(context.Background(), svc, market.SideLong)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestContextCachesSandboxState(t *testing.T) {
	factory := NewStateFactory(
		mock.NewPositionService(checkPosition(market.SideShort, 30000, "1")),
		&mock.AccountService{Free: decimal.NewFromInt(1000)},
	)
	ec := NewContext(checkTicker(29000))

	first, err := ec.SandboxState(context.Background(), factory)
	require.NoError(t, err)
	second, err := ec.SandboxState(context.Background(), factory)
	require.NoError(t, err)
	assert.Same(t, first, second, "one snapshot per evaluation")
}

func TestStateFactoryBuild(t *testing.T) {
	factory := NewStateFactory(
		mock.NewPositionService(
			checkPosition(market.SideLong, 29000, "1"),
			checkPosition(market.SideShort, 30000, "2"),
		),
		&mock.AccountService{Free: decimal.NewFromInt(1234)},
	)

	state, err := factory.Build(context.Background(), checkTicker(29500))
	require.NoError(t, err)

	assert.True(t, state.FreeBalance().Equal(decimal.NewFromInt(1234)))
	assert.True(t, state.LastPrice().Equal(checkTicker(29500).LastPrice))
	require.NotNil(t, state.Position(market.SideLong))
	require.NotNil(t, state.Position(market.SideShort))
	assert.Len(t, state.Positions(), 2)
}
