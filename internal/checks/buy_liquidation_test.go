package checks

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"risk_guard/internal/core"
	"risk_guard/internal/market"
	"risk_guard/internal/mock"
	"risk_guard/pkg/pricing"
)

func buyLiquidationFixture(liq float64, positions ...*market.Position) (*BuyLiquidationCheck, *Context) {
	factory := NewStateFactory(
		mock.NewPositionService(positions...),
		&mock.AccountService{Free: decimal.NewFromInt(10000)},
	)
	estimator := &mock.Estimator{}
	if liq > 0 {
		estimator.Fixed = pricing.MustPrice(liq, 2)
	}
	check := NewBuyLiquidationCheck(factory, estimator,
		&mock.CostCalculator{BuyCost: decimal.NewFromInt(100)}, checkSettings(nil), &mock.Logger{})
	return check, NewContext(checkTicker(29000))
}

func TestBuyLiquidationSupports(t *testing.T) {
	check, ec := buyLiquidationFixture(33999)

	supports, err := check.Supports(context.Background(), checkOrder(core.OrderKindBuy, market.SideShort, 29000, "1"), ec)
	require.NoError(t, err)
	assert.True(t, supports)

	supports, err = check.Supports(context.Background(), checkOrder(core.OrderKindStop, market.SideShort, 29000, "1"), ec)
	require.NoError(t, err)
	assert.False(t, supports, "stops are not this check's concern")
}

func TestBuyLiquidationVetoesCloseLiquidation(t *testing.T) {
	short := checkPosition(market.SideShort, 30000, "1")
	check, ec := buyLiquidationFixture(33999, short)
	order := checkOrder(core.OrderKindBuy, market.SideShort, 29000, "1")

	result, err := check.Check(context.Background(), order, ec)
	require.NoError(t, err)

	assert.False(t, result.Ok)
	assert.Equal(t, FailureFurtherPositionLiquidationAfterBuyIsTooClose, result.Kind)
	assert.True(t, result.Delta.Equal(decimal.NewFromInt(4999)), "4999 from mark misses the 5000 floor, got %s", result.Delta)
	assert.True(t, result.SafeDistance.Equal(decimal.NewFromInt(5000)))
}

func TestBuyLiquidationPassesAtSafeDistance(t *testing.T) {
	short := checkPosition(market.SideShort, 30000, "1")
	check, ec := buyLiquidationFixture(34001, short)
	order := checkOrder(core.OrderKindBuy, market.SideShort, 29000, "1")

	result, err := check.Check(context.Background(), order, ec)
	require.NoError(t, err)
	assert.True(t, result.Ok)
}

func TestBuyLiquidationForceSkips(t *testing.T) {
	short := checkPosition(market.SideShort, 30000, "1")
	check, ec := buyLiquidationFixture(33999, short)
	order := checkOrder(core.OrderKindBuy, market.SideShort, 29000, "1")
	order.Force = true

	result, err := check.Check(context.Background(), order, ec)
	require.NoError(t, err)
	assert.True(t, result.Ok)
}

func TestBuyLiquidationNoRiskAfterBuy(t *testing.T) {
	check, ec := buyLiquidationFixture(0)
	order := checkOrder(core.OrderKindBuy, market.SideLong, 29000, "1")

	result, err := check.Check(context.Background(), order, ec)
	require.NoError(t, err)
	assert.True(t, result.Ok, "estimator reports no liquidation price on the valid domain")
}

func TestBuyLiquidationIsIdempotent(t *testing.T) {
	short := checkPosition(market.SideShort, 30000, "1")
	check, ec := buyLiquidationFixture(33999, short)
	order := checkOrder(core.OrderKindBuy, market.SideShort, 29000, "1")

	first, err := check.Check(context.Background(), order, ec)
	require.NoError(t, err)
	second, err := check.Check(context.Background(), order, ec)
	require.NoError(t, err)

	assert.Equal(t, first, second, "simulation runs on a clone, never on the cached snapshot")
}
