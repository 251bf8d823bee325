package risk

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"risk_guard/internal/core"
	"risk_guard/internal/market"
	"risk_guard/internal/settings"
	"risk_guard/pkg/pricing"
)

func paramSettings(overrides map[core.SettingKey]string) core.ISettingsProvider {
	values := map[core.SettingKey]string{
		core.SettingWarningPnlDistance:                        "100",
		core.SettingCriticalPartOfLiquidationDistance:         "30",
		core.SettingPercentOfLiquidationDistanceToAddStop:     "70",
		core.SettingPercentOfLiquidationDistanceForStopsRange: "10",
		core.SettingStopsRangePnlPercent:                      "3",
		core.SettingAcceptableStoppedPart:                     "30",
		core.SettingAcceptableStoppedPartDivider:              "2",
	}
	for k, v := range overrides {
		values[k] = v
	}
	entries := make([]settings.Entry, 0, len(values))
	for k, v := range values {
		entries = append(entries, settings.Entry{Key: k, Value: v})
	}
	return settings.NewProvider(settings.NewStaticSource(entries), "test")
}

func paramPosition(side market.Side, entry, liq float64, size string) *market.Position {
	p := &market.Position{
		Side:       side,
		Symbol:     market.Symbol{Name: "BTCUSDT", PricePrecision: 2, QuoteCoin: "USDT"},
		EntryPrice: pricing.MustPrice(entry, 2),
		Size:       decimal.RequireFromString(size),
		Leverage:   decimal.NewFromInt(10),
		OpenedAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	if liq > 0 {
		p.LiquidationPrice = pricing.MustPrice(liq, 2)
	}
	p.Value = p.Size.Mul(p.EntryPrice.Decimal())
	p.InitialMargin = p.Value.Div(p.Leverage)
	return p
}

func paramTicker(p *market.Position, mark float64) market.Ticker {
	price := pricing.MustPrice(mark, 2)
	return market.Ticker{Symbol: p.Symbol, MarkPrice: price, IndexPrice: price, LastPrice: price}
}

func TestNewDynamicParamsRejections(t *testing.T) {
	provider := paramSettings(nil)
	pos := paramPosition(market.SideShort, 30000, 25000, "1")

	_, err := NewDynamicParams(nil, paramTicker(pos, 29000), provider)
	assert.Error(t, err)

	foreign := paramTicker(pos, 29000)
	foreign.Symbol.Name = "ETHUSDT"
	_, err = NewDynamicParams(pos, foreign, provider)
	assert.Error(t, err)

	noLiq := paramPosition(market.SideShort, 30000, 25000, "1")
	noLiq.LiquidationPrice = pricing.Price{}
	_, err = NewDynamicParams(noLiq, paramTicker(pos, 29000), provider)
	assert.Error(t, err)
}

func TestNormalScenario(t *testing.T) {
	provider := paramSettings(nil)

	long := paramPosition(market.SideLong, 30000, 25000, "1")
	p, err := NewDynamicParams(long, paramTicker(long, 29000), provider)
	require.NoError(t, err)
	assert.True(t, p.NormalScenario(), "long liquidates below entry")

	short := paramPosition(market.SideShort, 30000, 25000, "1")
	p, err = NewDynamicParams(short, paramTicker(short, 29000), provider)
	require.NoError(t, err)
	assert.False(t, p.NormalScenario(), "short with liquidation below entry is in trouble")
}

func TestAdditionalStopPriceAndRange(t *testing.T) {
	provider := paramSettings(nil)
	pos := paramPosition(market.SideShort, 30000, 25000, "1")
	p, err := NewDynamicParams(pos, paramTicker(pos, 29000), provider)
	require.NoError(t, err)

	assert.True(t, p.LiquidationDistance().Equal(decimal.NewFromInt(5000)))
	assert.True(t, p.TickerLiquidationDistance().Equal(decimal.NewFromInt(4000)))

	warning, err := p.WarningDistance()
	require.NoError(t, err)
	assert.True(t, warning.Equal(decimal.NewFromInt(2900)), "100%% pnl at mark 29000 over 10x")

	stop, err := p.AdditionalStopPrice()
	require.NoError(t, err)
	assert.True(t, stop.Equal(pricing.MustPrice(28500, 2)), "liquidation plus 70%% of the distance")

	rng, err := p.ActualStopsRange()
	require.NoError(t, err)
	assert.True(t, rng.From().Equal(pricing.MustPrice(28457.25, 2)), "got %s", rng.From())
	assert.True(t, rng.To().Equal(pricing.MustPrice(28542.75, 2)), "got %s", rng.To())
	assert.True(t, rng.Contains(stop), "proposed stop sits inside its own range")
}

func TestWarningDistanceFloorInNormalScenario(t *testing.T) {
	provider := paramSettings(map[core.SettingKey]string{
		core.SettingWarningPnlDistance: "0.1",
	})
	pos := paramPosition(market.SideLong, 30000, 25000, "1")
	p, err := NewDynamicParams(pos, paramTicker(pos, 29000), provider)
	require.NoError(t, err)

	warning, err := p.WarningDistance()
	require.NoError(t, err)
	assert.True(t, warning.Equal(decimal.NewFromInt(1500)), "floored at 30%% of the liquidation distance, got %s", warning)
}

func TestAdditionalStopDistanceTickerCap(t *testing.T) {
	provider := paramSettings(nil)
	pos := paramPosition(market.SideLong, 30000, 25000, "1")
	p, err := NewDynamicParams(pos, paramTicker(pos, 25800), provider)
	require.NoError(t, err)

	uncapped, err := p.AdditionalStopDistance(false)
	require.NoError(t, err)
	assert.True(t, uncapped.Equal(decimal.NewFromInt(3500)))

	// Mark is already inside the critical range, so the distance collapses to
	// its boundary instead of the ticker.
	capped, err := p.AdditionalStopDistance(true)
	require.NoError(t, err)
	assert.True(t, capped.Equal(decimal.NewFromInt(1500)), "got %s", capped)

	stop, err := p.AdditionalStopPrice()
	require.NoError(t, err)
	assert.True(t, stop.Equal(pricing.MustPrice(26500, 2)))
}

func TestActualStopsRangeMarkInsideCritical(t *testing.T) {
	provider := paramSettings(nil)

	// Long with the mark already inside the critical range: the stop is
	// pinned at the critical boundary, the edge clamps cannot both hold, and
	// the window brackets the pinned stop instead.
	long := paramPosition(market.SideLong, 30000, 25000, "1")
	p, err := NewDynamicParams(long, paramTicker(long, 25800), provider)
	require.NoError(t, err)

	stop, err := p.AdditionalStopPrice()
	require.NoError(t, err)
	require.True(t, stop.Equal(pricing.MustPrice(26500, 2)))

	stops, err := p.ActualStopsRange()
	require.NoError(t, err)
	assert.True(t, stops.From().Equal(pricing.MustPrice(26460.25, 2)), "got %s", stops)
	assert.True(t, stops.To().Equal(pricing.MustPrice(26539.75, 2)), "got %s", stops)
	assert.True(t, stops.Contains(stop))

	// Short mirror with the mark inside the critical range.
	short := paramPosition(market.SideShort, 25000, 30000, "1")
	p, err = NewDynamicParams(short, paramTicker(short, 29200), provider)
	require.NoError(t, err)

	stop, err = p.AdditionalStopPrice()
	require.NoError(t, err)
	require.True(t, stop.Equal(pricing.MustPrice(28500, 2)))

	stops, err = p.ActualStopsRange()
	require.NoError(t, err)
	assert.True(t, stops.From().Equal(pricing.MustPrice(28457.25, 2)), "got %s", stops)
	assert.True(t, stops.To().Equal(pricing.MustPrice(28542.75, 2)), "got %s", stops)
	assert.True(t, stops.Contains(stop))
}

func TestActualStopsRangeMarkAtStop(t *testing.T) {
	// Mark just outside the critical range caps the stop at the mark itself.
	// Clamping the far edge down to the mark would squeeze the stop out of
	// the half-open window, so the window keeps its derived edges.
	pos := paramPosition(market.SideLong, 30000, 25000, "1")
	p, err := NewDynamicParams(pos, paramTicker(pos, 26600), paramSettings(nil))
	require.NoError(t, err)

	stop, err := p.AdditionalStopPrice()
	require.NoError(t, err)
	require.True(t, stop.Equal(pricing.MustPrice(26600, 2)))

	stops, err := p.ActualStopsRange()
	require.NoError(t, err)
	assert.True(t, stops.From().Equal(pricing.MustPrice(26560.10, 2)), "got %s", stops)
	assert.True(t, stops.To().Equal(pricing.MustPrice(26639.90, 2)), "got %s", stops)
	assert.True(t, stops.Contains(stop))
}

func TestCheckStopsOnDistance(t *testing.T) {
	pos := paramPosition(market.SideShort, 30000, 25000, "1")

	p, err := NewDynamicParams(pos, paramTicker(pos, 29000), paramSettings(nil))
	require.NoError(t, err)
	derived, err := p.CheckStopsOnDistance()
	require.NoError(t, err)
	assert.True(t, derived.Equal(decimal.NewFromInt(5250)), "1.5x the uncapped stop distance, got %s", derived)

	p, err = NewDynamicParams(pos, paramTicker(pos, 29000), paramSettings(map[core.SettingKey]string{
		core.SettingCheckStopsOnDistance: "1234",
	}))
	require.NoError(t, err)
	override, err := p.CheckStopsOnDistance()
	require.NoError(t, err)
	assert.True(t, override.Equal(decimal.NewFromInt(1234)))
}

func TestCriticalRange(t *testing.T) {
	provider := paramSettings(nil)
	pos := paramPosition(market.SideShort, 30000, 25000, "1")
	p, err := NewDynamicParams(pos, paramTicker(pos, 29000), provider)
	require.NoError(t, err)

	rng, err := p.CriticalRange()
	require.NoError(t, err)
	assert.True(t, rng.From().Equal(pos.LiquidationPrice))
	assert.True(t, rng.To().Equal(pricing.MustPrice(26500, 2)))
}

func TestAcceptableStoppedPart(t *testing.T) {
	provider := paramSettings(nil)

	t.Run("flat floor when liquidation is far", func(t *testing.T) {
		pos := paramPosition(market.SideShort, 30000, 25000, "1")
		p, err := NewDynamicParams(pos, paramTicker(pos, 29000), provider)
		require.NoError(t, err)

		part, err := p.AcceptableStoppedPart()
		require.NoError(t, err)
		assert.True(t, part.Decimal().Equal(decimal.NewFromInt(30)))
	})

	t.Run("grows as the mark approaches liquidation", func(t *testing.T) {
		pos := paramPosition(market.SideShort, 30000, 25000, "1")
		prev := decimal.NewFromInt(30)
		for _, mark := range []float64{26000, 25500, 25200} {
			p, err := NewDynamicParams(pos, paramTicker(pos, mark), provider)
			require.NoError(t, err)

			part, err := p.AcceptableStoppedPart()
			require.NoError(t, err)
			assert.True(t, part.Decimal().GreaterThanOrEqual(prev),
				"mark %v: part %s below previous %s", mark, part.Decimal(), prev)
			assert.True(t, part.Decimal().LessThanOrEqual(decimal.NewFromInt(100)))
			prev = part.Decimal()
		}
	})

	t.Run("in-loss branch scales against the liquidation distance", func(t *testing.T) {
		pos := paramPosition(market.SideLong, 30000, 25000, "1")
		p, err := NewDynamicParams(pos, paramTicker(pos, 26000), provider)
		require.NoError(t, err)

		part, err := p.AcceptableStoppedPart()
		require.NoError(t, err)
		assert.True(t, part.Decimal().Equal(decimal.NewFromInt(40)), "got %s", part.Decimal())
	})
}
