package checks

import (
	"time"

	"github.com/shopspring/decimal"

	"risk_guard/internal/core"
	"risk_guard/internal/market"
	"risk_guard/internal/settings"
	"risk_guard/pkg/pricing"
)

func checkSymbol() market.Symbol {
	return market.Symbol{
		Name:           "BTCUSDT",
		PricePrecision: 2,
		QuoteCoin:      "USDT",
		MinLeverage:    decimal.NewFromInt(1),
		MaxLeverage:    decimal.NewFromInt(10),
	}
}

func checkPosition(side market.Side, entry float64, size string) *market.Position {
	p := &market.Position{
		Side:       side,
		Symbol:     checkSymbol(),
		EntryPrice: pricing.MustPrice(entry, 2),
		Size:       decimal.RequireFromString(size),
		Leverage:   decimal.NewFromInt(10),
		OpenedAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	p.Value = p.Size.Mul(p.EntryPrice.Decimal())
	p.InitialMargin = p.Value.Div(p.Leverage)
	return p
}

func checkTicker(mark float64) market.Ticker {
	price := pricing.MustPrice(mark, 2)
	return market.Ticker{Symbol: checkSymbol(), MarkPrice: price, IndexPrice: price, LastPrice: price}
}

func checkOrder(kind core.OrderKind, side market.Side, price float64, volume string) core.Order {
	return core.Order{
		ID:     "order-1",
		Symbol: checkSymbol(),
		Side:   side,
		Kind:   kind,
		Price:  pricing.MustPrice(price, 2),
		Volume: decimal.RequireFromString(volume),
	}
}

func checkSettings(overrides map[core.SettingKey]string) core.ISettingsProvider {
	values := map[core.SettingKey]string{
		core.SettingSafeLiquidationDistance:  "5000",
		core.SettingLiquidationAssertionMode: "MODERATE",
		core.SettingMaxAveragePriceDeviation: "2",
		core.SettingRiskLevel:                "STANDARD",
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
