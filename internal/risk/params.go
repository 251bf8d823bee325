package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"risk_guard/internal/core"
	"risk_guard/internal/market"
	"risk_guard/pkg/pricing"
)

var (
	// Floor applied to the warning distance in the normal scenario so the
	// system does not react to noise while liquidation is still far away.
	warningDistanceFloorPart = decimal.RequireFromString("0.3")

	// CheckStopsOnDistance is this multiple of the additional stop distance
	// unless a setting overrides it.
	checkStopsDistanceMultiplier = decimal.RequireFromString("1.5")

	stopsRangeBoundLowerPart = decimal.RequireFromString("0.5")
)

// DynamicParams translates settings and live market data into the risk
// thresholds for one position: when to warn, where a protective stop belongs,
// and how much protective volume should already exist.
type DynamicParams struct {
	position *market.Position
	ticker   market.Ticker
	settings core.ISettingsProvider
}

// NewDynamicParams builds the parameter engine for one position. The
// position must carry a non-zero liquidation price; a support leg with no
// independent liquidation risk has no dynamic parameters.
func NewDynamicParams(position *market.Position, ticker market.Ticker, settings core.ISettingsProvider) (*DynamicParams, error) {
	if position == nil {
		return nil, fmt.Errorf("dynamic params require a position")
	}
	if !position.Symbol.Equal(ticker.Symbol) {
		return nil, fmt.Errorf("position %s and ticker %s refer to different symbols",
			position.Symbol.Name, ticker.Symbol.Name)
	}
	if position.LiquidationPrice.IsZero() {
		return nil, fmt.Errorf("position %s %s has no liquidation price", position.Symbol.Name, position.Side)
	}
	return &DynamicParams{position: position, ticker: ticker, settings: settings}, nil
}

// LiquidationDistance is the full entry-to-liquidation price distance.
func (p *DynamicParams) LiquidationDistance() decimal.Decimal {
	return p.position.EntryPrice.Difference(p.position.LiquidationPrice)
}

// NormalScenario reports whether liquidation sits on the loss side of entry.
// When it instead sits between entry and the safe side the position is in the
// bad scenario and the warning floor must not apply.
func (p *DynamicParams) NormalScenario() bool {
	if p.position.IsLong() {
		return p.position.LiquidationPrice.LessThan(p.position.EntryPrice)
	}
	return p.position.LiquidationPrice.GreaterThan(p.position.EntryPrice)
}

// TickerLiquidationDistance is the current mark-to-liquidation distance.
func (p *DynamicParams) TickerLiquidationDistance() decimal.Decimal {
	return p.ticker.MarkPrice.Difference(p.position.LiquidationPrice)
}

// WarningDistance is the PnL-equivalent price delta at which the position
// needs attention, floored at 30% of the full liquidation distance in the
// normal scenario.
func (p *DynamicParams) WarningDistance() (decimal.Decimal, error) {
	warnPnl, err := p.percent(core.SettingWarningPnlDistance)
	if err != nil {
		return decimal.Zero, err
	}
	delta := AbsoluteDeltaForPnl(warnPnl, p.ticker.MarkPrice, p.position.Leverage)
	if p.NormalScenario() {
		floor := warningDistanceFloorPart.Mul(p.LiquidationDistance())
		if delta.LessThan(floor) {
			delta = floor
		}
	}
	return delta, nil
}

// AdditionalStopDistance is how far from liquidation a new protective stop
// belongs: a setting-driven share of the liquidation distance, floored at the
// warning distance. With minWithTicker the distance is capped so the proposed
// stop never ends up beyond the liquidation price itself.
func (p *DynamicParams) AdditionalStopDistance(minWithTicker bool) (decimal.Decimal, error) {
	part, err := p.percent(core.SettingPercentOfLiquidationDistanceToAddStop)
	if err != nil {
		return decimal.Zero, err
	}
	distance := part.Of(p.LiquidationDistance())

	warning, err := p.WarningDistance()
	if err != nil {
		return decimal.Zero, err
	}
	if distance.LessThan(warning) {
		distance = warning
	}

	if minWithTicker {
		tickerDistance := p.TickerLiquidationDistance()
		critical, err := p.CriticalDistance()
		if err != nil {
			return decimal.Zero, err
		}
		// Cap at the boundary of whichever range the ticker currently
		// occupies: the ticker itself while it is outside the critical range,
		// the critical boundary once it is inside.
		limit := tickerDistance
		if tickerDistance.LessThan(critical) {
			limit = critical
		}
		if distance.GreaterThan(limit) {
			distance = limit
		}
	}
	return distance, nil
}

// AdditionalStopPrice is the liquidation price moved toward entry by the
// ticker-capped additional stop distance.
func (p *DynamicParams) AdditionalStopPrice() (pricing.Price, error) {
	distance, err := p.AdditionalStopDistance(true)
	if err != nil {
		return pricing.Price{}, err
	}
	if p.position.EntryPrice.GreaterThan(p.position.LiquidationPrice) {
		return p.position.LiquidationPrice.Add(distance)
	}
	return p.position.LiquidationPrice.Sub(distance)
}

// CheckStopsOnDistance is the mark-to-liquidation distance at which the
// system starts auditing whether enough protective volume already exists.
func (p *DynamicParams) CheckStopsOnDistance() (decimal.Decimal, error) {
	override, ok, err := p.optionalDecimal(core.SettingCheckStopsOnDistance)
	if err != nil {
		return decimal.Zero, err
	}
	if ok {
		return override, nil
	}
	distance, err := p.AdditionalStopDistance(false)
	if err != nil {
		return decimal.Zero, err
	}
	return distance.Mul(checkStopsDistanceMultiplier), nil
}

// CriticalDistance is the tighter, setting-driven distance from liquidation
// below which no trading decision may operate without explicit justification.
func (p *DynamicParams) CriticalDistance() (decimal.Decimal, error) {
	part, err := p.percent(core.SettingCriticalPartOfLiquidationDistance)
	if err != nil {
		return decimal.Zero, err
	}
	return part.Of(p.LiquidationDistance()), nil
}

// CriticalRange is the price window spanning the critical distance from the
// liquidation price toward entry.
func (p *DynamicParams) CriticalRange() (pricing.PriceRange, error) {
	critical, err := p.CriticalDistance()
	if err != nil {
		return pricing.PriceRange{}, err
	}
	liq := p.position.LiquidationPrice
	if p.position.EntryPrice.GreaterThan(liq) {
		to, err := liq.Add(critical)
		if err != nil {
			return pricing.PriceRange{}, err
		}
		return pricing.NewPriceRange(p.position.Symbol.Name, liq, to)
	}
	from, err := liq.Sub(critical)
	if err != nil {
		return pricing.PriceRange{}, err
	}
	return pricing.NewPriceRange(p.position.Symbol.Name, from, liq)
}

// ActualStopsRange is the price window around AdditionalStopPrice inside
// which existing protective stops count as placed correctly. The candidate
// width is a share of the liquidation distance, clamped to 50-100% of the
// PnL-based bound; the edge nearer liquidation stays out of the critical
// range and the opposite edge stays behind the current mark price, as long
// as both edges can hold at once. Once the mark is at or inside the critical
// range the stop is pinned at the critical boundary and those clamps cross;
// the window then simply brackets the capped stop, so the stop price is
// inside the range in every scenario.
func (p *DynamicParams) ActualStopsRange() (pricing.PriceRange, error) {
	center, err := p.AdditionalStopPrice()
	if err != nil {
		return pricing.PriceRange{}, err
	}

	widthPart, err := p.percent(core.SettingPercentOfLiquidationDistanceForStopsRange)
	if err != nil {
		return pricing.PriceRange{}, err
	}
	candidate := widthPart.Of(p.LiquidationDistance())

	boundPnl, err := p.percent(core.SettingStopsRangePnlPercent)
	if err != nil {
		return pricing.PriceRange{}, err
	}
	bound := AbsoluteDeltaForPnl(boundPnl, center, p.position.Leverage)

	width := candidate
	if upper := bound; width.GreaterThan(upper) {
		width = upper
	}
	if lower := bound.Mul(stopsRangeBoundLowerPart); width.LessThan(lower) {
		width = lower
	}

	half := width.Div(decimal.NewFromInt(2))
	if center.Decimal().Sub(half).LessThanOrEqual(decimal.Zero) {
		// Degenerate input: the window would cross zero. Re-derive it around
		// the same center from the unclamped candidate and the full PnL
		// bound.
		width = decimal.Min(candidate, bound)
		half = width.Div(decimal.NewFromInt(2))
	}

	from, err := center.Sub(half)
	if err != nil {
		return pricing.PriceRange{}, err
	}
	to, err := center.Add(half)
	if err != nil {
		return pricing.PriceRange{}, err
	}

	critical, err := p.CriticalRange()
	if err != nil {
		return pricing.PriceRange{}, err
	}
	mark := p.ticker.MarkPrice
	clampedFrom, clampedTo := from, to
	if p.position.EntryPrice.GreaterThan(p.position.LiquidationPrice) {
		// Window sits above liquidation: lower edge stays out of the
		// critical range, upper edge stays below the mark price.
		if clampedFrom.LessThan(critical.To()) {
			clampedFrom = critical.To()
		}
		if clampedTo.GreaterThan(mark) {
			clampedTo = mark
		}
	} else {
		if clampedTo.GreaterThan(critical.From()) {
			clampedTo = critical.From()
		}
		if clampedFrom.LessThan(mark) {
			clampedFrom = mark
		}
	}
	// A mark at or inside the critical range pins the stop at the critical
	// boundary and makes the clamps cross, or squeeze the stop out of the
	// half-open window. Keep the clamps only while the stop stays inside.
	if clampedFrom.LessThan(clampedTo) && !center.LessThan(clampedFrom) && center.LessThan(clampedTo) {
		from, to = clampedFrom, clampedTo
	}

	return pricing.NewPriceRange(p.position.Symbol.Name, from, to)
}

// AcceptableStoppedPart is the share of position size that should already be
// covered by protective stops. It grows as liquidation nears: the in-loss
// branch scales against the liquidation distance, the approaching branch
// against the warning distance, and the flat setting is the floor everywhere.
func (p *DynamicParams) AcceptableStoppedPart() (pricing.Percent, error) {
	flat, err := p.percent(core.SettingAcceptableStoppedPart)
	if err != nil {
		return pricing.Percent{}, err
	}
	divider, err := p.settings.Decimal(p.position.Symbol.Name, p.position.Side, core.SettingAcceptableStoppedPartDivider)
	if err != nil {
		return pricing.Percent{}, err
	}
	if divider.LessThanOrEqual(decimal.Zero) {
		divider = decimal.NewFromInt(1)
	}

	warning, err := p.WarningDistance()
	if err != nil {
		return pricing.Percent{}, err
	}
	tickerDistance := p.TickerLiquidationDistance()

	var part decimal.Decimal
	switch {
	case p.position.InLoss(p.ticker.MarkPrice):
		remaining := decimal.Min(tickerDistance.Div(p.LiquidationDistance()).Mul(oneHundred), oneHundred)
		modifier := decimal.NewFromInt(1)
		if tickerDistance.IsPositive() {
			modifier = decimal.Min(warning.Div(tickerDistance), modifier)
		}
		part = oneHundred.Sub(remaining).Div(divider).Mul(modifier)
	case warning.IsPositive() && tickerDistance.LessThan(warning):
		covered := tickerDistance.Div(warning).Mul(oneHundred)
		part = oneHundred.Sub(covered).Div(divider)
	default:
		return flat, nil
	}

	if part.LessThan(flat.Decimal()) {
		return flat, nil
	}
	return pricing.NewPercent(decimal.Min(part, oneHundred))
}

func (p *DynamicParams) percent(key core.SettingKey) (pricing.Percent, error) {
	return p.settings.Percent(p.position.Symbol.Name, p.position.Side, key)
}

func (p *DynamicParams) optionalDecimal(key core.SettingKey) (decimal.Decimal, bool, error) {
	return p.settings.OptionalDecimal(p.position.Symbol.Name, p.position.Side, key)
}
