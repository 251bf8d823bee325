// Package settings resolves risk parameters keyed by symbol and side with
// fallback to symbol-less defaults.
package settings

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"risk_guard/internal/core"
	"risk_guard/internal/market"
	apperrors "risk_guard/pkg/errors"
	"risk_guard/pkg/pricing"
	"risk_guard/pkg/telemetry"
)

// Source is a raw key-value backend. Lookup returns the stored string for an
// exact (symbol, side, key) scope; absence is reported via the bool, never an
// error.
type Source interface {
	Lookup(symbol string, side market.Side, key core.SettingKey) (string, bool, error)
}

// Provider implements core.ISettingsProvider over a Source. Resolution walks
// the scopes from most to least specific: (symbol, side), (symbol, any),
// (any, side), (any, any). A required setting absent from every scope is a
// hard failure.
type Provider struct {
	source  Source
	name    string
	metrics *telemetry.MetricsHolder
}

// NewProvider wraps a source. The name tags settings-lookup metrics.
func NewProvider(source Source, name string) *Provider {
	return &Provider{
		source:  source,
		name:    name,
		metrics: telemetry.GetGlobalMetrics(),
	}
}

func (p *Provider) resolve(symbol string, side market.Side, key core.SettingKey) (string, bool, error) {
	type scope struct {
		symbol string
		side   market.Side
	}
	for _, sc := range []scope{
		{symbol, side},
		{symbol, ""},
		{"", side},
		{"", ""},
	} {
		value, ok, err := p.source.Lookup(sc.symbol, sc.side, key)
		if err != nil {
			return "", false, err
		}
		if ok {
			p.metrics.RecordSettingsLookup(context.Background(), p.name)
			return value, true, nil
		}
	}
	return "", false, nil
}

func (p *Provider) require(symbol string, side market.Side, key core.SettingKey) (string, error) {
	value, ok, err := p.resolve(symbol, side, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s for %s/%s", apperrors.ErrSettingNotFound, key, symbol, side)
	}
	return value, nil
}

// Decimal resolves key as a required decimal.
func (p *Provider) Decimal(symbol string, side market.Side, key core.SettingKey) (decimal.Decimal, error) {
	raw, err := p.require(symbol, side, key)
	if err != nil {
		return decimal.Zero, err
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("setting %s is not a decimal: %w", key, err)
	}
	return value, nil
}

// OptionalDecimal resolves key as a decimal, reporting absence via the bool.
func (p *Provider) OptionalDecimal(symbol string, side market.Side, key core.SettingKey) (decimal.Decimal, bool, error) {
	raw, ok, err := p.resolve(symbol, side, key)
	if err != nil || !ok {
		return decimal.Zero, false, err
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("setting %s is not a decimal: %w", key, err)
	}
	return value, true, nil
}

// Percent resolves key as a required strict percent in [0, 100].
func (p *Provider) Percent(symbol string, side market.Side, key core.SettingKey) (pricing.Percent, error) {
	value, err := p.Decimal(symbol, side, key)
	if err != nil {
		return pricing.Percent{}, err
	}
	percent, err := pricing.NewPercent(value)
	if err != nil {
		return pricing.Percent{}, fmt.Errorf("setting %s: %w", key, err)
	}
	return percent, nil
}

// Bool resolves key as a required boolean.
func (p *Provider) Bool(symbol string, side market.Side, key core.SettingKey) (bool, error) {
	raw, err := p.require(symbol, side, key)
	if err != nil {
		return false, err
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("setting %s is not a boolean: %w", key, err)
	}
	return value, nil
}

// String resolves key as a required raw string.
func (p *Provider) String(symbol string, side market.Side, key core.SettingKey) (string, error) {
	return p.require(symbol, side, key)
}
