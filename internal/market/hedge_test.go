package market

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"risk_guard/pkg/pricing"
)

func hedgeLeg(side Side, entry float64, size string, openedAt time.Time) *Position {
	p := &Position{
		Side:       side,
		Symbol:     btcSymbol(),
		EntryPrice: pricing.MustPrice(entry, 2),
		Size:       decimal.RequireFromString(size),
		Leverage:   decimal.NewFromInt(10),
		OpenedAt:   openedAt,
	}
	p.Value = p.Size.Mul(p.EntryPrice.Decimal())
	return p
}

func TestNewHedgeRoleResolution(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	t.Run("explicit support flag wins", func(t *testing.T) {
		big := hedgeLeg(SideShort, 30000, "4", t0)
		small := hedgeLeg(SideLong, 29000, "1", t1)
		big.Support = true

		h, err := NewHedge(big, small)
		require.NoError(t, err)
		assert.Equal(t, small, h.MainPosition(), "flag overrides notional ordering")
		assert.Equal(t, big, h.SupportPosition())
	})

	t.Run("larger notional is main", func(t *testing.T) {
		big := hedgeLeg(SideShort, 30000, "2", t1)
		small := hedgeLeg(SideLong, 30000, "1", t0)

		h, err := NewHedge(small, big)
		require.NoError(t, err)
		assert.Equal(t, big, h.MainPosition())
	})

	t.Run("equal notionals fall back to age", func(t *testing.T) {
		older := hedgeLeg(SideShort, 30000, "1", t0)
		newer := hedgeLeg(SideLong, 30000, "1", t1)

		h, err := NewHedge(newer, older)
		require.NoError(t, err)
		assert.Equal(t, older, h.MainPosition())
		assert.Equal(t, newer, h.SupportPosition())
	})
}

func TestNewHedgeRejectsBadPairs(t *testing.T) {
	t0 := time.Now()
	short := hedgeLeg(SideShort, 30000, "1", t0)

	_, err := NewHedge(short, nil)
	assert.Error(t, err)

	otherShort := hedgeLeg(SideShort, 29000, "1", t0)
	_, err = NewHedge(short, otherShort)
	assert.Error(t, err, "same-side pair is not a hedge")

	foreign := hedgeLeg(SideLong, 30000, "1", t0)
	foreign.Symbol.Name = "ETHUSDT"
	_, err = NewHedge(short, foreign)
	assert.Error(t, err)
}

func TestHedgeCoverage(t *testing.T) {
	t0 := time.Now()
	main := hedgeLeg(SideShort, 30000, "3", t0)
	support := hedgeLeg(SideLong, 29500, "1", t0.Add(time.Minute))

	h, err := NewHedge(main, support)
	require.NoError(t, err)

	assert.False(t, h.IsEquivalent())
	assert.True(t, h.NotCoveredSize().Equal(decimal.NewFromInt(2)))

	full, err := NewHedge(main, support.WithSize(decimal.NewFromInt(3)))
	require.NoError(t, err)
	assert.True(t, full.IsEquivalent())
	assert.True(t, full.NotCoveredSize().IsZero())
}
