package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "risk_guard/pkg/errors"
)

func TestNewPrice(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		precision int32
		want      string
		wantErr   bool
	}{
		{name: "rounds to precision", value: "30000.456", precision: 2, want: "30000.46"},
		{name: "whole precision", value: "29999.9", precision: 0, want: "30000"},
		{name: "zero rejected", value: "0", precision: 2, wantErr: true},
		{name: "negative rejected", value: "-1", precision: 2, wantErr: true},
		{name: "rounds down to zero rejected", value: "0.001", precision: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPrice(decimal.RequireFromString(tt.value), tt.precision)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrInvalidPrice))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.String())
		})
	}
}

func TestPriceArithmetic(t *testing.T) {
	p := MustPrice(30000, 2)

	up, err := p.Add(decimal.RequireFromString("42.756"))
	require.NoError(t, err)
	assert.Equal(t, "30042.76", up.String())

	down, err := p.Sub(decimal.RequireFromString("500"))
	require.NoError(t, err)
	assert.Equal(t, "29500.00", down.String())

	_, err = p.Sub(decimal.RequireFromString("30000"))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidPrice))
}

func TestPriceDifference(t *testing.T) {
	a := MustPrice(30000, 2)
	b := MustPrice(25000, 2)

	assert.True(t, a.Difference(b).Equal(decimal.NewFromInt(5000)))
	assert.True(t, b.Difference(a).Equal(decimal.NewFromInt(5000)), "difference is symmetric")
}

func TestPriceComparisons(t *testing.T) {
	lo := MustPrice(100, 2)
	hi := MustPrice(200, 2)

	assert.True(t, lo.LessThan(hi))
	assert.True(t, hi.GreaterThan(lo))
	assert.False(t, lo.Equal(hi))
	assert.True(t, lo.Equal(MustPrice(100.001, 2)), "equality after tick rounding")
}

func TestPriceZeroValue(t *testing.T) {
	var p Price
	assert.True(t, p.IsZero())
	assert.False(t, MustPrice(1, 0).IsZero())
}
