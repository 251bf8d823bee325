package market

import (
	"github.com/shopspring/decimal"
)

// Symbol is immutable exchange instrument metadata, looked up once per
// evaluation and passed by value afterwards.
type Symbol struct {
	Name           string
	PricePrecision int32
	TickSize       decimal.Decimal
	MinOrderQty    decimal.Decimal
	MinNotional    decimal.Decimal
	QuoteCoin      string
	MinLeverage    decimal.Decimal
	MaxLeverage    decimal.Decimal
}

// Equal reports whether two symbols refer to the same instrument.
func (s Symbol) Equal(other Symbol) bool {
	return s.Name == other.Name
}
