package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Quote struct {
	Symbol Symbol
	Price  decimal.Decimal
	AsOf   time.Time
}

// NewQuote rejects non-positive prices.
func NewQuote(sym Symbol, price decimal.Decimal, asOf time.Time) (Quote, error) {
	if !price.IsPositive() {
		return Quote{}, fmt.Errorf("%w: price %s is not positive", ErrMalformedUpstreamData, price.String())
	}
	return Quote{Symbol: sym, Price: price, AsOf: asOf}, nil
}
