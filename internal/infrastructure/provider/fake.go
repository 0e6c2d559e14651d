package provider

import (
	"context"
	"fmt"
	"time"

	"metalspot-service/internal/application"
	"metalspot-service/internal/domain"
)

// Ensure Fake implements application.QuoteSource.
var _ application.QuoteSource = (*Fake)(nil)

// Fake answers with fixed prices in the upstream CSV layout.
type Fake struct {
	prices map[domain.Symbol]string
}

func NewFake(prices map[domain.Symbol]string) *Fake { return &Fake{prices: prices} }

func (f *Fake) FetchRaw(_ context.Context, sym domain.Symbol) (string, error) {
	price, ok := f.prices[sym]
	if !ok {
		return "", fmt.Errorf("fake: %w: no price for %s", domain.ErrUpstreamUnavailable, sym)
	}
	now := time.Now().UTC()
	return fmt.Sprintf("Symbol,Date,Time,Open,High,Low,Close,Volume\n%s,%s,%s,%s,%s,%s,%s,0\n",
		sym, now.Format("2006-01-02"), now.Format("15:04:05"), price, price, price, price), nil
}
