package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"metalspot-service/internal/domain"
)

// SymbolFetcher performs exactly one upstream call per Fetch, under its own deadline.
type SymbolFetcher struct {
	source  QuoteSource
	timeout time.Duration
	clock   Clock
}

func NewSymbolFetcher(source QuoteSource, timeout time.Duration, clock Clock) *SymbolFetcher {
	if clock == nil {
		clock = realClock{}
	}
	return &SymbolFetcher{source: source, timeout: timeout, clock: clock}
}

func (f *SymbolFetcher) Fetch(ctx context.Context, sym domain.Symbol) (domain.Quote, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	start := time.Now()

	raw, err := f.source.FetchRaw(ctx, sym)
	if err != nil {
		if !errors.Is(err, domain.ErrUpstreamUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
		}
		observeFetch(sym, "unavailable", start)
		return domain.Quote{}, &domain.SymbolError{Symbol: sym, Err: err}
	}

	q, err := domain.ParseQuote(sym, raw, f.clock.Now())
	if err != nil {
		observeFetch(sym, "malformed", start)
		return domain.Quote{}, &domain.SymbolError{Symbol: sym, Err: err}
	}
	observeFetch(sym, "ok", start)
	return q, nil
}
