package provider

import (
	"context"
	"fmt"
	"net/url"

	"metalspot-service/internal/application"
	"metalspot-service/internal/domain"
	"metalspot-service/internal/infrastructure/httpx"
)

const (
	stooqQuotePath = "/q/l/"
	stooqFields    = "sd2t2ohlcv"
)

// StooqSource fetches single-row CSV quotes from stooq.com or a compatible endpoint.
type StooqSource struct {
	BaseURL string
	Tickers map[domain.Symbol]string
	Client  *httpx.Client
}

var _ application.QuoteSource = (*StooqSource)(nil)

func (p *StooqSource) FetchRaw(ctx context.Context, sym domain.Symbol) (string, error) {
	ticker, ok := p.Tickers[sym]
	if !ok {
		return "", fmt.Errorf("stooq: %w: no ticker for %s", domain.ErrUpstreamUnavailable, sym)
	}

	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return "", fmt.Errorf("stooq: %w: invalid base url: %w", domain.ErrUpstreamUnavailable, err)
	}
	u.Path = stooqQuotePath
	u.RawQuery = "s=" + url.QueryEscape(ticker) + "&f=" + stooqFields + "&h&e=csv"

	client := p.Client
	if client == nil {
		client = &httpx.Client{}
	}
	body, err := client.GetText(ctx, u.String())
	if err != nil {
		return "", fmt.Errorf("stooq: %w: %w", domain.ErrUpstreamUnavailable, err)
	}
	return body, nil
}
