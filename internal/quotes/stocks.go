package quotes

import (
	"context"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/trogers1052/portfolio-valuation/internal/models"
)

// StockClient prices equities with one Yahoo Finance quote request per batch
type StockClient struct {
	c *httpClient
}

// NewStockClient creates a new equity quote client
func NewStockClient(baseURL string, opts ...ClientOption) *StockClient {
	return &StockClient{c: newHTTPClient(baseURL, opts...)}
}

type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol                     string          `json:"symbol"`
			RegularMarketPrice         decimal.Decimal `json:"regularMarketPrice"`
			RegularMarketChange        decimal.Decimal `json:"regularMarketChange"`
			RegularMarketChangePercent decimal.Decimal `json:"regularMarketChangePercent"`
		} `json:"result"`
	} `json:"quoteResponse"`
}

// GetPrices implements Source
func (s *StockClient) GetPrices(ctx context.Context, symbols []string, _ models.AssetClass) (Prices, error) {
	symbols = Dedupe(symbols)
	if len(symbols) == 0 {
		return Prices{}, nil
	}

	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))

	var payload yahooQuoteResponse
	if err := s.c.getJSON(ctx, "/v7/finance/quote", params, &payload); err != nil {
		return nil, err
	}

	requested := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		requested[sym] = struct{}{}
	}

	prices := make(Prices, len(payload.QuoteResponse.Result))
	for _, r := range payload.QuoteResponse.Result {
		sym := Normalize(r.Symbol)
		if _, ok := requested[sym]; !ok {
			continue
		}
		// suspended or delisted tickers come back with no price
		if !r.RegularMarketPrice.IsPositive() {
			continue
		}
		prices[sym] = models.Quote{
			Symbol:        sym,
			Last:          r.RegularMarketPrice,
			Change:        r.RegularMarketChange,
			ChangePercent: r.RegularMarketChangePercent,
		}
	}
	return prices, nil
}

var _ Source = (*StockClient)(nil)
