package quotes

import (
	"context"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/trogers1052/portfolio-valuation/internal/models"
)

// CryptoClient prices coins with one CoinGecko simple/price request per batch.
// CoinGecko reports only a 24h percentage change, never an absolute one.
type CryptoClient struct {
	c *httpClient
}

// NewCryptoClient creates a new crypto quote client. A non-empty apiKey is
// sent as the CoinGecko demo key header.
func NewCryptoClient(baseURL, apiKey string, opts ...ClientOption) *CryptoClient {
	opts = append([]ClientOption{WithHeader("x-cg-demo-api-key", apiKey)}, opts...)
	return &CryptoClient{c: newHTTPClient(baseURL, opts...)}
}

var coinGeckoIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"DOGE":  "dogecoin",
	"ADA":   "cardano",
	"XRP":   "ripple",
	"DOT":   "polkadot",
	"AVAX":  "avalanche-2",
	"MATIC": "matic-network",
	"LINK":  "chainlink",
	"LTC":   "litecoin",
	"USDC":  "usd-coin",
	"USDT":  "tether",
}

// coinID maps a ticker to its CoinGecko id. Unknown symbols are assumed to
// already be ids.
func coinID(symbol string) string {
	if id, ok := coinGeckoIDs[symbol]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

type coinGeckoPrice struct {
	USD       decimal.Decimal  `json:"usd"`
	USD24hChg *decimal.Decimal `json:"usd_24h_change"`
}

// GetPrices implements Source
func (s *CryptoClient) GetPrices(ctx context.Context, symbols []string, _ models.AssetClass) (Prices, error) {
	symbols = Dedupe(symbols)
	if len(symbols) == 0 {
		return Prices{}, nil
	}

	bySymbol := make(map[string]string, len(symbols))
	ids := make([]string, 0, len(symbols))
	seen := map[string]bool{}
	for _, sym := range symbols {
		id := coinID(sym)
		bySymbol[sym] = id
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", "usd")
	params.Set("include_24hr_change", "true")

	var payload map[string]coinGeckoPrice
	if err := s.c.getJSON(ctx, "/api/v3/simple/price", params, &payload); err != nil {
		return nil, err
	}

	prices := make(Prices, len(symbols))
	for _, sym := range symbols {
		p, ok := payload[bySymbol[sym]]
		if !ok || !p.USD.IsPositive() {
			continue
		}
		q := models.Quote{Symbol: sym, Last: p.USD}
		if p.USD24hChg != nil {
			q.ChangePercent = *p.USD24hChg
		}
		prices[sym] = q
	}
	return prices, nil
}

var _ Source = (*CryptoClient)(nil)
