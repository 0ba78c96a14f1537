// Package quotes adapts external market data providers behind one batched
// lookup. Adapters never cache: freshness is the result cache's concern.
package quotes

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/trogers1052/portfolio-valuation/internal/models"
)

// Source returns the latest quote for each priceable symbol in one batch.
// The result may omit symbols the provider could not price. A provider
// failure fails the whole batch.
type Source interface {
	GetPrices(ctx context.Context, symbols []string, class models.AssetClass) (Prices, error)
}

// Prices maps normalized symbols to quotes
type Prices map[string]models.Quote

// Get returns the quote for symbol, if one was priced
func (p Prices) Get(symbol string) (models.Quote, bool) {
	q, ok := p[Normalize(symbol)]
	return q, ok
}

// Normalize returns the canonical form used as a Prices key
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Dedupe normalizes symbols and drops blanks and repeats, returning them sorted
func Dedupe(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		n := Normalize(s)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Lookup calls src and absorbs failures: when the batch fails every symbol
// is treated as unpriced for this cycle and an empty map is returned.
func Lookup(ctx context.Context, src Source, symbols []string, class models.AssetClass, logger *zap.Logger) Prices {
	symbols = Dedupe(symbols)
	if len(symbols) == 0 {
		return Prices{}
	}

	prices, err := src.GetPrices(ctx, symbols, class)
	if err != nil {
		logger.Warn("Quote batch failed, treating symbols as unpriced",
			zap.String("class", string(class)),
			zap.Strings("symbols", symbols),
			zap.Error(err),
		)
		return Prices{}
	}
	if prices == nil {
		return Prices{}
	}
	return prices
}

// Router sends each class to the provider that prices it.
type Router struct {
	Stocks Source
	Crypto Source
}

// GetPrices implements Source
func (r *Router) GetPrices(ctx context.Context, symbols []string, class models.AssetClass) (Prices, error) {
	var src Source
	switch class {
	case models.AssetStock:
		src = r.Stocks
	case models.AssetCrypto:
		src = r.Crypto
	}
	if src == nil || len(symbols) == 0 {
		return Prices{}, nil
	}
	return src.GetPrices(ctx, symbols, class)
}

var _ Source = (*Router)(nil)
