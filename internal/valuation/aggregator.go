// Package valuation computes portfolio values from positions and live quotes.
//
// All arithmetic uses shopspring/decimal so a grand total is always the
// exact sum of its five class totals.
package valuation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/trogers1052/portfolio-valuation/internal/apperrors"
	"github.com/trogers1052/portfolio-valuation/internal/models"
	"github.com/trogers1052/portfolio-valuation/internal/quotes"
)

// Store is the read side of the position store used by the aggregator.
// GetLatestDailyBalance returns nil, nil when the portfolio has no history.
type Store interface {
	GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error)
	GetPositions(ctx context.Context, portfolioID string) ([]models.Position, error)
	GetRealEstatePositions(ctx context.Context, portfolioID string) ([]models.RealEstatePosition, error)
	GetLatestDailyBalance(ctx context.Context, portfolioID string) (*models.DailyBalance, error)
}

// Aggregator values portfolios
type Aggregator struct {
	store  Store
	quotes quotes.Source
	logger *zap.Logger
	now    func() time.Time // injectable clock for testing
}

// NewAggregator creates a new Aggregator
func NewAggregator(store Store, src quotes.Source, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		store:  store,
		quotes: src,
		logger: logger,
		now:    time.Now,
	}
}

// Summarize returns the per-class and grand totals for a portfolio
func (a *Aggregator) Summarize(ctx context.Context, portfolioID string) (*models.PortfolioSummary, error) {
	view, err := a.Quotes(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	return &view.Summary, nil
}

// Quotes returns the summary plus one priced row per position
func (a *Aggregator) Quotes(ctx context.Context, portfolioID string) (*models.PricedPortfolioView, error) {
	portfolio, err := a.store.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	positions, err := a.store.GetPositions(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions for %s: %w", portfolioID, err)
	}
	realEstate, err := a.store.GetRealEstatePositions(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to load real estate for %s: %w", portfolioID, err)
	}

	parts, err := partition(positions, realEstate)
	if err != nil {
		return nil, err
	}

	now := a.now()
	var stocks, crypto, property, cash, custom classResult

	// classes are independent; all must finish before the total is assembled
	var g errgroup.Group
	g.Go(func() error {
		stocks = a.valueStocks(ctx, parts.stocks)
		return nil
	})
	g.Go(func() error {
		crypto = a.valueCrypto(ctx, parts.crypto)
		return nil
	})
	g.Go(func() error {
		property = valueRealEstate(parts.realEstate, now)
		return nil
	})
	g.Go(func() error {
		cash = valueCash(parts.cash)
		return nil
	})
	g.Go(func() error {
		custom = valueCustom(parts.custom)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	totals := models.ClassTotals{
		Stocks:     stocks.total,
		Crypto:     crypto.total,
		RealEstate: property.total,
		Cash:       cash.total,
		Custom:     custom.total,
	}

	unpriced := append(append([]string{}, stocks.unpriced...), crypto.unpriced...)
	sort.Strings(unpriced)

	summary := models.PortfolioSummary{
		PortfolioID:     portfolio.ID,
		Name:            portfolio.Name,
		Totals:          totals,
		Total:           totals.Sum(),
		StocksDayChange: stocks.dayChange,
		CryptoDayChange: crypto.dayChange,
		UnpricedSymbols: unpriced,
		ComputedAt:      now,
	}
	summary.DayChange, summary.DayChangePercent = a.dayChange(ctx, portfolioID, summary.Total)

	if err := CheckTotals(&summary); err != nil {
		return nil, err
	}

	rows := make([]models.PositionQuote, 0, len(positions)+len(realEstate))
	for _, r := range []classResult{stocks, crypto, property, cash, custom} {
		rows = append(rows, r.rows...)
	}

	return &models.PricedPortfolioView{Summary: summary, Positions: rows}, nil
}

// dayChange compares total against the latest persisted daily balance.
// With no balance, or a zero previous total, the change reports zero.
func (a *Aggregator) dayChange(ctx context.Context, portfolioID string, total decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	prev, err := a.store.GetLatestDailyBalance(ctx, portfolioID)
	if err != nil {
		a.logger.Warn("Failed to load latest daily balance",
			zap.String("portfolio_id", portfolioID),
			zap.Error(err),
		)
		return decimal.Zero, decimal.Zero
	}
	if prev == nil {
		return decimal.Zero, decimal.Zero
	}

	change := total.Sub(prev.Total)
	if prev.Total.IsZero() {
		return change, decimal.Zero
	}
	return change, change.Div(prev.Total).Mul(hundred)
}

// CheckTotals verifies the grand total equals the sum of the class totals
func CheckTotals(s *models.PortfolioSummary) error {
	if sum := s.Totals.Sum(); !sum.Equal(s.Total) {
		return apperrors.Wrap(apperrors.ErrInvariantViolation,
			fmt.Errorf("portfolio %s total %s != class sum %s", s.PortfolioID, s.Total, sum))
	}
	return nil
}

type partitioned struct {
	stocks     []models.StockPosition
	crypto     []models.CryptoPosition
	realEstate []models.RealEstatePosition
	cash       []models.CashPosition
	custom     []models.CustomPosition
}

func partition(positions []models.Position, realEstate []models.RealEstatePosition) (partitioned, error) {
	parts := partitioned{realEstate: append([]models.RealEstatePosition{}, realEstate...)}
	for _, pos := range positions {
		switch p := pos.(type) {
		case models.StockPosition:
			parts.stocks = append(parts.stocks, p)
		case models.CryptoPosition:
			parts.crypto = append(parts.crypto, p)
		case models.RealEstatePosition:
			parts.realEstate = append(parts.realEstate, p)
		case models.CashPosition:
			parts.cash = append(parts.cash, p)
		case models.CustomPosition:
			parts.custom = append(parts.custom, p)
		default:
			return parts, apperrors.Wrap(apperrors.ErrInvariantViolation,
				fmt.Errorf("unhandled position type %T", pos))
		}
	}
	return parts, nil
}
