package valuation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trogers1052/portfolio-valuation/internal/models"
	"github.com/trogers1052/portfolio-valuation/internal/quotes"
)

type classResult struct {
	total     decimal.Decimal
	dayChange decimal.Decimal
	rows      []models.PositionQuote
	unpriced  []string
}

// holding is the priced-position shape shared by stocks and crypto
type holding struct {
	id       string
	symbol   string
	quantity decimal.Decimal
	cost     decimal.Decimal
}

// dayChangeFunc derives one position's day change from its quote
type dayChangeFunc func(h holding, q models.Quote) decimal.Decimal

// stockDayChange uses the provider's absolute per-share change.
func stockDayChange(h holding, q models.Quote) decimal.Decimal {
	return h.quantity.Mul(q.Change)
}

// cryptoDayChange reconstructs an absolute change from the provider's
// percentage applied to the cost basis, not the market value. Reported
// numbers depend on this asymmetry with stocks, so it is kept as is.
func cryptoDayChange(h holding, q models.Quote) decimal.Decimal {
	costBasis := h.cost.Mul(h.quantity)
	return q.ChangePercent.Div(hundred).Mul(costBasis)
}

func (a *Aggregator) valueStocks(ctx context.Context, positions []models.StockPosition) classResult {
	holdings := make([]holding, 0, len(positions))
	for _, p := range positions {
		holdings = append(holdings, holding{id: p.ID, symbol: p.Symbol, quantity: p.Quantity, cost: p.CostPerUnit})
	}
	return a.valuePriced(ctx, models.AssetStock, holdings, stockDayChange)
}

func (a *Aggregator) valueCrypto(ctx context.Context, positions []models.CryptoPosition) classResult {
	holdings := make([]holding, 0, len(positions))
	for _, p := range positions {
		holdings = append(holdings, holding{id: p.ID, symbol: p.Symbol, quantity: p.Quantity, cost: p.CostPerUnit})
	}
	return a.valuePriced(ctx, models.AssetCrypto, holdings, cryptoDayChange)
}

// valuePriced fetches one quote batch for the whole class. Positions without
// a quote stay in the rows, unpriced, and add nothing to the totals.
func (a *Aggregator) valuePriced(ctx context.Context, class models.AssetClass, holdings []holding, change dayChangeFunc) classResult {
	res := classResult{total: decimal.Zero, dayChange: decimal.Zero}
	if len(holdings) == 0 {
		return res
	}

	symbols := make([]string, 0, len(holdings))
	for _, h := range holdings {
		symbols = append(symbols, h.symbol)
	}
	prices := quotes.Lookup(ctx, a.quotes, symbols, class, a.logger)

	missing := map[string]bool{}
	for _, h := range holdings {
		row := models.PositionQuote{
			PositionID:  h.id,
			Class:       class,
			Symbol:      h.symbol,
			Quantity:    h.quantity,
			CostPerUnit: h.cost,
		}

		q, ok := prices.Get(h.symbol)
		if !ok {
			sym := quotes.Normalize(h.symbol)
			if !missing[sym] {
				missing[sym] = true
				res.unpriced = append(res.unpriced, sym)
			}
			res.rows = append(res.rows, row)
			continue
		}

		costBasis := h.quantity.Mul(h.cost)
		row.Priced = true
		row.Price = q.Last
		row.MarketValue = h.quantity.Mul(q.Last)
		row.GainLoss = row.MarketValue.Sub(costBasis)
		if costBasis.IsPositive() {
			row.GainLossPercent = row.GainLoss.Div(costBasis).Mul(hundred)
		}
		row.DayChange = change(h, q)

		res.total = res.total.Add(row.MarketValue)
		res.dayChange = res.dayChange.Add(row.DayChange)
		res.rows = append(res.rows, row)
	}
	return res
}

func valueRealEstate(positions []models.RealEstatePosition, now time.Time) classResult {
	res := classResult{total: decimal.Zero, dayChange: decimal.Zero}
	for _, p := range positions {
		equity := Equity(p, now)
		res.total = res.total.Add(equity)
		res.rows = append(res.rows, models.PositionQuote{
			PositionID:  p.ID,
			Class:       models.AssetRealEstate,
			Name:        p.Name,
			Quantity:    one,
			Price:       p.PropertyValue(),
			MarketValue: equity,
			Priced:      true,
		})
	}
	return res
}

func valueCash(positions []models.CashPosition) classResult {
	res := classResult{total: decimal.Zero, dayChange: decimal.Zero}
	for _, p := range positions {
		res.total = res.total.Add(p.Amount)
		res.rows = append(res.rows, models.PositionQuote{
			PositionID:  p.ID,
			Class:       models.AssetCash,
			Quantity:    one,
			Price:       p.Amount,
			MarketValue: p.Amount,
			Priced:      true,
		})
	}
	return res
}

func valueCustom(positions []models.CustomPosition) classResult {
	res := classResult{total: decimal.Zero, dayChange: decimal.Zero}
	for _, p := range positions {
		res.total = res.total.Add(p.Value)
		res.rows = append(res.rows, models.PositionQuote{
			PositionID:  p.ID,
			Class:       models.AssetCustom,
			Name:        p.Name,
			Quantity:    one,
			Price:       p.Value,
			MarketValue: p.Value,
			Priced:      true,
		})
	}
	return res
}
