package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClassTotals holds the value of each asset class in a portfolio
type ClassTotals struct {
	Stocks     decimal.Decimal `json:"stocks_value"`
	Crypto     decimal.Decimal `json:"crypto_value"`
	RealEstate decimal.Decimal `json:"real_estate_value"`
	Cash       decimal.Decimal `json:"cash_value"`
	Custom     decimal.Decimal `json:"custom_value"`
}

// Sum adds the five class totals
func (t ClassTotals) Sum() decimal.Decimal {
	return t.Stocks.Add(t.Crypto).Add(t.RealEstate).Add(t.Cash).Add(t.Custom)
}

// Get returns the total for one class
func (t ClassTotals) Get(class AssetClass) decimal.Decimal {
	switch class {
	case AssetStock:
		return t.Stocks
	case AssetCrypto:
		return t.Crypto
	case AssetRealEstate:
		return t.RealEstate
	case AssetCash:
		return t.Cash
	case AssetCustom:
		return t.Custom
	}
	return decimal.Zero
}

// PortfolioSummary is the computed value of a portfolio at a point in time
type PortfolioSummary struct {
	PortfolioID      string          `json:"portfolio_id"`
	Name             string          `json:"name"`
	Totals           ClassTotals     `json:"totals"`
	Total            decimal.Decimal `json:"total"`
	StocksDayChange  decimal.Decimal `json:"stocks_day_change"`
	CryptoDayChange  decimal.Decimal `json:"crypto_day_change"`
	DayChange        decimal.Decimal `json:"day_change"`
	DayChangePercent decimal.Decimal `json:"day_change_percent"`
	UnpricedSymbols  []string        `json:"unpriced_symbols,omitempty"`
	ComputedAt       time.Time       `json:"computed_at"`
}

// PositionQuote is one row of the priced portfolio table
type PositionQuote struct {
	PositionID      string          `json:"position_id"`
	Class           AssetClass      `json:"class"`
	Symbol          string          `json:"symbol,omitempty"`
	Name            string          `json:"name,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	CostPerUnit     decimal.Decimal `json:"cost_per_unit"`
	Price           decimal.Decimal `json:"price"`
	MarketValue     decimal.Decimal `json:"market_value"`
	GainLoss        decimal.Decimal `json:"gain_loss"`
	GainLossPercent decimal.Decimal `json:"gain_loss_percent"`
	DayChange       decimal.Decimal `json:"day_change"`
	Priced          bool            `json:"priced"`
}

// PricedPortfolioView is a summary plus per-position rows for table rendering
type PricedPortfolioView struct {
	Summary   PortfolioSummary `json:"summary"`
	Positions []PositionQuote  `json:"positions"`
}
