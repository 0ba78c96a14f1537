package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyBalance is an immutable end-of-day valuation of one portfolio
type DailyBalance struct {
	ID          string          `json:"id"`
	PortfolioID string          `json:"portfolio_id"`
	Date        time.Time       `json:"date"`
	Totals      ClassTotals     `json:"totals"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"created_at"`
}
