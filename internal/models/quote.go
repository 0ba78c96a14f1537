package models

import "github.com/shopspring/decimal"

// Quote is the latest market data for one symbol.
// Change is absolute per-unit change and may be zero when the provider
// only reports a percentage (crypto).
type Quote struct {
	Symbol        string          `json:"symbol"`
	Last          decimal.Decimal `json:"last"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}
