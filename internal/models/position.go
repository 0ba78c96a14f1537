package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetClass identifies one of the five position categories
type AssetClass string

// Asset class constants
const (
	AssetStock      AssetClass = "stock"
	AssetCrypto     AssetClass = "crypto"
	AssetRealEstate AssetClass = "real-estate"
	AssetCash       AssetClass = "cash"
	AssetCustom     AssetClass = "custom"
)

// AssetClasses lists every class in summary order
var AssetClasses = []AssetClass{AssetStock, AssetCrypto, AssetRealEstate, AssetCash, AssetCustom}

// Priced reports whether positions of this class need an external quote
func (c AssetClass) Priced() bool {
	return c == AssetStock || c == AssetCrypto
}

// Valid reports whether c is one of the known asset classes
func (c AssetClass) Valid() bool {
	for _, known := range AssetClasses {
		if c == known {
			return true
		}
	}
	return false
}

// Real estate valuation modes
const (
	ValuationManual = "manual"
	ValuationAuto   = "auto"
)

// Position is a closed sum type over the five asset class variants.
// Only types in this package implement it.
type Position interface {
	Base() PositionBase
	Class() AssetClass
	isPosition()
}

// PositionBase holds the fields shared by every position variant
type PositionBase struct {
	ID          string    `json:"id"`
	PortfolioID string    `json:"portfolio_id"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Base returns the shared position fields
func (b PositionBase) Base() PositionBase { return b }

// StockPosition is a holding of an exchange-listed security
type StockPosition struct {
	PositionBase
	Symbol      string          `json:"symbol"`
	Quantity    decimal.Decimal `json:"quantity"`
	CostPerUnit decimal.Decimal `json:"cost_per_unit"`
}

// CryptoPosition is a holding of a crypto asset
type CryptoPosition struct {
	PositionBase
	Symbol      string          `json:"symbol"`
	Quantity    decimal.Decimal `json:"quantity"`
	CostPerUnit decimal.Decimal `json:"cost_per_unit"`
}

// RealEstatePosition is a property, optionally carrying a mortgage.
// Stored apart from the other position kinds.
type RealEstatePosition struct {
	PositionBase
	Name           string           `json:"name"`
	ValuationMode  string           `json:"valuation_mode"`
	ManualValue    decimal.Decimal  `json:"manual_value"`
	EstimatedValue *decimal.Decimal `json:"estimated_value,omitempty"`
	Mortgage       *Mortgage        `json:"mortgage,omitempty"`
}

// Mortgage is a fixed-rate amortizing loan against a property
type Mortgage struct {
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	AnnualRate     decimal.Decimal `json:"annual_rate"` // percent, 3.25 means 3.25%
	TermYears      int             `json:"term_years"`
	StartDate      time.Time       `json:"start_date"`
}

// CashPosition is a flat cash amount
type CashPosition struct {
	PositionBase
	Amount          decimal.Decimal `json:"amount"`
	LinkedAccountID string          `json:"linked_account_id,omitempty"`
}

// CustomPosition is a user-valued asset with no external pricing
type CustomPosition struct {
	PositionBase
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

func (StockPosition) Class() AssetClass      { return AssetStock }
func (CryptoPosition) Class() AssetClass     { return AssetCrypto }
func (RealEstatePosition) Class() AssetClass { return AssetRealEstate }
func (CashPosition) Class() AssetClass       { return AssetCash }
func (CustomPosition) Class() AssetClass     { return AssetCustom }

func (StockPosition) isPosition()      {}
func (CryptoPosition) isPosition()     {}
func (RealEstatePosition) isPosition() {}
func (CashPosition) isPosition()       {}
func (CustomPosition) isPosition()     {}

// PropertyValue returns the value used for a real estate position:
// the automatic estimate when the position is auto-valued and one exists,
// otherwise the manually entered value.
func (r RealEstatePosition) PropertyValue() decimal.Decimal {
	if r.ValuationMode == ValuationAuto && r.EstimatedValue != nil {
		return *r.EstimatedValue
	}
	return r.ManualValue
}

// DeleteReport describes the outcome of a batch position deletion
type DeleteReport struct {
	Deleted   int      `json:"deleted"`
	Failed    int      `json:"failed"`
	FailedIDs []string `json:"failed_ids,omitempty"`
}
