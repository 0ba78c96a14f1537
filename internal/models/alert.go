package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Condition constants
const (
	ConditionAbove = "above"
	ConditionBelow = "below"
)

// Destination constants
const (
	DestinationEmail = "email"
	DestinationSMS   = "sms"
)

// Alert is a one-shot price alert. It is deleted once it fires and the
// notification has been accepted for delivery.
type Alert struct {
	ID          string          `json:"id" validate:"required"`
	UserID      string          `json:"user_id"`
	AssetClass  AssetClass      `json:"asset_class" validate:"required,oneof=stock crypto"`
	Symbol      string          `json:"symbol" validate:"required"`
	Condition   string          `json:"condition" validate:"required,oneof=above below"`
	TargetPrice decimal.Decimal `json:"target_price"`
	Destination string          `json:"destination" validate:"required,oneof=email sms"`
	Address     string          `json:"address,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
