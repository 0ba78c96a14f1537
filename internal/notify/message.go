package notify

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/trogers1052/portfolio-valuation/internal/models"
)

// FormatMessage renders the notification for alert firing at price
func FormatMessage(alert models.Alert, price decimal.Decimal, to string) Message {
	symbol := strings.ToUpper(alert.Symbol)
	subject := fmt.Sprintf("Price alert: %s %s %s", symbol, alert.Condition, FormatUSD(alert.TargetPrice))
	body := fmt.Sprintf("%s is now %s, %s your target of %s.",
		symbol, FormatUSD(price), alert.Condition, FormatUSD(alert.TargetPrice))

	return Message{To: to, Subject: subject, Body: body}
}

// FormatUSD renders amount as dollars. Amounts under one dollar keep full
// precision.
func FormatUSD(amount decimal.Decimal) string {
	if amount.Abs().LessThan(decimal.NewFromInt(1)) {
		return "$" + amount.String()
	}

	cur := money.GetCurrency(money.USD)
	cents := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(cents, money.USD).Display()
}
