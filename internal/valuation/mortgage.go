package valuation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/trogers1052/portfolio-valuation/internal/models"
)

var (
	one     = decimal.NewFromInt(1)
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
)

// MonthsElapsed counts whole calendar months from start to now, never negative.
func MonthsElapsed(start, now time.Time) int {
	if now.Before(start) {
		return 0
	}
	months := (now.Year()-start.Year())*12 + int(now.Month()-start.Month())
	if now.Day() < start.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// RemainingPrincipal returns the outstanding balance of m at now using the
// closed-form amortization formula
//
//	remaining = (payment / r) * (1 - (1 + r)^-monthsLeft)
//
// where r is the monthly rate. A zero rate leaves payment * monthsLeft and a
// fully elapsed term leaves nothing.
func RemainingPrincipal(m models.Mortgage, now time.Time) decimal.Decimal {
	monthsLeft := m.TermYears*12 - MonthsElapsed(m.StartDate, now)
	if monthsLeft <= 0 || !m.MonthlyPayment.IsPositive() {
		return decimal.Zero
	}

	left := decimal.NewFromInt(int64(monthsLeft))
	if !m.AnnualRate.IsPositive() {
		return m.MonthlyPayment.Mul(left)
	}

	monthlyRate := m.AnnualRate.Div(hundred).Div(twelve)
	growth := powInt(one.Add(monthlyRate), monthsLeft)
	discount := one.Sub(one.Div(growth))
	return m.MonthlyPayment.Div(monthlyRate).Mul(discount)
}

// powPrecision bounds intermediate digits while raising to a power; exact
// products of a 16-digit rate grow by thousands of digits over a 30 year term.
const powPrecision = 24

func powInt(base decimal.Decimal, n int) decimal.Decimal {
	result := one
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base).Round(powPrecision)
		}
		base = base.Mul(base).Round(powPrecision)
		n >>= 1
	}
	return result
}

// Equity returns the property value net of any remaining mortgage principal
func Equity(r models.RealEstatePosition, now time.Time) decimal.Decimal {
	value := r.PropertyValue()
	if r.Mortgage == nil {
		return value
	}
	return value.Sub(RemainingPrincipal(*r.Mortgage, now))
}
