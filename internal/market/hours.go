// Package market knows when the backing markets for priced asset classes
// are trading, in America/New_York time.
package market

import (
	"time"

	"github.com/trogers1052/portfolio-valuation/internal/models"
)

// newYork is the America/New_York timezone which handles both EST and EDT.
var newYork = mustLoadLocation("America/New_York")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// Fixed EST if tzdata is unavailable (e.g., minimal container)
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// Location returns the exchange timezone
func Location() *time.Location {
	return newYork
}

// Regular session bounds in minutes after midnight, New York time.
const (
	sessionOpen  = 9*60 + 30
	sessionClose = 16 * 60
)

// IsOpen reports whether the market backing class is trading at t.
// Stocks trade 09:30-16:00 New York time, Monday to Friday.
// Crypto never closes. Unpriced classes have no market and report false.
// Exchange holidays are not modelled.
func IsOpen(class models.AssetClass, t time.Time) bool {
	switch class {
	case models.AssetCrypto:
		return true
	case models.AssetStock:
		ny := t.In(newYork)
		switch ny.Weekday() {
		case time.Saturday, time.Sunday:
			return false
		}
		hour, min, _ := ny.Clock()
		minuteOfDay := hour*60 + min
		return minuteOfDay >= sessionOpen && minuteOfDay < sessionClose
	}
	return false
}

// TradingDate returns the New York calendar date containing t, as midnight UTC
// so it round-trips through a DATE column unchanged.
func TradingDate(t time.Time) time.Time {
	y, m, d := t.In(newYork).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
