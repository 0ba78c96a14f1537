package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/trogers1052/portfolio-valuation/internal/models"
)

func TestIsOpen(t *testing.T) {
	ny := Location()

	tests := []struct {
		name  string
		class models.AssetClass
		at    time.Time
		want  bool
	}{
		{"stock before open", models.AssetStock, time.Date(2026, 3, 4, 9, 29, 0, 0, ny), false},
		{"stock at open", models.AssetStock, time.Date(2026, 3, 4, 9, 30, 0, 0, ny), true},
		{"stock midday", models.AssetStock, time.Date(2026, 3, 4, 12, 0, 0, 0, ny), true},
		{"stock at close", models.AssetStock, time.Date(2026, 3, 4, 16, 0, 0, 0, ny), false},
		{"stock saturday", models.AssetStock, time.Date(2026, 3, 7, 12, 0, 0, 0, ny), false},
		{"stock sunday", models.AssetStock, time.Date(2026, 3, 8, 12, 0, 0, 0, ny), false},
		{"stock from utc", models.AssetStock, time.Date(2026, 7, 1, 14, 0, 0, 0, time.UTC), true},
		{"crypto weekend", models.AssetCrypto, time.Date(2026, 3, 7, 3, 0, 0, 0, ny), true},
		{"cash has no market", models.AssetCash, time.Date(2026, 3, 4, 12, 0, 0, 0, ny), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOpen(tt.class, tt.at))
		})
	}
}

func TestTradingDate(t *testing.T) {
	// 02:00 UTC on the 5th is still the evening of the 4th in New York
	got := TradingDate(time.Date(2026, 3, 5, 2, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), got)
}
