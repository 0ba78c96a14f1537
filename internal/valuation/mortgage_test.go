package valuation

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/trogers1052/portfolio-valuation/internal/models"
)

func TestMonthsElapsed(t *testing.T) {
	start := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, MonthsElapsed(start, start))
	assert.Equal(t, 0, MonthsElapsed(start, start.AddDate(0, 0, -10)))
	assert.Equal(t, 0, MonthsElapsed(start, time.Date(2025, 4, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, MonthsElapsed(start, time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 12, MonthsElapsed(start, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)))
}

func TestRemainingPrincipal_TwelveMonthsIn(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	m := models.Mortgage{
		MonthlyPayment: decimal.NewFromInt(1000),
		AnnualRate:     decimal.RequireFromString("3.25"),
		TermYears:      30,
		StartDate:      now.AddDate(-1, 0, 0),
	}

	r := 0.0325 / 12
	want := (1000 / r) * (1 - math.Pow(1+r, -348))

	got, _ := RemainingPrincipal(m, now).Float64()
	assert.InDelta(t, want, got, 0.01)
}

func TestRemainingPrincipal_Edges(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("term fully elapsed", func(t *testing.T) {
		m := models.Mortgage{
			MonthlyPayment: decimal.NewFromInt(1000),
			AnnualRate:     decimal.NewFromInt(5),
			TermYears:      10,
			StartDate:      now.AddDate(-11, 0, 0),
		}
		assert.True(t, RemainingPrincipal(m, now).IsZero())
	})

	t.Run("zero rate is straight-line", func(t *testing.T) {
		m := models.Mortgage{
			MonthlyPayment: decimal.NewFromInt(500),
			TermYears:      1,
			StartDate:      now.AddDate(0, -2, 0),
		}
		assert.True(t, decimal.NewFromInt(5000).Equal(RemainingPrincipal(m, now)))
	})
}

func TestEquity(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	estimate := decimal.NewFromInt(450000)

	t.Run("auto estimate wins when present", func(t *testing.T) {
		r := models.RealEstatePosition{
			ValuationMode:  models.ValuationAuto,
			ManualValue:    decimal.NewFromInt(400000),
			EstimatedValue: &estimate,
		}
		assert.True(t, estimate.Equal(Equity(r, now)))
	})

	t.Run("auto without estimate falls back to manual", func(t *testing.T) {
		r := models.RealEstatePosition{ValuationMode: models.ValuationAuto, ManualValue: decimal.NewFromInt(400000)}
		assert.True(t, decimal.NewFromInt(400000).Equal(Equity(r, now)))
	})

	t.Run("mortgage is subtracted", func(t *testing.T) {
		r := models.RealEstatePosition{
			ValuationMode: models.ValuationManual,
			ManualValue:   decimal.NewFromInt(300000),
			Mortgage: &models.Mortgage{
				MonthlyPayment: decimal.NewFromInt(1000),
				TermYears:      10,
				StartDate:      now,
			},
		}
		assert.True(t, decimal.NewFromInt(180000).Equal(Equity(r, now)))
	})
}
