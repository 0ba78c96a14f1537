package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trogers1052/portfolio-valuation/internal/apperrors"
	"github.com/trogers1052/portfolio-valuation/internal/models"
)

func TestStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)
	ctx := context.Background()

	seed := func(t *testing.T) (*models.User, *models.Portfolio) {
		t.Helper()
		testDB.TruncateAll(t)

		user := &models.User{Name: "Ada", Email: "ada@example.com", Phone: "+15550100"}
		require.NoError(t, testDB.CreateUser(ctx, user))
		portfolio := &models.Portfolio{UserID: user.ID, Name: "Main"}
		require.NoError(t, testDB.CreatePortfolio(ctx, portfolio))
		return user, portfolio
	}

	t.Run("positions round trip with exact decimals", func(t *testing.T) {
		_, p := seed(t)

		_, err := testDB.CreatePosition(ctx, models.StockPosition{
			PositionBase: models.PositionBase{PortfolioID: p.ID},
			Symbol:       "AAPL",
			Quantity:     decimal.RequireFromString("10.123456789"),
			CostPerUnit:  decimal.RequireFromString("150.01"),
		})
		require.NoError(t, err)
		_, err = testDB.CreatePosition(ctx, models.CashPosition{
			PositionBase: models.PositionBase{PortfolioID: p.ID},
			Amount:       decimal.RequireFromString("0.1"),
		})
		require.NoError(t, err)

		positions, err := testDB.GetPositions(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, positions, 2)

		s := positions[0].(models.StockPosition)
		assert.True(t, decimal.RequireFromString("10.123456789").Equal(s.Quantity))
		assert.Equal(t, models.AssetCash, positions[1].Class())
	})

	t.Run("real estate keeps mortgage", func(t *testing.T) {
		_, p := seed(t)
		estimate := decimal.NewFromInt(410000)
		start := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)

		_, err := testDB.CreateRealEstatePosition(ctx, models.RealEstatePosition{
			PositionBase:   models.PositionBase{PortfolioID: p.ID},
			Name:           "Home",
			ValuationMode:  models.ValuationAuto,
			ManualValue:    decimal.NewFromInt(400000),
			EstimatedValue: &estimate,
			Mortgage: &models.Mortgage{
				MonthlyPayment: decimal.NewFromInt(1000),
				AnnualRate:     decimal.RequireFromString("3.25"),
				TermYears:      30,
				StartDate:      start,
			},
		})
		require.NoError(t, err)

		props, err := testDB.GetRealEstatePositions(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, props, 1)
		require.NotNil(t, props[0].Mortgage)
		assert.Equal(t, 30, props[0].Mortgage.TermYears)
		assert.True(t, estimate.Equal(props[0].PropertyValue()))
		assert.True(t, start.Equal(props[0].Mortgage.StartDate.UTC()))
	})

	t.Run("daily balance append is idempotent per date", func(t *testing.T) {
		_, p := seed(t)
		date := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

		first := &models.DailyBalance{PortfolioID: p.ID, Date: date, Totals: models.ClassTotals{Cash: decimal.NewFromInt(100)}, Total: decimal.NewFromInt(100)}
		inserted, err := testDB.AppendDailyBalance(ctx, first)
		require.NoError(t, err)
		assert.True(t, inserted)

		second := &models.DailyBalance{PortfolioID: p.ID, Date: date, Totals: models.ClassTotals{Cash: decimal.NewFromInt(999)}, Total: decimal.NewFromInt(999)}
		inserted, err = testDB.AppendDailyBalance(ctx, second)
		require.NoError(t, err)
		assert.False(t, inserted)

		latest, err := testDB.GetLatestDailyBalance(ctx, p.ID)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.True(t, decimal.NewFromInt(100).Equal(latest.Total), "first snapshot of the day stays")
	})

	t.Run("alerts lifecycle", func(t *testing.T) {
		u, _ := seed(t)

		alert := &models.Alert{
			UserID:      u.ID,
			AssetClass:  models.AssetStock,
			Symbol:      "AAPL",
			Condition:   models.ConditionAbove,
			TargetPrice: decimal.RequireFromString("200.50"),
			Destination: models.DestinationEmail,
		}
		require.NoError(t, testDB.CreateAlert(ctx, alert))

		alerts, err := testDB.ListAlerts(ctx)
		require.NoError(t, err)
		require.Len(t, alerts, 1)
		assert.Empty(t, alerts[0].Address)

		got, err := testDB.GetAlert(ctx, alert.ID)
		require.NoError(t, err)
		assert.True(t, alert.TargetPrice.Equal(got.TargetPrice))

		require.NoError(t, testDB.DeleteAlert(ctx, alert.ID))
		_, err = testDB.GetAlert(ctx, alert.ID)
		assert.True(t, errors.Is(err, apperrors.ErrAlertNotFound))
	})

	t.Run("portfolios and users", func(t *testing.T) {
		u, p := seed(t)

		list, err := testDB.ListPortfolios(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, p.ID, list[0].ID)

		ids, err := testDB.ListPortfolioIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{p.ID}, ids)

		user, err := testDB.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", user.Email)
	})

	t.Run("delete positions empties the portfolio", func(t *testing.T) {
		_, p := seed(t)
		_, err := testDB.CreatePosition(ctx, models.CustomPosition{
			PositionBase: models.PositionBase{PortfolioID: p.ID},
			Name:         "Art",
			Value:        decimal.NewFromInt(5000),
		})
		require.NoError(t, err)
		_, err = testDB.CreateRealEstatePosition(ctx, models.RealEstatePosition{
			PositionBase: models.PositionBase{PortfolioID: p.ID},
			Name:         "Cabin",
			ManualValue:  decimal.NewFromInt(90000),
		})
		require.NoError(t, err)

		report, err := testDB.DeletePositions(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Deleted)
		assert.Zero(t, report.Failed)

		positions, err := testDB.GetPositions(ctx, p.ID)
		require.NoError(t, err)
		assert.Empty(t, positions)
	})
}
