package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trogers1052/portfolio-valuation/internal/apperrors"
	"github.com/trogers1052/portfolio-valuation/internal/models"
)

const (
	testPortfolioID = "6f1c1e8e-3f44-4c53-9a43-1f0a3c3d9b10"
	testUserID      = "0b9d7a51-5b2e-4b35-8d0f-6d6c0f7b8a21"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return &DB{conn: sqlDB}, mock
}

func TestGetPortfolio_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	ctx := context.Background()

	mock.ExpectQuery("FROM portfolios").
		WithArgs(testPortfolioID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "created_at"}))

	_, err := db.GetPortfolio(ctx, testPortfolioID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrPortfolioNotFound))

	t.Run("malformed id never reaches the database", func(t *testing.T) {
		_, err := db.GetPortfolio(ctx, "not-a-uuid")
		assert.True(t, errors.Is(err, apperrors.ErrPortfolioNotFound))
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPositions_BuildsVariants(t *testing.T) {
	db, mock := newMockDB(t)
	created := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	cols := []string{
		"id", "portfolio_id", "asset_class", "symbol", "name", "quantity", "cost_per_unit",
		"amount", "linked_account_id", "value", "note", "created_at",
	}
	mock.ExpectQuery("FROM positions").
		WithArgs(testPortfolioID).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("s1", testPortfolioID, "stock", "AAPL", nil, "10", "150.25", nil, nil, nil, "ira", created).
			AddRow("c1", testPortfolioID, "crypto", "BTC", nil, "0.5", "20000", nil, nil, nil, nil, created).
			AddRow("m1", testPortfolioID, "cash", nil, nil, nil, nil, "2000.10", "acct-9", nil, nil, created).
			AddRow("x1", testPortfolioID, "custom", nil, "Watch", nil, nil, nil, nil, "1200", nil, created))

	positions, err := db.GetPositions(context.Background(), testPortfolioID)
	require.NoError(t, err)
	require.Len(t, positions, 4)

	s, ok := positions[0].(models.StockPosition)
	require.True(t, ok)
	assert.Equal(t, "AAPL", s.Symbol)
	assert.True(t, decimal.RequireFromString("150.25").Equal(s.CostPerUnit))
	assert.Equal(t, "ira", s.Note)

	_, ok = positions[1].(models.CryptoPosition)
	assert.True(t, ok)

	cash, ok := positions[2].(models.CashPosition)
	require.True(t, ok)
	assert.Equal(t, "acct-9", cash.LinkedAccountID)
	assert.True(t, decimal.RequireFromString("2000.10").Equal(cash.Amount))

	custom, ok := positions[3].(models.CustomPosition)
	require.True(t, ok)
	assert.Equal(t, "Watch", custom.Name)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPositions_UnknownClass(t *testing.T) {
	db, mock := newMockDB(t)

	cols := []string{
		"id", "portfolio_id", "asset_class", "symbol", "name", "quantity", "cost_per_unit",
		"amount", "linked_account_id", "value", "note", "created_at",
	}
	mock.ExpectQuery("FROM positions").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("z1", testPortfolioID, "bonds", nil, nil, nil, nil, nil, nil, nil, nil, time.Now()))

	_, err := db.GetPositions(context.Background(), testPortfolioID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvariantViolation))
}

func TestDeletePositions_PartialFailure(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("FROM portfolios").
		WithArgs(testPortfolioID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "created_at"}).
			AddRow(testPortfolioID, testUserID, "Main", time.Now()))
	mock.ExpectQuery("SELECT id FROM positions").
		WithArgs(testPortfolioID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a").AddRow("b"))
	mock.ExpectExec("DELETE FROM positions").WithArgs("a").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM positions").WithArgs("b").WillReturnError(errors.New("lock timeout"))
	mock.ExpectQuery("SELECT id FROM real_estate_positions").
		WithArgs(testPortfolioID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("h"))
	mock.ExpectExec("DELETE FROM real_estate_positions").WithArgs("h").WillReturnResult(sqlmock.NewResult(0, 1))

	report, err := db.DeletePositions(context.Background(), testPortfolioID)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Deleted)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"b"}, report.FailedIDs)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendDailyBalance_DuplicateIgnored(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("INSERT INTO daily_balances").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}))

	inserted, err := db.AppendDailyBalance(context.Background(), &models.DailyBalance{
		PortfolioID: testPortfolioID,
		Date:        time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC),
		Total:       decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.False(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLatestDailyBalance_None(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("FROM daily_balances").
		WithArgs(testPortfolioID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "portfolio_id", "balance_date", "stocks", "crypto", "real_estate", "cash", "custom", "total", "created_at",
		}))

	b, err := db.GetLatestDailyBalance(context.Background(), testPortfolioID)
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestDeleteAlert_Missing(t *testing.T) {
	db, mock := newMockDB(t)
	id := "9d5ab4f1-58c6-4b57-8a5e-0a3c7c0c6c11"

	mock.ExpectExec("DELETE FROM alerts").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))

	err := db.DeleteAlert(context.Background(), id)
	assert.True(t, errors.Is(err, apperrors.ErrAlertNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePosition_RejectsRealEstate(t *testing.T) {
	db, _ := newMockDB(t)
	_, err := db.CreatePosition(context.Background(), models.RealEstatePosition{})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestCreateAlert_RejectsUnquotedClass(t *testing.T) {
	db, mock := newMockDB(t)

	for _, class := range []models.AssetClass{models.AssetCash, models.AssetRealEstate, "bonds"} {
		t.Run(string(class), func(t *testing.T) {
			err := db.CreateAlert(context.Background(), &models.Alert{AssetClass: class, Symbol: "X"})
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
		})
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAlert_UnknownClass(t *testing.T) {
	db, mock := newMockDB(t)
	id := "9d5ab4f1-58c6-4b57-8a5e-0a3c7c0c6c11"

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "asset_class", "symbol", "condition", "target_price",
		"destination", "address", "created_at",
	}).AddRow(id, testUserID, "bonds", "X", "above", "10", "email", nil, time.Now())
	mock.ExpectQuery("FROM alerts").WithArgs(id).WillReturnRows(rows)

	_, err := db.GetAlert(context.Background(), id)
	assert.True(t, errors.Is(err, apperrors.ErrInvariantViolation))
	require.NoError(t, mock.ExpectationsWereMet())
}
