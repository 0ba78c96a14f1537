package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/trogers1052/portfolio-valuation/internal/models"
)

// AppendDailyBalance records a portfolio's end-of-day valuation. Rows are
// immutable: a second append for the same portfolio and date is ignored and
// reported with inserted == false.
func (db *DB) AppendDailyBalance(ctx context.Context, b *models.DailyBalance) (bool, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	query := `
		INSERT INTO daily_balances (
			id, portfolio_id, balance_date, stocks, crypto, real_estate, cash, custom, total
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (portfolio_id, balance_date) DO NOTHING
		RETURNING created_at
	`
	err := db.conn.QueryRowContext(ctx, query,
		b.ID, b.PortfolioID, b.Date.Format("2006-01-02"),
		b.Totals.Stocks, b.Totals.Crypto, b.Totals.RealEstate, b.Totals.Cash, b.Totals.Custom,
		b.Total,
	).Scan(&b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to append daily balance: %w", err)
	}
	return true, nil
}

// GetLatestDailyBalance retrieves the most recent balance of a portfolio,
// or nil when it has none
func (db *DB) GetLatestDailyBalance(ctx context.Context, portfolioID string) (*models.DailyBalance, error) {
	if !validID(portfolioID) {
		return nil, nil
	}

	query := `
		SELECT id, portfolio_id, balance_date, stocks, crypto, real_estate, cash, custom,
		       total, created_at
		FROM daily_balances
		WHERE portfolio_id = $1
		ORDER BY balance_date DESC
		LIMIT 1
	`
	var b models.DailyBalance
	err := db.conn.QueryRowContext(ctx, query, portfolioID).Scan(
		&b.ID, &b.PortfolioID, &b.Date,
		&b.Totals.Stocks, &b.Totals.Crypto, &b.Totals.RealEstate, &b.Totals.Cash, &b.Totals.Custom,
		&b.Total, &b.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest daily balance: %w", err)
	}
	return &b, nil
}
