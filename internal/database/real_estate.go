package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/trogers1052/portfolio-valuation/internal/models"
)

// CreateRealEstatePosition inserts a property and returns its ID
func (db *DB) CreateRealEstatePosition(ctx context.Context, r models.RealEstatePosition) (string, error) {
	mode := r.ValuationMode
	if mode == "" {
		mode = models.ValuationManual
	}

	var estimate decimal.NullDecimal
	if r.EstimatedValue != nil {
		estimate = decimal.NewNullDecimal(*r.EstimatedValue)
	}

	var payment, rate decimal.NullDecimal
	var term sql.NullInt32
	var start sql.NullTime
	if m := r.Mortgage; m != nil {
		payment = decimal.NewNullDecimal(m.MonthlyPayment)
		rate = decimal.NewNullDecimal(m.AnnualRate)
		term = sql.NullInt32{Int32: int32(m.TermYears), Valid: true}
		start = sql.NullTime{Time: m.StartDate, Valid: true}
	}

	query := `
		INSERT INTO real_estate_positions (
			portfolio_id, name, valuation_mode, manual_value, estimated_value,
			mortgage_payment, mortgage_rate, mortgage_term_years, mortgage_start_date, note
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	var id string
	err := db.conn.QueryRowContext(ctx, query,
		r.PortfolioID, r.Name, mode, r.ManualValue, estimate,
		payment, rate, term, start, nullString(r.Note),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create real estate position: %w", err)
	}
	return id, nil
}

// GetRealEstatePositions retrieves the properties of a portfolio
func (db *DB) GetRealEstatePositions(ctx context.Context, portfolioID string) ([]models.RealEstatePosition, error) {
	if !validID(portfolioID) {
		return nil, nil
	}

	query := `
		SELECT id, portfolio_id, name, valuation_mode, manual_value, estimated_value,
		       mortgage_payment, mortgage_rate, mortgage_term_years, mortgage_start_date,
		       note, created_at
		FROM real_estate_positions
		WHERE portfolio_id = $1
		ORDER BY created_at, id
	`
	rows, err := db.conn.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query real estate positions: %w", err)
	}
	defer rows.Close()

	var out []models.RealEstatePosition
	for rows.Next() {
		var r models.RealEstatePosition
		var estimate, payment, rate decimal.NullDecimal
		var term sql.NullInt32
		var start sql.NullTime
		var note sql.NullString

		err := rows.Scan(
			&r.ID, &r.PortfolioID, &r.Name, &r.ValuationMode, &r.ManualValue, &estimate,
			&payment, &rate, &term, &start,
			&note, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan real estate position: %w", err)
		}

		r.Note = note.String
		if estimate.Valid {
			v := estimate.Decimal
			r.EstimatedValue = &v
		}
		if payment.Valid && term.Valid && start.Valid {
			r.Mortgage = &models.Mortgage{
				MonthlyPayment: payment.Decimal,
				AnnualRate:     rate.Decimal,
				TermYears:      int(term.Int32),
				StartDate:      start.Time,
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
