package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/trogers1052/portfolio-valuation/internal/apperrors"
	"github.com/trogers1052/portfolio-valuation/internal/models"
)

// positionColumns holds the nullable columns of the shared positions table
type positionColumns struct {
	symbol          sql.NullString
	name            sql.NullString
	quantity        decimal.NullDecimal
	costPerUnit     decimal.NullDecimal
	amount          decimal.NullDecimal
	linkedAccountID sql.NullString
	value           decimal.NullDecimal
	note            sql.NullString
}

func columnsFor(pos models.Position) (positionColumns, error) {
	var c positionColumns
	c.note = nullString(pos.Base().Note)

	switch p := pos.(type) {
	case models.StockPosition:
		c.symbol = nullString(p.Symbol)
		c.quantity = decimal.NewNullDecimal(p.Quantity)
		c.costPerUnit = decimal.NewNullDecimal(p.CostPerUnit)
	case models.CryptoPosition:
		c.symbol = nullString(p.Symbol)
		c.quantity = decimal.NewNullDecimal(p.Quantity)
		c.costPerUnit = decimal.NewNullDecimal(p.CostPerUnit)
	case models.CashPosition:
		c.amount = decimal.NewNullDecimal(p.Amount)
		c.linkedAccountID = nullString(p.LinkedAccountID)
	case models.CustomPosition:
		c.name = nullString(p.Name)
		c.value = decimal.NewNullDecimal(p.Value)
	default:
		return c, apperrors.Wrap(apperrors.ErrInvalidInput,
			fmt.Errorf("positions table does not hold %T", pos))
	}
	return c, nil
}

// CreatePosition inserts a stock, crypto, cash or custom position and
// returns its ID. Real estate goes through CreateRealEstatePosition.
func (db *DB) CreatePosition(ctx context.Context, pos models.Position) (string, error) {
	c, err := columnsFor(pos)
	if err != nil {
		return "", err
	}

	query := `
		INSERT INTO positions (
			portfolio_id, asset_class, symbol, name, quantity, cost_per_unit,
			amount, linked_account_id, value, note
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	var id string
	err = db.conn.QueryRowContext(ctx, query,
		pos.Base().PortfolioID, string(pos.Class()), c.symbol, c.name, c.quantity, c.costPerUnit,
		c.amount, c.linkedAccountID, c.value, c.note,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create position: %w", err)
	}
	return id, nil
}

// GetPositions retrieves the non real estate positions of a portfolio
func (db *DB) GetPositions(ctx context.Context, portfolioID string) ([]models.Position, error) {
	if !validID(portfolioID) {
		return nil, nil
	}

	query := `
		SELECT id, portfolio_id, asset_class, symbol, name, quantity, cost_per_unit,
		       amount, linked_account_id, value, note, created_at
		FROM positions
		WHERE portfolio_id = $1
		ORDER BY created_at, id
	`
	rows, err := db.conn.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		var base models.PositionBase
		var class string
		var c positionColumns

		err := rows.Scan(
			&base.ID, &base.PortfolioID, &class, &c.symbol, &c.name, &c.quantity, &c.costPerUnit,
			&c.amount, &c.linkedAccountID, &c.value, &c.note, &base.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		base.Note = c.note.String

		pos, err := toPosition(base, models.AssetClass(class), c)
		if err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

func toPosition(base models.PositionBase, class models.AssetClass, c positionColumns) (models.Position, error) {
	switch class {
	case models.AssetStock:
		return models.StockPosition{
			PositionBase: base,
			Symbol:       c.symbol.String,
			Quantity:     c.quantity.Decimal,
			CostPerUnit:  c.costPerUnit.Decimal,
		}, nil
	case models.AssetCrypto:
		return models.CryptoPosition{
			PositionBase: base,
			Symbol:       c.symbol.String,
			Quantity:     c.quantity.Decimal,
			CostPerUnit:  c.costPerUnit.Decimal,
		}, nil
	case models.AssetCash:
		return models.CashPosition{
			PositionBase:    base,
			Amount:          c.amount.Decimal,
			LinkedAccountID: c.linkedAccountID.String,
		}, nil
	case models.AssetCustom:
		return models.CustomPosition{
			PositionBase: base,
			Name:         c.name.String,
			Value:        c.value.Decimal,
		}, nil
	}
	return nil, apperrors.Wrap(apperrors.ErrInvariantViolation,
		fmt.Errorf("position %s has unknown asset class %q", base.ID, class))
}

// DeletePositions removes every position of a portfolio, real estate
// included, one row at a time. Rows that fail are reported, not retried.
func (db *DB) DeletePositions(ctx context.Context, portfolioID string) (models.DeleteReport, error) {
	var report models.DeleteReport
	if _, err := db.GetPortfolio(ctx, portfolioID); err != nil {
		return report, err
	}

	for _, table := range []string{"positions", "real_estate_positions"} {
		ids, err := db.positionIDs(ctx, table, portfolioID)
		if err != nil {
			return report, err
		}

		for _, id := range ids {
			if err := db.deleteRow(ctx, table, id); err != nil {
				report.Failed++
				report.FailedIDs = append(report.FailedIDs, id)
				continue
			}
			report.Deleted++
		}
	}
	return report, nil
}

func (db *DB) positionIDs(ctx context.Context, table, portfolioID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE portfolio_id = $1 ORDER BY id`, table), portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s ids: %w", table, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s id: %w", table, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (db *DB) deleteRow(ctx context.Context, table, id string) error {
	result, err := db.conn.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id)
	if err != nil {
		return fmt.Errorf("failed to delete %s row %s: %w", table, id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%s row not found: %s", table, id)
	}
	return nil
}
