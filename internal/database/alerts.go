package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/trogers1052/portfolio-valuation/internal/apperrors"
	"github.com/trogers1052/portfolio-valuation/internal/models"
)

// CreateAlert inserts a new price alert. Only quoted classes can carry alerts.
func (db *DB) CreateAlert(ctx context.Context, a *models.Alert) error {
	if !a.AssetClass.Valid() || !a.AssetClass.Priced() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "alerts need a stock or crypto asset class, got "+string(a.AssetClass))
	}

	query := `
		INSERT INTO alerts (
			user_id, asset_class, symbol, condition, target_price, destination, address
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := db.conn.QueryRowContext(ctx, query,
		a.UserID, string(a.AssetClass), a.Symbol, a.Condition, a.TargetPrice,
		a.Destination, nullString(a.Address),
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// GetAlert retrieves an alert by ID
func (db *DB) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	if !validID(id) {
		return nil, apperrors.WithMessage(apperrors.ErrAlertNotFound, "alert not found: "+id)
	}

	query := `
		SELECT id, user_id, asset_class, symbol, condition, target_price,
		       destination, address, created_at
		FROM alerts
		WHERE id = $1
	`
	a, err := scanAlert(db.conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.WithMessage(apperrors.ErrAlertNotFound, "alert not found: "+id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return a, nil
}

// ListAlerts retrieves every pending alert
func (db *DB) ListAlerts(ctx context.Context) ([]models.Alert, error) {
	query := `
		SELECT id, user_id, asset_class, symbol, condition, target_price,
		       destination, address, created_at
		FROM alerts
		ORDER BY asset_class, created_at, id
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}

// DeleteAlert removes a fired alert
func (db *DB) DeleteAlert(ctx context.Context, id string) error {
	if !validID(id) {
		return apperrors.WithMessage(apperrors.ErrAlertNotFound, "alert not found: "+id)
	}

	result, err := db.conn.ExecContext(ctx, `DELETE FROM alerts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return apperrors.WithMessage(apperrors.ErrAlertNotFound, "alert not found: "+id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*models.Alert, error) {
	var a models.Alert
	var class string
	var address sql.NullString

	err := row.Scan(
		&a.ID, &a.UserID, &class, &a.Symbol, &a.Condition, &a.TargetPrice,
		&a.Destination, &address, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.AssetClass = models.AssetClass(class)
	if !a.AssetClass.Valid() {
		return nil, apperrors.Wrap(apperrors.ErrInvariantViolation,
			fmt.Errorf("alert %s has unknown asset class %q", a.ID, class))
	}
	a.Address = address.String
	return &a, nil
}
