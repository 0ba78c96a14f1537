package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/trogers1052/portfolio-valuation/internal/apperrors"
	"github.com/trogers1052/portfolio-valuation/internal/models"
)

// CreateUser inserts a new user
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (name, email, phone)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := db.conn.QueryRowContext(ctx, query, u.Name, nullString(u.Email), nullString(u.Phone)).
		Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID
func (db *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, name, email, phone, created_at
		FROM users
		WHERE id = $1
	`
	if !validID(id) {
		return nil, apperrors.WithMessage(apperrors.ErrUserNotFound, "user not found: "+id)
	}

	var u models.User
	var email, phone sql.NullString
	err := db.conn.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &email, &phone, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.WithMessage(apperrors.ErrUserNotFound, "user not found: "+id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.Email = email.String
	u.Phone = phone.String
	return &u, nil
}
