package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akinalp/kurye/database"
	"github.com/akinalp/kurye/models"
	"github.com/akinalp/kurye/pkg"
)

// sqliteAuthorizationRepo, AuthorizationRepository'nin SQLite implementasyonu.
type sqliteAuthorizationRepo struct {
	db database.TxQuerier
}

// NewSQLiteAuthorizationRepo, constructor.
func NewSQLiteAuthorizationRepo(db database.TxQuerier) AuthorizationRepository {
	return &sqliteAuthorizationRepo{db: db}
}

func (r *sqliteAuthorizationRepo) WithTx(q database.TxQuerier) AuthorizationRepository {
	return &sqliteAuthorizationRepo{db: q}
}

func (r *sqliteAuthorizationRepo) Create(ctx context.Context, auth *models.Authorization) error {
	query := `
		INSERT INTO authorizations (user_id, path, expires_on)
		VALUES (?, ?, ?)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		auth.UserID,
		auth.Path,
		auth.ExpiresOn,
	).Scan(&auth.ID, &auth.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create authorization: %w", err)
	}

	return nil
}

func (r *sqliteAuthorizationRepo) GetByUserAndPath(ctx context.Context, userID, path string) (*models.Authorization, error) {
	query := `
		SELECT id, user_id, path, expires_on, created_at
		FROM authorizations WHERE user_id = ? AND path = ?`

	auth := &models.Authorization{}
	err := r.db.QueryRowContext(ctx, query, userID, path).Scan(
		&auth.ID, &auth.UserID, &auth.Path, &auth.ExpiresOn, &auth.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization: %w", err)
	}

	return auth, nil
}

func (r *sqliteAuthorizationRepo) UpdateExpiry(ctx context.Context, id string, expiresOn time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE authorizations SET expires_on = ? WHERE id = ?`, expiresOn, id)
	if err != nil {
		return fmt.Errorf("failed to update authorization expiry: %w", err)
	}
	return nil
}
