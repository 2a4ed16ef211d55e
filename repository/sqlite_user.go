package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akinalp/kurye/database"
	"github.com/akinalp/kurye/models"
	"github.com/akinalp/kurye/pkg"
)

// sqliteUserRepo, UserRepository interface'inin SQLite implementasyonu.
type sqliteUserRepo struct {
	db database.TxQuerier
}

// NewSQLiteUserRepo, constructor.
func NewSQLiteUserRepo(db database.TxQuerier) UserRepository {
	return &sqliteUserRepo{db: db}
}

func (r *sqliteUserRepo) WithTx(q database.TxQuerier) UserRepository {
	return &sqliteUserRepo{db: q}
}

func (r *sqliteUserRepo) Upsert(ctx context.Context, emailHmac, token string) (*models.User, error) {
	query := `
		INSERT INTO users (email_hmac, token)
		VALUES (?, ?)
		ON CONFLICT (email_hmac) DO UPDATE SET token = excluded.token
		RETURNING id, email_hmac, token, created_at`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, emailHmac, token).Scan(
		&user.ID, &user.EmailHmac, &user.Token, &user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return user, nil
}

func (r *sqliteUserRepo) GetByEmailHmac(ctx context.Context, emailHmac string) (*models.User, error) {
	query := `
		SELECT id, email_hmac, token, created_at
		FROM users WHERE email_hmac = ?`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, emailHmac).Scan(
		&user.ID, &user.EmailHmac, &user.Token, &user.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email hmac: %w", err)
	}

	return user, nil
}

func (r *sqliteUserRepo) SetPendingToken(ctx context.Context, userID string, token *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET token = ? WHERE id = ?`, token, userID)
	if err != nil {
		return fmt.Errorf("failed to set pending token: %w", err)
	}
	return nil
}
