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

// sqliteDownloadRepo, DownloadRepository'nin SQLite implementasyonu.
type sqliteDownloadRepo struct {
	db database.TxQuerier
}

// NewSQLiteDownloadRepo, constructor.
func NewSQLiteDownloadRepo(db database.TxQuerier) DownloadRepository {
	return &sqliteDownloadRepo{db: db}
}

func (r *sqliteDownloadRepo) WithTx(q database.TxQuerier) DownloadRepository {
	return &sqliteDownloadRepo{db: q}
}

func (r *sqliteDownloadRepo) Create(ctx context.Context, download *models.Download) error {
	query := `
		INSERT INTO downloads (path, filename, token)
		VALUES (?, ?, ?)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		download.Path,
		download.Filename,
		download.Token,
	).Scan(&download.ID, &download.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create download: %w", err)
	}

	return nil
}

func (r *sqliteDownloadRepo) GetByToken(ctx context.Context, token string) (*models.Download, error) {
	query := `
		SELECT id, path, filename, token, expires_on, created_at
		FROM downloads WHERE token = ?`

	download := &models.Download{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&download.ID, &download.Path, &download.Filename,
		&download.Token, &download.ExpiresOn, &download.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get download by token: %w", err)
	}

	return download, nil
}

func (r *sqliteDownloadRepo) StartExpiry(ctx context.Context, id string, expiresOn time.Time) error {
	// expires_on IS NULL koşulu: saat sadece bir kez başlar.
	_, err := r.db.ExecContext(ctx,
		`UPDATE downloads SET expires_on = ? WHERE id = ? AND expires_on IS NULL`,
		expiresOn, id)
	if err != nil {
		return fmt.Errorf("failed to start download expiry: %w", err)
	}
	return nil
}
