package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/akinalp/kurye/database"
	"github.com/akinalp/kurye/models"
	"github.com/akinalp/kurye/pkg"
)

// sqliteSessionRepo, SessionRepository interface'inin SQLite implementasyonu.
type sqliteSessionRepo struct {
	db database.TxQuerier
}

// NewSQLiteSessionRepo, constructor.
func NewSQLiteSessionRepo(db database.TxQuerier) SessionRepository {
	return &sqliteSessionRepo{db: db}
}

func (r *sqliteSessionRepo) WithTx(q database.TxQuerier) SessionRepository {
	return &sqliteSessionRepo{db: q}
}

func (r *sqliteSessionRepo) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (user_id, token, hmac)
		VALUES (?, ?, ?)
		RETURNING id, valid, created_at`

	err := r.db.QueryRowContext(ctx, query,
		session.UserID,
		session.Token,
		session.Hmac,
	).Scan(&session.ID, &session.Valid, &session.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

func (r *sqliteSessionRepo) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	query := `
		SELECT id, user_id, token, hmac, valid, created_at
		FROM sessions WHERE token = ?`

	session := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&session.ID, &session.UserID, &session.Token,
		&session.Hmac, &session.Valid, &session.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session by token: %w", err)
	}

	return session, nil
}

// RecentIDs — created_at saniye çözünürlüklü olduğu için aynı saniyede
// oluşan session'larda sıra belirsiz kalabilir; rowid tiebreaker
// insertion sırasını garanti eder.
func (r *sqliteSessionRepo) RecentIDs(ctx context.Context, userID string, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `
		SELECT id FROM sessions
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session rows: %w", err)
	}

	return ids, nil
}

func (r *sqliteSessionRepo) InvalidateOthers(ctx context.Context, userID string, keepIDs []string) error {
	if len(keepIDs) == 0 {
		_, err := r.db.ExecContext(ctx,
			`UPDATE sessions SET valid = 0 WHERE user_id = ?`, userID)
		if err != nil {
			return fmt.Errorf("failed to invalidate sessions: %w", err)
		}
		return nil
	}

	// IN (?) placeholder'ları dinamik — keepIDs uzunluğu config'e bağlı.
	placeholders := strings.Repeat("?,", len(keepIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(keepIDs)+1)
	args = append(args, userID)
	for _, id := range keepIDs {
		args = append(args, id)
	}

	query := fmt.Sprintf(
		`UPDATE sessions SET valid = 0 WHERE user_id = ? AND id NOT IN (%s)`,
		placeholders,
	)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to invalidate sessions: %w", err)
	}

	return nil
}
