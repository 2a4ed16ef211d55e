package repository

import (
	"context"
	"fmt"

	"github.com/akinalp/kurye/database"
	"github.com/akinalp/kurye/models"
)

// sqlitePollRepo, PollRepository'nin SQLite implementasyonu.
type sqlitePollRepo struct {
	db database.TxQuerier
}

// NewSQLitePollRepo, constructor.
func NewSQLitePollRepo(db database.TxQuerier) PollRepository {
	return &sqlitePollRepo{db: db}
}

func (r *sqlitePollRepo) WithTx(q database.TxQuerier) PollRepository {
	return &sqlitePollRepo{db: q}
}

func (r *sqlitePollRepo) Create(ctx context.Context, response *models.PollResponse) error {
	query := `
		INSERT INTO poll_responses (name, response)
		VALUES (?, ?)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		response.Name,
		response.Response,
	).Scan(&response.ID, &response.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create poll response: %w", err)
	}

	return nil
}

func (r *sqlitePollRepo) Exists(ctx context.Context, name, response string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM poll_responses WHERE name = ? AND response = ?`,
		name, response,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check poll response: %w", err)
	}
	return count > 0, nil
}

func (r *sqlitePollRepo) ListResponses(ctx context.Context, name string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT response FROM poll_responses WHERE name = ? ORDER BY created_at, rowid`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query poll responses: %w", err)
	}
	defer rows.Close()

	var responses []string
	for rows.Next() {
		var response string
		if err := rows.Scan(&response); err != nil {
			return nil, fmt.Errorf("failed to scan poll response: %w", err)
		}
		responses = append(responses, response)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate poll responses: %w", err)
	}

	return responses, nil
}
