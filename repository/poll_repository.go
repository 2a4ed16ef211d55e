package repository

import (
	"context"

	"github.com/akinalp/kurye/database"
	"github.com/akinalp/kurye/models"
)

// PollRepository, poll yanıtları için interface.
type PollRepository interface {
	WithTx(q database.TxQuerier) PollRepository
	Create(ctx context.Context, response *models.PollResponse) error
	// Exists, aynı poll'da aynı yanıtın zaten var olup olmadığını döner.
	// unique=true tanımlı poll'larda duplicate engelleme için kullanılır.
	Exists(ctx context.Context, name, response string) (bool, error)
	ListResponses(ctx context.Context, name string) ([]string, error)
}
