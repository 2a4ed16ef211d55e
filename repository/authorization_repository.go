package repository

import (
	"context"
	"time"

	"github.com/akinalp/kurye/database"
	"github.com/akinalp/kurye/models"
)

// AuthorizationRepository, süreli erişim hakları için interface.
// Upsert semantiği (varsa tazele, yoksa oluştur) service katmanında
// GetByUserAndPath + UpdateExpiry/Create ile, transaction içinde kurulur.
type AuthorizationRepository interface {
	WithTx(q database.TxQuerier) AuthorizationRepository
	Create(ctx context.Context, auth *models.Authorization) error
	GetByUserAndPath(ctx context.Context, userID, path string) (*models.Authorization, error)
	UpdateExpiry(ctx context.Context, id string, expiresOn time.Time) error
}
