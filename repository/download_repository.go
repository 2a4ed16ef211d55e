package repository

import (
	"context"
	"time"

	"github.com/akinalp/kurye/database"
	"github.com/akinalp/kurye/models"
)

// DownloadRepository, indirme hakları için interface.
type DownloadRepository interface {
	WithTx(q database.TxQuerier) DownloadRepository
	Create(ctx context.Context, download *models.Download) error
	GetByToken(ctx context.Context, token string) (*models.Download, error)
	// StartExpiry, ilk redemption'da süre saatini başlatır.
	// Sadece expires_on hala NULL ise yazar — eşzamanlı iki redemption'da
	// saat bir kez başlar.
	StartExpiry(ctx context.Context, id string, expiresOn time.Time) error
}
