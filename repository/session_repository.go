package repository

import (
	"context"

	"github.com/akinalp/kurye/database"
	"github.com/akinalp/kurye/models"
)

// SessionRepository, magic link oturumları için interface.
type SessionRepository interface {
	WithTx(q database.TxQuerier) SessionRepository
	Create(ctx context.Context, session *models.Session) error
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	// RecentIDs, kullanıcının en yeni limit session'ının id'lerini döner
	// (oluşturulma sırasına göre, en yenisi önce).
	RecentIDs(ctx context.Context, userID string, limit int) ([]string, error)
	// InvalidateOthers, kullanıcının keepIDs dışındaki tüm session'larını
	// geçersiz işaretler (silmez). Session rotation bununla yapılır.
	InvalidateOthers(ctx context.Context, userID string, keepIDs []string) error
}
