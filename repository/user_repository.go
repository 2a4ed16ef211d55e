// Package repository, veritabanı erişim katmanını tanımlar.
//
// Her entity için dar bir interface + SQLite implementasyonu vardır.
// Service katmanı doğrudan SQL yazmaz — interface üzerinden çalışır.
// WithTx method'u, aynı repository'nin transaction'a bağlı bir kopyasını
// döner; multi-step diziler database.WithTx içinde bu kopyalarla çalışır.
package repository

import (
	"context"

	"github.com/akinalp/kurye/database"
	"github.com/akinalp/kurye/models"
)

// UserRepository, kullanıcı veritabanı işlemleri için interface.
type UserRepository interface {
	// WithTx, transaction'a bağlı bir kopya döner.
	WithTx(q database.TxQuerier) UserRepository
	// Upsert, email hash'i ile kullanıcıyı bulur veya oluşturur ve bekleyen
	// login token'ını verilen değerle değiştirir (eski link geçersizleşir).
	Upsert(ctx context.Context, emailHmac, token string) (*models.User, error)
	GetByEmailHmac(ctx context.Context, emailHmac string) (*models.User, error)
	// SetPendingToken, bekleyen token'ı günceller. Login isteğinde yeni token
	// yazılır; redemption'da nil geçilerek temizlenir (single use).
	SetPendingToken(ctx context.Context, userID string, token *string) error
}
