// Package database — transaction yönetimi.
//
// Magic link redemption gibi read-then-write dizileri (token'ı bul → temizle →
// session'ları döndür → yeni session yaz) transaction olmadan race'e açıktır:
// aynı link iki kez aynı anda redeem edilirse iki session oluşabilir.
// WithTx bu dizileri tek bir atomik birim olarak çalıştırır.
package database

import (
	"context"
	"database/sql"
	"fmt"
)

// TxQuerier, hem *sql.DB hem *sql.Tx tarafından karşılanan interface.
// Repository'ler bu interface'i alır; normal akışta *sql.DB,
// WithTx içinde *sql.Tx geçilir.
type TxQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx, verilen fonksiyonu bir SQL transaction içinde çalıştırır.
// fn nil dönerse COMMIT, error dönerse ROLLBACK. fn panic atarsa
// ROLLBACK yapılıp panic tekrar fırlatılır — transaction açık kalmaz.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}

		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
			return
		}

		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	err = fn(tx)
	return
}
