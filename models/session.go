package models

import (
	"fmt"
	"strings"
	"time"
)

// Session, başarılı bir magic link redemption'ında oluşturulan oturumu temsil eder.
//
// Token opak bir capability'dir, cookie olarak client'ta yaşar.
// Hmac, (salt, client IP) çiftinin imzasıdır — salt ayrı cookie'de döner,
// kod burada saklanır. Şu an sadece yazılır, request'lerde yeniden
// doğrulanmaz (ürün kararı bekliyor).
//
// Valid=false: session concurrency limiti aşıldığında eski session'lar
// silinmez, geçersiz işaretlenir — geçmiş kaybolmaz.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"-"`
	Hmac      string    `json:"-"`
	Valid     bool      `json:"valid"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthorizeRequest, server-to-server yetki kontrolü (POST /authorize) body'si.
type AuthorizeRequest struct {
	SessionSalt  string `json:"sessionSalt"`
	SessionToken string `json:"sessionToken"`
	Path         string `json:"path"`
}

// Validate, AuthorizeRequest'in geçerli olup olmadığını kontrol eder.
func (r *AuthorizeRequest) Validate() error {
	if strings.TrimSpace(r.SessionSalt) == "" {
		return fmt.Errorf("missing session salt")
	}
	if strings.TrimSpace(r.SessionToken) == "" {
		return fmt.Errorf("missing session token")
	}
	if strings.TrimSpace(r.Path) == "" {
		return fmt.Errorf("missing path")
	}
	return nil
}
