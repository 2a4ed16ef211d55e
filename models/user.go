// Package models, uygulamanın domain modellerini tanımlar.
//
// Model, veritabanındaki bir tablonun Go karşılığıdır; request struct'ları
// ise API'den gelen verilerin şeklini ve validation kurallarını taşır.
package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// User, magic link ile giriş yapabilen bir hesabı temsil eder.
//
// Kimlik email'in kendisi değil, HMAC'idir — ham email hiçbir zaman
// persist edilmez. Token, bekleyen (henüz tıklanmamış) magic link token'ıdır;
// nil ise bekleyen link yoktur. Her yeni login isteği eskisinin üzerine yazar,
// redemption anında temizlenir — single use.
type User struct {
	ID        string    `json:"id"`
	EmailHmac string    `json:"email_hmac"`
	Token     *string   `json:"-"` // bekleyen login token — API'ye gönderilmez
	CreatedAt time.Time `json:"created_at"`
}

// LoginRequest, magic link isteği (POST /login) body'si.
type LoginRequest struct {
	Email    string `json:"email"`
	Redirect string `json:"redirect"`
}

// Validate, LoginRequest'in geçerli olup olmadığını kontrol eder.
func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return fmt.Errorf("missing email")
	}
	if strings.TrimSpace(r.Redirect) == "" {
		return fmt.Errorf("missing redirect")
	}
	return nil
}

// emailRegex, poll email yanıtları için basit format kontrolü.
// Tam RFC 5322 değil — kasıtlı olarak orijinal servisle aynı tolerans.
var emailRegex = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// IsEmail, string'in email formatında olup olmadığını döner.
func IsEmail(s string) bool {
	return emailRegex.MatchString(s)
}
