// Package middleware, HTTP request pipeline'ına eklenen ara katmanları barındırır.
//
// Middleware zincir şeklinde çalışır: RequestID → Bearer → Handler.
// Her middleware kendi işini yapar, sorun yoksa next'i çağırır;
// hata varsa zincir orada durur.
package middleware

import (
	"crypto/subtle"
	"log"
	"net/http"

	"github.com/akinalp/kurye/pkg"
)

// BearerMiddleware, paylaşılan secret ile bearer token kontrolü yapar.
//
// İki ayrı secret ile iki instance kurulur: yönetim endpoint'leri
// (ADMIN_TOKEN) ve server-to-server yetki kontrolü (AUTH_TOKEN).
type BearerMiddleware struct {
	token string
}

// NewBearerMiddleware, constructor.
func NewBearerMiddleware(token string) *BearerMiddleware {
	return &BearerMiddleware{token: token}
}

// Require, geçerli "Authorization: Bearer <token>" header'ı zorunlu kılar.
// Header içeriği HİÇBİR ZAMAN loglanmaz — secret log dosyasına sızmamalı.
func (m *BearerMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			log.Printf("[bearer] missing authorization header for %s %s", r.Method, r.URL.Path)
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		expected := "Bearer " + m.token
		if subtle.ConstantTimeCompare([]byte(header), []byte(expected)) != 1 {
			log.Printf("[bearer] wrong authorization header for %s %s", r.Method, r.URL.Path)
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "wrong authorization header")
			return
		}

		next.ServeHTTP(w, r)
	})
}
