// Package handlers, HTTP endpoint'lerini yöneten katman.
//
// Thin handler pattern: handler sadece request parse + response yazımı yapar,
// tüm iş mantığı service katmanındadır. Error → status çevirisi pkg.Error'da.
package handlers

import (
	"net/http"
	"strings"
)

// requestOrigin, request'in dışarıdan görünen origin'ini döner
// ("https://example.com"). Maillere gömülen URL'ler bununla kurulur.
// Reverse proxy arkasında X-Forwarded-Proto'ya güvenilir.
func requestOrigin(r *http.Request) string {
	proto := r.Header.Get("X-Forwarded-Proto")
	if proto == "" {
		if r.TLS != nil {
			proto = "https"
		} else {
			proto = "http"
		}
	}
	return proto + "://" + r.Host
}

// isJSONRequest, Content-Type'ı charset parametresine takılmadan kontrol eder.
func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
