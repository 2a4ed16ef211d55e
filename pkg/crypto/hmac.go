// Package crypto — HMAC-SHA-256 tabanlı keyed-hash yardımcıları.
//
// İki kullanım var:
//  1. EmailHash: email adresinden deterministik, geri döndürülemez bir kimlik
//     üretir. DB'de ham email ASLA saklanmaz — kullanıcı lookup'ı bu hash ile
//     yapılır. Key'siz SHA-256 yeterli olmazdı: email adresleri düşük entropili
//     olduğu için rainbow table ile geri çevrilebilir.
//  2. SessionCode: session salt'ı + client IP'den doğrulama kodu üretir.
//     Cookie'deki salt ile DB'deki kod, IP'ye bağlı bir kontrol imkanı verir.
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// EmailHash, normalize edilmiş email'in keyed hash'ini hex digest olarak döner.
// Normalizasyon: trim + lowercase. Aynı email her zaman aynı hash'i verir —
// bu hash User tablosunun lookup anahtarıdır.
func EmailHash(secret []byte, email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(normalized))
	return hex.EncodeToString(mac.Sum(nil))
}

// SessionCode, (salt, clientIP) çiftini imzalayıp hex digest döner.
// Salt cookie olarak client'a gider, kod session satırında saklanır.
func SessionCode(secret []byte, salt, clientIP string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(salt + clientIP))
	return hex.EncodeToString(mac.Sum(nil))
}

// Equal, iki digest'i sabit zamanda karşılaştırır.
func Equal(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
