// Package email, uygulama genelinde email gönderimi için soyutlama katmanı sağlar.
//
// Sender interface'i ile gönderim detayları soyutlanır (Dependency Inversion).
// İki implementasyon var:
//   - smtpSender: klasik SMTP relay (self-host veya harici SMTP sağlayıcı)
//   - resendSender: Resend API (MAIL_PROVIDER=resend ile seçilir)
//
// Service katmanı sadece Sender interface'ine bağımlıdır; hangi transport'un
// kullanıldığını main.go'daki wire-up belirler.
package email

import "context"

// Sender, tek bir plaintext email gönderir.
// to: alıcı adresi ("Ada Lovelace <ada@example.com>" formatı da kabul edilir).
// Transport hatası error olarak döner; retry YAPILMAZ — caller karar verir.
type Sender interface {
	Send(ctx context.Context, to, subject, text string) error
}

// Address, "Name <email>" formatında bir adres string'i üretir.
func Address(name, addr string) string {
	if name == "" {
		return addr
	}
	return name + " <" + addr + ">"
}
