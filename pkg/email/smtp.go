package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
)

// smtpSender, net/smtp ile email gönderen Sender implementasyonu.
//
// İki mod:
//   - local (host == "localhost"): auth yok, STARTTLS varsa self-signed
//     sertifika kabul edilir. Self-host SMTP relay senaryosu.
//   - remote: STARTTLS ZORUNLU + PLAIN auth. Sağlayıcı STARTTLS sunmuyorsa
//     gönderim reddedilir — credential'lar asla düz metin gitmez.
type smtpSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
	local     bool
}

// NewSMTPSender, SMTP relay üzerinden gönderen bir Sender oluşturur.
// host "localhost" ise local mod aktif olur (bkz. smtpSender).
func NewSMTPSender(host string, port int, username, password, fromName, fromEmail string) Sender {
	return &smtpSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
		local:     host == "localhost",
	}
}

func (s *smtpSender) Send(ctx context.Context, to, subject, text string) error {
	// net/smtp context bilmez — en azından iptal edilmiş context ile
	// bağlantı açmayı baştan kes.
	if err := ctx.Err(); err != nil {
		return err
	}

	rcpt, err := extractAddress(to)
	if err != nil {
		return fmt.Errorf("invalid recipient %q: %w", to, err)
	}

	addr := net.JoinHostPort(s.host, fmt.Sprintf("%d", s.port))
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to smtp relay: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{
			ServerName:         s.host,
			InsecureSkipVerify: s.local,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("starttls failed: %w", err)
		}
	} else if !s.local {
		return fmt.Errorf("smtp relay %s does not support STARTTLS", s.host)
	}

	if !s.local {
		auth := smtp.PlainAuth("", s.username, s.password, s.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth failed: %w", err)
		}
	}

	if err := client.Mail(s.fromEmail); err != nil {
		return fmt.Errorf("smtp MAIL failed: %w", err)
	}
	if err := client.Rcpt(rcpt); err != nil {
		return fmt.Errorf("smtp RCPT failed: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA failed: %w", err)
	}
	if _, err := w.Write(s.buildMessage(to, subject, text)); err != nil {
		return fmt.Errorf("failed to write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish message body: %w", err)
	}

	return client.Quit()
}

// buildMessage, RFC 5322 formatında plaintext mesaj üretir.
// Header satırları CRLF ile ayrılır; body olduğu gibi eklenir.
func (s *smtpSender) buildMessage(to, subject, text string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", Address(s.fromName, s.fromEmail))
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(text)
	return []byte(b.String())
}

// extractAddress, "Name <email>" veya düz "email" string'inden
// SMTP envelope için saf adresi çıkarır.
func extractAddress(to string) (string, error) {
	parsed, err := mail.ParseAddress(to)
	if err != nil {
		return "", err
	}
	return parsed.Address, nil
}
