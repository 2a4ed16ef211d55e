package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
)

// resendSender, Resend API ile email gönderen Sender implementasyonu.
// Self-host SMTP istemeyen kurulumlar için MAIL_PROVIDER=resend ile seçilir.
type resendSender struct {
	client    *resend.Client
	fromName  string
	fromEmail string
}

// NewResendSender, Resend API client'ı ile yeni bir Sender oluşturur.
// apiKey: Resend dashboard'dan alınan key (re_xxxxxxxx formatında).
// fromEmail: Resend'de doğrulanmış domain altında olmalı.
func NewResendSender(apiKey, fromName, fromEmail string) Sender {
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *resendSender) Send(ctx context.Context, to, subject, text string) error {
	params := &resend.SendEmailRequest{
		From:    Address(s.fromName, s.fromEmail),
		To:      []string{to},
		Subject: subject,
		Text:    text,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send email via resend: %w", err)
	}

	return nil
}
