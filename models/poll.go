package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxPollResponseLength, tek bir poll yanıtının karakter sınırı.
// DB kolonu VARCHAR(1024) — sınır şema ile aynı tutulur.
const MaxPollResponseLength = 1024

// PollResponse, bir poll'a verilmiş tek bir yanıtı temsil eder.
type PollResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// PollSubmission, yanıt gönderimi (POST /polls) body'si.
type PollSubmission struct {
	Name     string `json:"name"`
	Response string `json:"response"`
}

// Validate, PollSubmission'ın geçerli olup olmadığını kontrol eder.
// Yanıt trim'lenir — tip bazlı kontroller (email formatı, uzunluk)
// poll tanımına bağlı olduğu için service katmanında yapılır.
func (p *PollSubmission) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("missing name")
	}
	p.Response = strings.TrimSpace(p.Response)
	if p.Response == "" {
		return fmt.Errorf("missing response")
	}
	return nil
}

// PollBroadcastRequest, toplu mail gönderimi (POST /polls/{name}/sendmail) body'si.
// Preview true ise mail sadece FROM adresine gider — içerik kontrolü için.
type PollBroadcastRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Preview bool   `json:"preview"`
}

// Validate, PollBroadcastRequest'in geçerli olup olmadığını kontrol eder.
func (p *PollBroadcastRequest) Validate() error {
	if strings.TrimSpace(p.Subject) == "" {
		return fmt.Errorf("missing subject")
	}
	if strings.TrimSpace(p.Body) == "" {
		return fmt.Errorf("missing body")
	}
	return nil
}

// ValidatePollResponseLength, yanıt uzunluğunu rune bazında kontrol eder.
func ValidatePollResponseLength(response string) error {
	if utf8.RuneCountInString(response) > MaxPollResponseLength {
		return fmt.Errorf("invalid response (too long)")
	}
	return nil
}
