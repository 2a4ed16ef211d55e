// Package templates, giden e-postaların text/template gövdelerini yönetir.
// Şablonlar binary'ye gömülü, runtime'da dosya sistemi bağımlılığı yok.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
	"time"
)

//go:embed *.tmpl
var files embed.FS

var tmpl = template.Must(template.ParseFS(files, "*.tmpl"))

// Party, e-posta taraflarından biri.
type Party struct {
	FirstName string
	Email     string
}

// DefaultData, magic link ve duyuru mailleri için şablon verisi.
type DefaultData struct {
	From    Party
	To      Party
	Message string
}

// OrderConfirmationData, sipariş onay maili için şablon verisi.
// Expiry ve EventOn boş string olabilir, şablon koşullu basar.
type OrderConfirmationData struct {
	From      Party
	To        Party
	Downloads []string
	Links     []string
	Expiry    string
	EventOn   string
}

// Render, adlandırılmış şablonu verilen data ile çalıştırır.
func Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.String(), nil
}

// HumanizeHours, saat cinsinden süreyi okunur metne çevirir.
// Sipariş mailindeki "links expire in a day" tarzı ifade için.
func HumanizeHours(hours int) string {
	switch {
	case hours < 2:
		return "an hour"
	case hours < 22:
		return fmt.Sprintf("%d hours", hours)
	case hours < 36:
		return "a day"
	}
	days := (hours + 12) / 24
	if days < 26 {
		return fmt.Sprintf("%d days", days)
	}
	months := (days + 15) / 30
	if months < 2 {
		return "a month"
	}
	return fmt.Sprintf("%d months", months)
}

// FormatEventTime, etkinlik zamanını "Friday, March 7th 2025 at 8:00PM EST"
// biçiminde basar.
func FormatEventTime(t time.Time) string {
	return fmt.Sprintf(
		"%s, %s %s %d at %s EST",
		t.Weekday(),
		t.Month(),
		ordinal(t.Day()),
		t.Year(),
		t.Format("3:04PM"),
	)
}

func ordinal(day int) string {
	suffix := "th"
	if day < 11 || day > 13 {
		switch day % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", day, suffix)
}
