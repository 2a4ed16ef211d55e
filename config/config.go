// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
//
// Her alt bölüm ayrı bir struct — her struct tek bir concern'ü temsil eder.
// Eksik secret (HMAC key, bearer token, webhook signing secret) startup'ta
// hard failure'dır; yarım konfigürasyonla ayakta durmak istemiyoruz.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Download DownloadConfig
	Mail     MailConfig
	Stripe   StripeConfig
	Ghost    GhostConfig
	Catalog  CatalogConfig
}

// ServerConfig, HTTP server ayarları.
type ServerConfig struct {
	Host        string
	Port        int
	CORSOrigins []string // Formların POST edildiği origin'ler (content platform)
}

// DatabaseConfig, SQLite database ayarları.
type DatabaseConfig struct {
	Path string // SQLite dosya yolu (ör: ./data/kurye.db)
}

// AuthConfig, magic link / session / yetkilendirme ayarları.
type AuthConfig struct {
	HMACSecret         string // Email hash ve session code imzalama anahtarı — GİZLİ
	SessionConcurrency int    // Kullanıcı başına eşzamanlı geçerli session sayısı
	AdminToken         string // /admin ve /polls yönetim endpoint'lerinin bearer secret'ı
	AuthToken          string // /authorize server-to-server bearer secret'ı
}

// DownloadConfig, download link ayarları.
type DownloadConfig struct {
	Dir         string // Dosyaların sunulduğu dizin
	ExpiryHours int    // İlk tıklamadan sonra linkin geçerlilik süresi (saat)
}

// MailConfig, email transport ayarları.
// Provider "smtp" veya "resend" olabilir.
type MailConfig struct {
	Provider     string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	ResendAPIKey string
	FromName     string
	FromEmail    string
}

// LocalRelay, self-host SMTP relay kullanılıp kullanılmadığını döner.
// Toplu gönderimde throttle kararı buna bakar.
func (m *MailConfig) LocalRelay() bool {
	return m.Provider == "smtp" && m.SMTPHost == "localhost"
}

// StripeConfig, payment webhook ve API ayarları.
type StripeConfig struct {
	WebhookSigningSecret string // Webhook imza doğrulama secret'ı — GİZLİ
	APIBaseURL           string
	RestrictedAPIKey     string // Sadece checkout session okuyabilen restricted key
	GhostJoinProductID   string // Üyelik aboneliği — sipariş maili atlanır
}

// GhostConfig, content platform (Ghost) Admin API ayarları.
type GhostConfig struct {
	APIURL                string
	AdminAPIKey           string // "id:secret" formatında
	StoreConfirmationPage string
	PollsConfirmationPage string
}

// CatalogConfig, flat-file katalog ayarları.
type CatalogConfig struct {
	StorePath string // Ürün tanımları (store.json)
	PollsPath string // Poll tanımları (polls.json)
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler (development kolaylığı için).
func Load() (*Config, error) {
	// Dosya yoksa hata vermez — production'da gerçek env variable'lar kullanılır.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "3080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	sessionConcurrency, err := strconv.Atoi(getEnv("SESSION_CONCURRENCY", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_CONCURRENCY: %w", err)
	}
	if sessionConcurrency < 1 {
		return nil, fmt.Errorf("SESSION_CONCURRENCY must be at least 1")
	}

	downloadExpiry, err := strconv.Atoi(getEnv("DOWNLOAD_LINK_EXPIRY", "24"))
	if err != nil {
		return nil, fmt.Errorf("invalid DOWNLOAD_LINK_EXPIRY: %w", err)
	}

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("HOST", "0.0.0.0"),
			Port:        port,
			CORSOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/kurye.db"),
		},
		Auth: AuthConfig{
			HMACSecret:         os.Getenv("HMAC_SECRET"),
			SessionConcurrency: sessionConcurrency,
			AdminToken:         os.Getenv("ADMIN_TOKEN"),
			AuthToken:          os.Getenv("AUTH_TOKEN"),
		},
		Download: DownloadConfig{
			Dir:         getEnv("DOWNLOADS_DIR", "./downloads"),
			ExpiryHours: downloadExpiry,
		},
		Mail: MailConfig{
			Provider:     getEnv("MAIL_PROVIDER", "smtp"),
			SMTPHost:     getEnv("SMTP_HOST", "localhost"),
			SMTPPort:     smtpPort,
			SMTPUsername: os.Getenv("SMTP_USERNAME"),
			SMTPPassword: os.Getenv("SMTP_PASSWORD"),
			ResendAPIKey: os.Getenv("RESEND_API_KEY"),
			FromName:     getEnv("FROM_NAME", "Kurye"),
			FromEmail:    os.Getenv("FROM_EMAIL"),
		},
		Stripe: StripeConfig{
			WebhookSigningSecret: os.Getenv("STRIPE_WEBHOOK_SIGNING_SECRET"),
			APIBaseURL:           getEnv("STRIPE_API_PREFIX_URL", "https://api.stripe.com"),
			RestrictedAPIKey:     os.Getenv("STRIPE_RESTRICTED_API_KEY_TOKEN"),
			GhostJoinProductID:   os.Getenv("STRIPE_GHOST_JOIN_PRODUCT_ID"),
		},
		Ghost: GhostConfig{
			APIURL:                os.Getenv("GHOST_API_URL"),
			AdminAPIKey:           os.Getenv("GHOST_ADMIN_API_KEY"),
			StoreConfirmationPage: os.Getenv("GHOST_STORE_CONFIRMATION_PAGE"),
			PollsConfirmationPage: os.Getenv("GHOST_POLLS_CONFIRMATION_PAGE"),
		},
		Catalog: CatalogConfig{
			StorePath: getEnv("STORE_PATH", "./store.json"),
			PollsPath: getEnv("POLLS_PATH", "./polls.json"),
		},
	}

	// Zorunlu secret'lar — eksikse start etme.
	required := map[string]string{
		"HMAC_SECRET":                   cfg.Auth.HMACSecret,
		"ADMIN_TOKEN":                   cfg.Auth.AdminToken,
		"AUTH_TOKEN":                    cfg.Auth.AuthToken,
		"STRIPE_WEBHOOK_SIGNING_SECRET": cfg.Stripe.WebhookSigningSecret,
		"FROM_EMAIL":                    cfg.Mail.FromEmail,
	}
	for key, val := range required {
		if val == "" {
			return nil, fmt.Errorf("%s environment variable is required", key)
		}
	}

	switch cfg.Mail.Provider {
	case "smtp":
		// localhost relay auth istemez; uzak relay için credential zorunlu
		if cfg.Mail.SMTPHost != "localhost" && (cfg.Mail.SMTPUsername == "" || cfg.Mail.SMTPPassword == "") {
			return nil, fmt.Errorf("SMTP_USERNAME and SMTP_PASSWORD are required for remote SMTP host")
		}
	case "resend":
		if cfg.Mail.ResendAPIKey == "" {
			return nil, fmt.Errorf("RESEND_API_KEY environment variable is required for resend provider")
		}
	default:
		return nil, fmt.Errorf("invalid MAIL_PROVIDER %q (expected smtp or resend)", cfg.Mail.Provider)
	}

	return cfg, nil
}

// Addr, HTTP server'ın dinleyeceği adresi döner (ör: "0.0.0.0:3080").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// splitList, virgülle ayrılmış env değerini listeye çevirir. Boş → nil.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getEnv, environment variable'ı okur, yoksa fallback değeri döner.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
