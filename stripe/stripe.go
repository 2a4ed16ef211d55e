// Package stripe, payment provider'a dar bir arayüz sağlar.
//
// Kapsam bilinçli olarak küçük: webhook imza doğrulaması ve checkout
// session okuma. Resmi SDK yerine restricted key ile iki endpoint'lik
// düz HTTP client — bu servis Stripe'ın geri kalanına hiç dokunmaz.
package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"
)

// signatureRegex, Stripe-Signature header'ından timestamp ve v1 imzasını çıkarır.
// Format: "t=1700000000,v1=abcdef..." (v0 gibi ek alanlar yoksayılır).
var signatureRegex = regexp.MustCompile(`t=([0-9]+),v1=([a-f0-9]+)`)

// VerifySignature, webhook payload'ının imzasını doğrular.
// İmza, HMAC-SHA-256(secret, "{timestamp}.{rawBody}") hex digest'idir.
func VerifySignature(secret, header string, payload []byte) error {
	if header == "" {
		return fmt.Errorf("missing webhook signature header")
	}

	match := signatureRegex.FindStringSubmatch(header)
	if match == nil {
		return fmt.Errorf("invalid webhook signature header")
	}
	timestamp, signature := match[1], match[2]

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("wrong webhook signature")
	}

	return nil
}

// Event, webhook body'sinin bizi ilgilendiren kısmı.
type Event struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

// ParseEvent, raw webhook body'sini Event'e decode eder.
func ParseEvent(payload []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook event: %w", err)
	}
	return &event, nil
}

// Customer, checkout session'daki müşteri bilgisi (expand=customer).
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LineItem, satın alınan tek bir kalem.
type LineItem struct {
	Price struct {
		Product string `json:"product"`
	} `json:"price"`
}

// CheckoutSession, expand edilmiş checkout session.
type CheckoutSession struct {
	ID            string   `json:"id"`
	PaymentStatus string   `json:"payment_status"`
	Customer      Customer `json:"customer"`
	LineItems     struct {
		Data []LineItem `json:"data"`
	} `json:"line_items"`
}

// SessionFetcher, webhook handler'ın bağımlı olduğu interface.
type SessionFetcher interface {
	CheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)
}

// Client, restricted API key ile çalışan HTTP client.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient, constructor. baseURL prod'da https://api.stripe.com,
// testlerde httptest server olur.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// CheckoutSession, session'ı customer ve line_items expand edilmiş halde okur.
func (c *Client) CheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	endpoint := fmt.Sprintf(
		"%s/v1/checkout/sessions/%s?expand[]=customer&expand[]=line_items",
		c.baseURL, id,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build checkout session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("checkout session request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("checkout session request returned %d: %s", resp.StatusCode, body)
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}

	return &session, nil
}
