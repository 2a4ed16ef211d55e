// Package ghost, content platform'un Admin API'sine dar bir client sağlar.
//
// Tek ihtiyacımız üyelik doğrulaması: /store isteğindeki email gerçekten
// kayıtlı bir üye mi? Admin API auth'u kısa ömürlü bir JWT ister:
// admin key "id:secret" formatındadır, token HS256 ile secret'ın hex
// decode'u üzerinden imzalanır ve header'da key id (kid) taşır.
package ghost

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/akinalp/kurye/pkg"
)

// Member, content platform'daki bir üye.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// MemberFinder, üyelik doğrulaması için interface.
// Store handler buna bağımlıdır — testlerde stub'lanır.
type MemberFinder interface {
	// FindMemberByEmail, email'e tam olarak bir üye karşılık geliyorsa onu
	// döner. Üye yoksa (veya birden fazla eşleşme varsa) pkg.ErrNotFound.
	FindMemberByEmail(ctx context.Context, email string) (*Member, error)
}

// Client, Admin API HTTP client'ı.
type Client struct {
	apiURL    string
	keyID     string
	keySecret []byte
	http      *http.Client
}

// NewClient, "id:secret" formatındaki admin key ile client oluşturur.
func NewClient(apiURL, adminAPIKey string) (*Client, error) {
	id, secret, ok := strings.Cut(adminAPIKey, ":")
	if !ok || id == "" || secret == "" {
		return nil, fmt.Errorf("admin api key must be in id:secret format")
	}

	secretBytes, err := hex.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("admin api key secret is not valid hex: %w", err)
	}

	return &Client{
		apiURL:    strings.TrimRight(apiURL, "/"),
		keyID:     id,
		keySecret: secretBytes,
		http:      &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// FindMemberByEmail, Admin API'de email filter'ı ile üye arar.
func (c *Client) FindMemberByEmail(ctx context.Context, email string) (*Member, error) {
	token, err := c.adminToken()
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/ghost/api/v4/admin/members/?filter=%s",
		c.apiURL, url.QueryEscape(fmt.Sprintf("email:'%s'", email)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build members request: %w", err)
	}
	req.Header.Set("Authorization", "Ghost "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("members request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("members request returned %d: %s", resp.StatusCode, body)
	}

	var result struct {
		Members []Member `json:"members"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode members response: %w", err)
	}

	// Tam olarak bir üye beklenir — sıfır da birden fazla da "üye değil".
	if len(result.Members) != 1 {
		return nil, pkg.ErrNotFound
	}

	member := result.Members[0]
	return &member, nil
}

// adminToken, 5 dakika ömürlü bir Admin API JWT üretir.
func (c *Client) adminToken() (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(5 * time.Minute).Unix(),
		"aud": "/v4/admin/",
	})
	token.Header["kid"] = c.keyID

	signed, err := token.SignedString(c.keySecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign admin token: %w", err)
	}
	return signed, nil
}
