package models

import (
	"fmt"
	"strings"
)

// Recipient, sipariş onay mailinin alıcısı.
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FirstName, alıcının görünen adının ilk kelimesini döner.
// Mail template'leri hitapta sadece ilk adı kullanır.
func (r Recipient) FirstName() string {
	parts := strings.Fields(r.Name)
	if len(parts) == 0 {
		return r.Name
	}
	return parts[0]
}

// ResendOrderRequest, manuel sipariş onayı (POST /admin) body'si.
// Webhook kaçtığında veya müşteri maili kaybettiğinde operasyon ekibi kullanır.
type ResendOrderRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Path  string `json:"path"`
}

// Validate, ResendOrderRequest'in geçerli olup olmadığını kontrol eder.
func (r *ResendOrderRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("missing name")
	}
	if strings.TrimSpace(r.Email) == "" {
		return fmt.Errorf("missing email")
	}
	if strings.TrimSpace(r.Path) == "" {
		return fmt.Errorf("missing path")
	}
	return nil
}

// StoreRequest, üyelere özel ürün talebi (POST /store) body'si.
type StoreRequest struct {
	Path  string `json:"path"`
	Email string `json:"email"`
}

// Validate, StoreRequest'in geçerli olup olmadığını kontrol eder.
func (r *StoreRequest) Validate() error {
	if strings.TrimSpace(r.Path) == "" {
		return fmt.Errorf("missing path")
	}
	if strings.TrimSpace(r.Email) == "" {
		return fmt.Errorf("missing email")
	}
	return nil
}
