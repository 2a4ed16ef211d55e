// Package catalog, flat-file ürün ve poll tanımlarını yönetir.
//
// Tanımlar startup'ta JSON dosyalarından okunur ve read-only snapshot olarak
// bellekte tutulur. Global mutable state yok — snapshot inject edilir,
// değişiklik ancak explicit Reload() ile görünür olur.
//
// store.json şekli:
//
//	{
//	  "kitap/deneme": {
//	    "id": "prod_xxx",
//	    "name": "Deneme Kitabı",
//	    "files": { "deneme.epub": "deneme-v2.epub" },
//	    "links": ["https://..."],
//	    "members": true,
//	    "eventOn": "2026-10-01T19:00:00Z",
//	    "cdn": { "redirect": "/kitap/deneme", "expiry": { "amount": 3, "unit": "months" } }
//	  }
//	}
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"
)

// Expiry, "3 ay", "2 hafta" gibi insan ölçekli bir süreyi temsil eder.
// Takvim bazlı birimler (ay, yıl) time.Duration ile ifade edilemez,
// AddDate ile hesaplanır.
type Expiry struct {
	Amount int    `json:"amount"`
	Unit   string `json:"unit"` // hours, days, weeks, months, years
}

// From, verilen andan itibaren sürenin dolacağı zamanı döner.
// Bilinmeyen unit için error — sessizce sıfır süre vermek,
// satın alınmış erişimi anında bitirmek demek olurdu.
func (e Expiry) From(now time.Time) (time.Time, error) {
	switch e.Unit {
	case "hour", "hours":
		return now.Add(time.Duration(e.Amount) * time.Hour), nil
	case "day", "days":
		return now.AddDate(0, 0, e.Amount), nil
	case "week", "weeks":
		return now.AddDate(0, 0, 7*e.Amount), nil
	case "month", "months":
		return now.AddDate(0, e.Amount, 0), nil
	case "year", "years":
		return now.AddDate(e.Amount, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unknown expiry unit %q", e.Unit)
	}
}

// CDN, üyelik korumalı içerik erişim tanımı.
// Bu blok varsa sipariş onayında magic-link + Authorization üretilir.
type CDN struct {
	Redirect string `json:"redirect"` // login sonrası gidilecek path
	Expiry   Expiry `json:"expiry"`
}

// Product, katalogtaki tek bir ürünü temsil eder.
type Product struct {
	ID      string            `json:"id"`      // payment provider'daki ürün id'si
	Name    string            `json:"name"`    // mail subject olarak kullanılır
	Files   map[string]string `json:"files"`   // filename → downloads dizinindeki dosya
	Links   []string          `json:"links"`   // maile eklenecek sabit linkler
	CDN     *CDN              `json:"cdn"`     // nil ise korumalı içerik yok
	Members bool              `json:"members"` // üyelere ücretsiz mi
	EventOn string            `json:"eventOn"` // opsiyonel etkinlik tarihi (RFC 3339)
}

// Store, path → Product snapshot'ı.
type Store struct {
	path string

	mu       sync.RWMutex
	products map[string]*Product
}

// LoadStore, store.json'ı okuyup snapshot oluşturur.
// Dosya yoksa boş bir katalog ile oluşturulur (ilk kurulum kolaylığı).
func LoadStore(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload, dosyayı yeniden okur ve snapshot'ı atomik olarak değiştirir.
// Okuma hatasında mevcut snapshot korunur.
func (s *Store) Reload() error {
	products := make(map[string]*Product)
	if err := loadJSONFile(s.path, &products); err != nil {
		return fmt.Errorf("failed to load store catalog: %w", err)
	}

	s.mu.Lock()
	s.products = products
	s.mu.Unlock()
	return nil
}

// Get, verilen path'teki ürünü döner.
func (s *Store) Get(path string) (*Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[path]
	return p, ok
}

// FindByExternalID, payment provider ürün id'sinden (path, product) bulur.
// Webhook'tan gelen line item'ları katalogla eşleştirmek için kullanılır.
func (s *Store) FindByExternalID(id string) (string, *Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for path, p := range s.products {
		if p.ID == id {
			return path, p, true
		}
	}
	return "", nil, false
}

// Poll, tek bir poll tanımı.
type Poll struct {
	Type   string `json:"type"`   // "email" veya "text"
	Unique bool   `json:"unique"` // duplicate yanıt engellensin mi
}

// Polls, name → Poll snapshot'ı.
type Polls struct {
	path string

	mu    sync.RWMutex
	polls map[string]*Poll
}

// LoadPolls, polls.json'ı okuyup snapshot oluşturur.
func LoadPolls(path string) (*Polls, error) {
	p := &Polls{path: path}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload, dosyayı yeniden okur ve snapshot'ı atomik olarak değiştirir.
func (p *Polls) Reload() error {
	polls := make(map[string]*Poll)
	if err := loadJSONFile(p.path, &polls); err != nil {
		return fmt.Errorf("failed to load poll definitions: %w", err)
	}

	p.mu.Lock()
	p.polls = polls
	p.mu.Unlock()
	return nil
}

// Get, verilen isimli poll tanımını döner.
func (p *Polls) Get(name string) (*Poll, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	poll, ok := p.polls[name]
	return poll, ok
}

// loadJSONFile, JSON dosyasını dst'ye decode eder.
// Dosya yoksa boş bir obje ile oluşturur — orijinal kurulum davranışı.
func loadJSONFile(path string, dst any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if writeErr := os.WriteFile(path, []byte("{}\n"), 0644); writeErr != nil {
			return fmt.Errorf("failed to create %s: %w", path, writeErr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
