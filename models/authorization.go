package models

import "time"

// Authorization, bir kullanıcıya belirli bir resource path'i için verilen
// süreli erişim hakkını temsil eder.
//
// (UserID, Path) çifti unique'tir: aynı ürün tekrar satın alındığında
// yeni satır açılmaz, ExpiresOn tazelenir (upsert semantiği).
type Authorization struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Path      string    `json:"path"`
	ExpiresOn time.Time `json:"expires_on"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired, yetkinin verilen ana göre süresinin dolup dolmadığını döner.
func (a *Authorization) Expired(now time.Time) bool {
	return now.After(a.ExpiresOn)
}
