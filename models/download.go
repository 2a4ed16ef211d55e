package models

import "time"

// Download, sipariş onayında üretilen tek bir indirme hakkını temsil eder.
//
// Token capability'dir: kimliğe bağlı değildir, linkteki token'ı bilen
// herkes indirebilir. ExpiresOn başlangıçta nil'dir ("saat henüz başlamadı") —
// ilk başarılı redemption'da now+expiry olarak sabitlenir. Link böylece
// tıklanana kadar süresiz bekleyebilir, ilk tıklamadan sonra sabit bir
// pencere içinde geçerlidir.
type Download struct {
	ID        string     `json:"id"`
	Path      string     `json:"path"`
	Filename  string     `json:"filename"`
	Token     string     `json:"-"`
	ExpiresOn *time.Time `json:"expires_on"`
	CreatedAt time.Time  `json:"created_at"`
}

// Expired, verilen ana göre indirme hakkının süresinin dolup dolmadığını döner.
// ExpiresOn nil ise saat başlamamıştır — süresi dolmuş sayılmaz.
func (d *Download) Expired(now time.Time) bool {
	return d.ExpiresOn != nil && now.After(*d.ExpiresOn)
}
