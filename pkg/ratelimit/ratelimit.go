// Package ratelimit — IP bazlı sliding-window rate limiting.
//
// Magic link isteği (POST /login) başına bir email gönderilir. Limitsiz
// bırakılırsa tek bir IP, bir kullanıcının mailbox'ını doldurabilir ve
// SMTP reputation'ı yakabilir. Bu yüzden login endpoint'i IP başına
// pencere bazlı sınırlandırılır.
//
// Neden in-memory?
// Tek instance deploy — Redis bağımlılığı gereksiz. sync.RWMutex ile
// thread-safe; süresi dolan bucket'lar background goroutine ile temizlenir.
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// bucket, bir IP için istek sayacı ve pencere başlangıcı tutar.
type bucket struct {
	count       int
	windowStart time.Time
}

// Limiter, IP başına sliding-window istek limiti uygular.
type Limiter struct {
	mu          sync.RWMutex
	buckets     map[string]*bucket
	maxAttempts int
	window      time.Duration
	stopCleanup chan struct{}
}

// New, yeni bir Limiter oluşturur ve background temizleme goroutine'ini başlatır.
// maxAttempts: pencere başına izin verilen istek (ör: 5).
// window: pencere süresi (ör: 2*time.Minute).
func New(maxAttempts int, window time.Duration) *Limiter {
	l := &Limiter{
		buckets:     make(map[string]*bucket),
		maxAttempts: maxAttempts,
		window:      window,
		stopCleanup: make(chan struct{}),
	}

	go l.cleanupLoop()

	return l
}

// Allow, verilen IP'nin istekte bulunup bulunamayacağını kontrol eder.
// false dönerse caller 429 dönmelidir. Her çağrı sayacı artırır.
func (l *Limiter) Allow(ip string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.buckets[ip]
	if !exists {
		l.buckets[ip] = &bucket{count: 1, windowStart: now}
		return true
	}

	if now.Sub(b.windowStart) > l.window {
		// Pencere doldu — yeni pencere başlat
		b.count = 1
		b.windowStart = now
		return true
	}

	b.count++
	return b.count <= l.maxAttempts
}

// RetryAfterSeconds, limit aşıldığında kalan bekleme süresini saniye döner.
// HTTP Retry-After header değeri olarak kullanılır.
func (l *Limiter) RetryAfterSeconds(ip string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	b, exists := l.buckets[ip]
	if !exists {
		return 0
	}

	remaining := l.window - time.Since(b.windowStart)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

// Close, background temizleme goroutine'ini durdurur.
func (l *Limiter) Close() {
	close(l.stopCleanup)
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCleanup:
			return
		}
	}
}

func (l *Limiter) cleanup() {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for ip, b := range l.buckets {
		if now.Sub(b.windowStart) > l.window {
			delete(l.buckets, ip)
		}
	}
}

// ExtractIP, HTTP request'ten client IP adresini çıkarır.
//
// Öncelik: X-Forwarded-For (ilk IP) → X-Real-IP → RemoteAddr.
// Uygulama reverse proxy arkasında çalışır; RemoteAddr o durumda
// hep proxy'nin adresidir.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
