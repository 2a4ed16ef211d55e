// Package cache — generic in-memory TTL cache.
//
// Üyelik doğrulaması gibi "sık sorulan ama nadiren değişen" upstream
// lookup'ları kısa süreli bellekte tutmak için kullanılır. Her entry bir
// son kullanma zamanı taşır; süresi dolan entry Get'te görünmez olur,
// map'ten fiziksel silme background goroutine ile yapılır.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache, thread-safe generic TTL cache.
//
//	c := cache.New[string, *ghost.Member](30*time.Second, 5*time.Minute)
//	c.Set("ada@example.com", member)
//	member, ok := c.Get("ada@example.com")
type TTLCache[K comparable, V any] struct {
	mu          sync.RWMutex
	entries     map[K]entry[V]
	ttl         time.Duration
	stopCleanup chan struct{}
}

// New, yeni bir TTLCache oluşturur ve periyodik temizleme goroutine'ini başlatır.
// cleanupInterval, stale entry'lerin map'ten silinme sıklığıdır — Get zaten
// süresi dolmuş entry döndürmez, cleanup sadece belleği geri kazanır.
func New[K comparable, V any](ttl, cleanupInterval time.Duration) *TTLCache[K, V] {
	c := &TTLCache[K, V]{
		entries:     make(map[K]entry[V]),
		ttl:         ttl,
		stopCleanup: make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.evictExpired()
			case <-c.stopCleanup:
				return
			}
		}
	}()

	return c
}

// Get, key varsa ve süresi dolmamışsa (value, true) döner.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set, cache'e bir değer yazar (TTL ile).
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Delete, belirli bir key'i cache'ten siler.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Close, periyodik temizleme goroutine'ini durdurur.
func (c *TTLCache[K, V]) Close() {
	close(c.stopCleanup)
}

func (c *TTLCache[K, V]) evictExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
