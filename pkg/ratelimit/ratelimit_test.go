package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_AllowWithinLimit(t *testing.T) {
	t.Parallel()

	l := New(3, time.Minute)
	defer l.Close()

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"), "fourth attempt should be denied")
}

func TestLimiter_PerIP(t *testing.T) {
	t.Parallel()

	l := New(1, time.Minute)
	defer l.Close()

	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))

	// Farklı IP'nin kendi penceresi var.
	assert.True(t, l.Allow("10.0.0.2"))
}

func TestLimiter_WindowReset(t *testing.T) {
	t.Parallel()

	l := New(1, 20*time.Millisecond)
	defer l.Close()

	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))

	time.Sleep(40 * time.Millisecond)
	assert.True(t, l.Allow("10.0.0.1"), "new window should allow again")
}

func TestLimiter_RetryAfterSeconds(t *testing.T) {
	t.Parallel()

	l := New(1, time.Minute)
	defer l.Close()

	assert.Equal(t, 0, l.RetryAfterSeconds("10.0.0.1"), "unknown ip has no wait")

	l.Allow("10.0.0.1")
	retry := l.RetryAfterSeconds("10.0.0.1")
	assert.Greater(t, retry, 0)
	assert.LessOrEqual(t, retry, 61)
}

func TestExtractIP(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.10:41234"
	assert.Equal(t, "192.0.2.10", ExtractIP(r))

	r.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", ExtractIP(r))

	// X-Forwarded-For her şeyi ezer, ilk IP alınır.
	r.Header.Set("X-Forwarded-For", "203.0.113.5,198.51.100.7")
	assert.Equal(t, "203.0.113.5", ExtractIP(r))
}
