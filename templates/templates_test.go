package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Default(t *testing.T) {
	t.Parallel()

	body, err := Render("default.tmpl", DefaultData{
		From:    Party{FirstName: "Ada", Email: "ada@example.com"},
		To:      Party{Email: "reader@example.com"},
		Message: "Please click following magic link to log in.\n\nhttps://example.com/login?token=abc",
	})
	require.NoError(t, err)

	assert.Contains(t, body, "https://example.com/login?token=abc")
	assert.Contains(t, body, "Ada")
	assert.Contains(t, body, "ada@example.com")
}

func TestRender_OrderConfirmation(t *testing.T) {
	t.Parallel()

	body, err := Render("order-confirmation.tmpl", OrderConfirmationData{
		From:      Party{FirstName: "Ada", Email: "ada@example.com"},
		To:        Party{FirstName: "Grace", Email: "grace@example.com"},
		Downloads: []string{"https://example.com/downloads/book.epub?token=t1"},
		Links:     []string{"https://example.com/extras"},
		Expiry:    "a day",
		EventOn:   "Friday, March 6th 2026 at 8:00PM EST",
	})
	require.NoError(t, err)

	assert.Contains(t, body, "Hi Grace")
	assert.Contains(t, body, "https://example.com/downloads/book.epub?token=t1")
	assert.Contains(t, body, "https://example.com/extras")
	assert.Contains(t, body, "expire a day")
	assert.Contains(t, body, "Friday, March 6th 2026 at 8:00PM EST")
}

func TestRender_OrderConfirmation_OmitsEmptySections(t *testing.T) {
	t.Parallel()

	body, err := Render("order-confirmation.tmpl", OrderConfirmationData{
		From:  Party{FirstName: "Ada", Email: "ada@example.com"},
		To:    Party{FirstName: "Grace", Email: "grace@example.com"},
		Links: []string{"https://example.com/extras"},
	})
	require.NoError(t, err)

	assert.NotContains(t, body, "download your files")
	assert.NotContains(t, body, "expire")
	assert.NotContains(t, body, "event takes place")
	assert.Contains(t, body, "https://example.com/extras")
}

func TestRender_UnknownTemplate(t *testing.T) {
	t.Parallel()

	_, err := Render("missing.tmpl", nil)
	assert.Error(t, err)
}

func TestHumanizeHours(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "an hour", HumanizeHours(1))
	assert.Equal(t, "6 hours", HumanizeHours(6))
	assert.Equal(t, "a day", HumanizeHours(24))
	assert.Equal(t, "3 days", HumanizeHours(72))
	assert.Equal(t, "a month", HumanizeHours(24*30))
}

func TestFormatEventTime(t *testing.T) {
	t.Parallel()

	got := FormatEventTime(time.Date(2026, 3, 6, 20, 0, 0, 0, time.UTC))
	assert.Equal(t, "Friday, March 6th 2026 at 8:00PM EST", got)

	// Ordinal ekleri
	assert.Contains(t, FormatEventTime(time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)), "1st")
	assert.Contains(t, FormatEventTime(time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)), "2nd")
	assert.Contains(t, FormatEventTime(time.Date(2026, 3, 3, 9, 30, 0, 0, time.UTC)), "3rd")
	assert.Contains(t, FormatEventTime(time.Date(2026, 3, 11, 9, 30, 0, 0, time.UTC)), "11th")
	assert.Contains(t, FormatEventTime(time.Date(2026, 3, 21, 9, 30, 0, 0, time.UTC)), "21st")
}
