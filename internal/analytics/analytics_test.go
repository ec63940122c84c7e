package analytics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/v1/analytics/app-opened", nil)
	r.Header.Set("X-Platform", "Web")
	r.Header.Set("X-App-Version", " 1.4.2 ")
	r.Header.Set("Accept-Language", "de-DE")
	r.Header.Set("X-Session-Id", "sess-123")

	env := FromRequest(r)

	assert.Equal(t, "web", env.Platform)
	assert.Equal(t, "1.4.2", env.AppVersion)
	assert.Equal(t, "de-DE", env.DeviceLocale)
	assert.Equal(t, "sess-123", env.SessionID)
}

func TestFromRequestUnknownPlatform(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	r.Header.Set("X-Platform", "smart-fridge")

	assert.Equal(t, "unknown", FromRequest(r).Platform)
}

func TestFromRequestLocaleFallback(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	r.Header.Set("X-Device-Locale", "fr-FR")

	assert.Equal(t, "fr-FR", FromRequest(r).DeviceLocale)
}

func TestSourceEventKeyFromRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	assert.Equal(t, "", SourceEventKeyFromRequest(r))

	r.Header.Set("X-Source-Event-Key", "fallback-key")
	assert.Equal(t, "fallback-key", SourceEventKeyFromRequest(r))

	r.Header.Set("Idempotency-Key", "primary-key")
	assert.Equal(t, "primary-key", SourceEventKeyFromRequest(r))
}

func TestNullIfEmpty(t *testing.T) {
	assert.False(t, nullIfEmpty("").Valid)
	assert.False(t, nullIfEmpty("   ").Valid)
	assert.True(t, nullIfEmpty("x").Valid)
	assert.Equal(t, "x", nullIfEmpty("x").String)
}
