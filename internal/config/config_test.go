package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 5000, cfg.HTTPPort)
	assert.Equal(t, ":5000", cfg.Addr())
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, "admin@tasktracker.com", cfg.AdminEmail)
	assert.Equal(t, "Admin123!", cfg.AdminPassword)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "8081")
	t.Setenv("DB_PORT", "15432")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")
	t.Setenv("ADMIN_PASSWORD", "s3cret")

	cfg := Load()

	assert.Equal(t, 8081, cfg.HTTPPort)
	assert.Equal(t, 15432, cfg.DBPort)
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "s3cret", cfg.AdminPassword)
}

func TestLoadBadPortFallsBack(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-port")

	cfg := Load()

	assert.Equal(t, 5000, cfg.HTTPPort)
}

func TestConnString(t *testing.T) {
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "tracker")

	cfg := Load()

	assert.Equal(t, "host=db port=5432 user=app password=pw dbname=tracker sslmode=disable", cfg.ConnString())
}
