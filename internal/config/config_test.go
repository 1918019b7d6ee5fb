package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("CHAT_POLL_INTERVAL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Chat.PollInterval)
	assert.Equal(t, 50, cfg.Chat.DefaultPageSize)
	assert.Empty(t, cfg.Postgres.DSN)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CHAT_POLL_INTERVAL", "2s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "90")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Chat.PollInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.App.AllowedOrigins)
	assert.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL())
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "primary")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetEnvAsDuration_RejectsGarbage(t *testing.T) {
	t.Setenv("CHAT_FETCH_TIMEOUT", "soon")
	assert.Equal(t, 10*time.Second, getEnvAsDuration("CHAT_FETCH_TIMEOUT", 10*time.Second))
}

func TestLoad_ProductionRequiresJWTSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("AUTH_JWT_SECRET", "a-real-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "a-real-secret", cfg.Auth.JWTSecret)
}
