package config

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/libhub")
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("HTTP_PORT", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("LOGIN_WINDOW", "")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.LoginWindow)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/libhub")
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("ACCESS_TOKEN_TTL", "30m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfig_RequiredAndMalformed(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", secret)
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://localhost/libhub")
	t.Setenv("HTTP_PORT", "eighty")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "HTTP_PORT")

	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("LOGIN_WINDOW", "soon")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "LOGIN_WINDOW")
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		HTTPPort:         70000,
		LogLevel:         "loud",
		LogFormat:        "xml",
		JWTSecret:        "short",
		AccessTokenTTL:   time.Minute,
		RefreshTokenTTL:  time.Hour,
		LoginMaxAttempts: 0,
		LoginWindow:      time.Minute,
	}

	err := cfg.Validate()

	require.Error(t, err)
	for _, want := range []string{"HTTP_PORT", "LOG_LEVEL", "LOG_FORMAT", "JWT_SECRET", "LOGIN_MAX_ATTEMPTS"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{LogLevel: "warn", LogFormat: "json"}, &buf)

	logger.Info("dropped")
	logger.Warn("kept", "k", "v")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
}
