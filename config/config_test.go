package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_URI", "file::memory:")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "8080")
}

func TestSetupDefaults(t *testing.T) {
	setRequired(t)

	c, err := Setup(nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, c.Port)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, 24*time.Hour, c.JWTTTL)
	assert.Equal(t, "session_token", c.CookieName)
	assert.True(t, c.CookieSecure)
	assert.Equal(t, "/app/login", c.LoginPath)
	assert.False(t, c.PublicIngest)
	assert.False(t, c.Storage.Enabled())
	assert.False(t, c.Mail.Enabled)
	assert.Empty(t, c.CORSOrigins)
}

func TestSetupRequiresSettings(t *testing.T) {
	for _, missing := range []string{"DB_URI", "JWT_SECRET", "PORT"} {
		t.Run(missing, func(t *testing.T) {
			setRequired(t)
			t.Setenv(missing, "")

			_, err := Setup(nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), missing)
		})
	}
}

func TestSetupEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("HOST_CORS", "http://a.test, http://b.test")
	t.Setenv("SESSION_COOKIE_SECURE", "false")
	t.Setenv("TELEMETRY_PUBLIC_INGEST", "true")
	t.Setenv("TELEMETRY_RETENTION_DAYS", "30")

	c, err := Setup(nil)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, c.JWTTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.CORSOrigins)
	assert.False(t, c.CookieSecure)
	assert.True(t, c.PublicIngest)
	assert.Equal(t, 30, c.RetentionDays)
}

func TestSetupFlagsWin(t *testing.T) {
	setRequired(t)

	c, err := Setup([]string{"--port", "9090", "--log-level", "debug"})
	require.NoError(t, err)

	assert.Equal(t, 9090, c.Port)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestSetupConfigFile(t *testing.T) {
	setRequired(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	err := os.WriteFile(path, []byte(`
[host]
cors_origins = ["http://dash.test"]

[storage]
bucket = "exports"
access_key_id = "key"
secret_access_key = "secret"
endpoint = "http://localhost:9000"
`), 0o600)
	require.NoError(t, err)

	c, err := Setup([]string{"--config", path})
	require.NoError(t, err)

	assert.Equal(t, []string{"http://dash.test"}, c.CORSOrigins)
	assert.True(t, c.Storage.Enabled())
	assert.Equal(t, "http://localhost:9000", c.Storage.Endpoint)
	assert.Equal(t, 15*time.Minute, c.Storage.URLExpiry)
}

func TestSetupRejectsBadValues(t *testing.T) {
	tests := []struct {
		env, value string
	}{
		{"PORT", "70000"},
		{"LOG_LEVEL", "loud"},
		{"JWT_TTL", "-1h"},
		{"TELEMETRY_RETENTION_DAYS", "-2"},
		{"STORAGE_BUCKET", "exports"},
		{"MAIL_ENABLED", "true"},
		{"HOST_SSL_ENABLED", "true"},
		{"HOST_CORS", "dash.test"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.env, tt.value)

			_, err := Setup(nil)
			assert.Error(t, err)
		})
	}
}

func TestSetupMissingExplicitConfigFile(t *testing.T) {
	setRequired(t)

	_, err := Setup([]string{"--config", filepath.Join(t.TempDir(), "nope.toml")})
	assert.Error(t, err)
}
