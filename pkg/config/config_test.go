package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable LoadConfig reads, for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SSO_HOST", "SSO_PORT", "SSO_READ_TIMEOUT", "SSO_WRITE_TIMEOUT", "SSO_IDLE_TIMEOUT", "SSO_SHUTDOWN_TIMEOUT",
		"SSO_COOKIE_PREFIX", "SSO_COOKIE_PATH", "SSO_LOGIN_URL", "SSO_TOKEN_URL", "SSO_REFRESH_TOKEN_URL",
		"SSO_FRONTEND_URL", "SSO_INSECURE_COOKIES", "SSO_LEGACY_COOKIES",
		"SSO_KEYCLOAK_CONFIG", "SSO_KEYCLOAK_TIMEOUT",
		"SSO_DATABASE_URL", "SSO_DATABASE_MAX_CONNS", "SSO_DATABASE_TIMEOUT", "SSO_USER_CACHE_SIZE", "SSO_USER_CACHE_TTL",
		"SSO_LOG_LEVEL", "SSO_METRICS_ENABLED",
		"SSO_OTEL_ENABLED", "SSO_OTEL_ENDPOINT", "SSO_OTEL_SERVICE_NAME", "SSO_OTEL_INSECURE",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sso.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "nameko-keycloak", cfg.SSO.CookiePrefix)
	assert.Equal(t, "/", cfg.SSO.CookiePath)
	assert.Equal(t, "/login-sso", cfg.SSO.LoginURL)
	assert.Equal(t, "/token-sso", cfg.SSO.TokenURL)
	assert.Equal(t, "/refresh-token-sso", cfg.SSO.RefreshTokenURL)
	assert.Equal(t, "/", cfg.SSO.FrontendURL)
	assert.False(t, cfg.SSO.InsecureCookies)
	assert.Empty(t, cfg.Keycloak.ConfigPath)
	assert.Empty(t, cfg.Database.URL)
	assert.Zero(t, cfg.Database.CacheSize)
	assert.Equal(t, "info", cfg.Observability.LogLevel)
	assert.True(t, cfg.Observability.MetricsEnabled)
	assert.False(t, cfg.Observability.OTelEnabled)
	assert.Equal(t, "localhost:4317", cfg.Observability.OTelEndpoint)
}

func TestLoadConfig_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("SSO_PORT", "9000")
	t.Setenv("SSO_COOKIE_PREFIX", "my-service")
	t.Setenv("SSO_COOKIE_PATH", "/app")
	t.Setenv("SSO_TOKEN_URL", "https://app.example.com/token-sso")
	t.Setenv("SSO_FRONTEND_URL", "https://app.example.com/")
	t.Setenv("SSO_INSECURE_COOKIES", "1")
	t.Setenv("SSO_LEGACY_COOKIES", "true")
	t.Setenv("SSO_KEYCLOAK_CONFIG", "/etc/sso/keycloak.json")
	t.Setenv("SSO_DATABASE_URL", "postgres://sso@db/users")
	t.Setenv("SSO_USER_CACHE_TTL", "30s")
	t.Setenv("SSO_LOG_LEVEL", "debug")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "/etc/sso/keycloak.json", cfg.Keycloak.ConfigPath)
	assert.Equal(t, "postgres://sso@db/users", cfg.Database.URL)
	assert.Equal(t, 30*time.Second, cfg.Database.CacheTTL)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)

	session := cfg.SSO.SessionConfig()
	assert.Equal(t, "my-service", session.CookiePrefix)
	assert.Equal(t, "/app", session.CookiePath)
	assert.Equal(t, "https://app.example.com/token-sso", session.TokenURL)
	assert.Equal(t, "https://app.example.com/", session.FrontendURL)
	assert.Equal(t, "/login-sso", session.LoginURL)
	assert.True(t, session.InsecureCookies)
	assert.True(t, session.LegacyCookies)
}

func TestLoadConfig_File(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
server:
  port: "7000"
  read_timeout: 5s
sso:
  cookie_prefix: from-file
  frontend_url: https://app.example.com/
database:
  url: sqlite:///tmp/users.db
  cache_size: 16
observability:
  log_level: warn
  metrics_enabled: false
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout, "unset fields keep defaults")
	assert.Equal(t, "from-file", cfg.SSO.CookiePrefix)
	assert.Equal(t, "/", cfg.SSO.CookiePath)
	assert.Equal(t, "sqlite:///tmp/users.db", cfg.Database.URL)
	assert.Equal(t, 16, cfg.Database.CacheSize)
	assert.Equal(t, "warn", cfg.Observability.LogLevel)
	assert.False(t, cfg.Observability.MetricsEnabled)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
server:
  port: "7000"
sso:
  cookie_prefix: from-file
`)
	t.Setenv("SSO_COOKIE_PREFIX", "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.SSO.CookiePrefix)
	assert.Equal(t, "7000", cfg.Server.Port)
}

func TestLoadConfig_Errors(t *testing.T) {
	clearEnv(t)

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("malformed file", func(t *testing.T) {
		_, err := LoadConfig(writeFile(t, "server: [unclosed"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("SSO_FRONTEND_URL", "app.example.com")
		_, err := LoadConfig("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration validation failed")
		assert.Contains(t, err.Error(), "frontend url")
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults",
			modify: func(c *Config) {},
		},
		{
			name:   "absolute urls",
			modify: func(c *Config) { c.SSO.TokenURL = "https://app.example.com/token-sso" },
		},
		{
			name:    "missing port",
			modify:  func(c *Config) { c.Server.Port = "" },
			wantErr: "server port is required",
		},
		{
			name:    "missing cookie prefix",
			modify:  func(c *Config) { c.SSO.CookiePrefix = "" },
			wantErr: "cookie prefix is required",
		},
		{
			name:    "relative cookie path",
			modify:  func(c *Config) { c.SSO.CookiePath = "app" },
			wantErr: "cookie path must start with '/'",
		},
		{
			name:    "empty login url",
			modify:  func(c *Config) { c.SSO.LoginURL = "" },
			wantErr: "invalid login url",
		},
		{
			name:    "scheme relative url",
			modify:  func(c *Config) { c.SSO.TokenURL = "//evil.example.com/token" },
			wantErr: "invalid token url",
		},
		{
			name:    "non http scheme",
			modify:  func(c *Config) { c.SSO.RefreshTokenURL = "ftp://app.example.com/refresh" },
			wantErr: "invalid refresh token url",
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.Observability.LogLevel = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name: "otel without endpoint",
			modify: func(c *Config) {
				c.Observability.OTelEnabled = true
				c.Observability.OTelEndpoint = ""
			},
			wantErr: "OpenTelemetry endpoint is required",
		},
		{
			name: "otel without service name",
			modify: func(c *Config) {
				c.Observability.OTelEnabled = true
				c.Observability.OTelServiceName = ""
			},
			wantErr: "OpenTelemetry service name is required",
		},
		{
			name:    "negative cache size",
			modify:  func(c *Config) { c.Database.CacheSize = -1 },
			wantErr: "user cache size must not be negative",
		},
		{
			name: "cache without ttl",
			modify: func(c *Config) {
				c.Database.CacheSize = 128
				c.Database.CacheTTL = 0
			},
			wantErr: "user cache ttl must be positive",
		},
		{
			name: "cache with ttl",
			modify: func(c *Config) {
				c.Database.CacheSize = 128
				c.Database.CacheTTL = 30 * time.Second
			},
		},
		{
			name:   "no cache with zero ttl",
			modify: func(c *Config) { c.Database.CacheTTL = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "custom")

	assert.Equal(t, "custom", getEnv("TEST_VAR", "default"))
	assert.Equal(t, "default", getEnv("TEST_VAR_NOT_SET", "default"))
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		envValue     string
		defaultValue bool
		want         bool
	}{
		{envValue: "true", want: true},
		{envValue: "TRUE", want: true},
		{envValue: "1", want: true},
		{envValue: "false", defaultValue: true, want: false},
		{envValue: "yes", defaultValue: true, want: false},
		{envValue: "", defaultValue: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.envValue, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.envValue)
			assert.Equal(t, tt.want, getEnvBool("TEST_BOOL", tt.defaultValue))
		})
	}
}

// TestGetEnvInt tests the getEnvInt helper function
func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	assert.Equal(t, 42, getEnvInt("TEST_INT", 7))

	t.Setenv("TEST_INT", "forty-two")
	assert.Equal(t, 7, getEnvInt("TEST_INT", 7))
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "90s")
	assert.Equal(t, 90*time.Second, getEnvDuration("TEST_DURATION", time.Second))

	t.Setenv("TEST_DURATION", "soon")
	assert.Equal(t, time.Second, getEnvDuration("TEST_DURATION", time.Second))
}
