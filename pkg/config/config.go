package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/keycloak-sso/pkg/sso"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Session flow configuration
	SSO SSOConfig `yaml:"sso"`

	// Identity provider configuration
	Keycloak KeycloakConfig `yaml:"keycloak"`

	// User store configuration
	Database DatabaseConfig `yaml:"database"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// SSOConfig holds cookie and URL settings for the session flow
type SSOConfig struct {
	CookiePrefix    string `yaml:"cookie_prefix"`
	CookiePath      string `yaml:"cookie_path"`
	LoginURL        string `yaml:"login_url"`
	TokenURL        string `yaml:"token_url"`
	RefreshTokenURL string `yaml:"refresh_token_url"`
	FrontendURL     string `yaml:"frontend_url"`
	InsecureCookies bool   `yaml:"insecure_cookies"`
	LegacyCookies   bool   `yaml:"legacy_cookies"`
}

// SessionConfig converts to the session flow settings
func (c SSOConfig) SessionConfig() sso.Config {
	return sso.Config{
		CookiePrefix:    c.CookiePrefix,
		CookiePath:      c.CookiePath,
		LoginURL:        c.LoginURL,
		TokenURL:        c.TokenURL,
		RefreshTokenURL: c.RefreshTokenURL,
		FrontendURL:     c.FrontendURL,
		InsecureCookies: c.InsecureCookies,
		LegacyCookies:   c.LegacyCookies,
	}
}

// KeycloakConfig locates the Keycloak adapter file.
// An empty ConfigPath runs against the in-process fake provider.
type KeycloakConfig struct {
	ConfigPath string        `yaml:"config_path"`
	Timeout    time.Duration `yaml:"timeout"`
}

// DatabaseConfig holds user store settings.
// An empty URL uses the in-memory store.
type DatabaseConfig struct {
	URL       string        `yaml:"url"`
	MaxConns  int           `yaml:"max_conns"`
	Timeout   time.Duration `yaml:"timeout"`
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`

	// OpenTelemetry tracing
	OTelEnabled     bool   `yaml:"otel_enabled"`
	OTelEndpoint    string `yaml:"otel_endpoint"`
	OTelServiceName string `yaml:"otel_service_name"`
	OTelInsecure    bool   `yaml:"otel_insecure"`
}

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig() *Config {
	session := sso.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		SSO: SSOConfig{
			CookiePrefix:    session.CookiePrefix,
			CookiePath:      session.CookiePath,
			LoginURL:        session.LoginURL,
			TokenURL:        session.TokenURL,
			RefreshTokenURL: session.RefreshTokenURL,
			FrontendURL:     session.FrontendURL,
		},
		Keycloak: KeycloakConfig{
			Timeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			MaxConns: 10,
			Timeout:  5 * time.Second,
			CacheTTL: time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel:        "info",
			MetricsEnabled:  true,
			OTelEndpoint:    "localhost:4317",
			OTelServiceName: "sso-demo",
			OTelInsecure:    true,
		},
	}
}

// LoadConfig loads configuration from an optional YAML file, then applies
// environment variables on top
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// applyEnv overrides fields whose environment variable is set
func (c *Config) applyEnv() {
	c.Server.Host = getEnv("SSO_HOST", c.Server.Host)
	c.Server.Port = getEnv("SSO_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("SSO_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("SSO_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("SSO_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("SSO_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.SSO.CookiePrefix = getEnv("SSO_COOKIE_PREFIX", c.SSO.CookiePrefix)
	c.SSO.CookiePath = getEnv("SSO_COOKIE_PATH", c.SSO.CookiePath)
	c.SSO.LoginURL = getEnv("SSO_LOGIN_URL", c.SSO.LoginURL)
	c.SSO.TokenURL = getEnv("SSO_TOKEN_URL", c.SSO.TokenURL)
	c.SSO.RefreshTokenURL = getEnv("SSO_REFRESH_TOKEN_URL", c.SSO.RefreshTokenURL)
	c.SSO.FrontendURL = getEnv("SSO_FRONTEND_URL", c.SSO.FrontendURL)
	c.SSO.InsecureCookies = getEnvBool("SSO_INSECURE_COOKIES", c.SSO.InsecureCookies)
	c.SSO.LegacyCookies = getEnvBool("SSO_LEGACY_COOKIES", c.SSO.LegacyCookies)

	c.Keycloak.ConfigPath = getEnv("SSO_KEYCLOAK_CONFIG", c.Keycloak.ConfigPath)
	c.Keycloak.Timeout = getEnvDuration("SSO_KEYCLOAK_TIMEOUT", c.Keycloak.Timeout)

	c.Database.URL = getEnv("SSO_DATABASE_URL", c.Database.URL)
	c.Database.MaxConns = getEnvInt("SSO_DATABASE_MAX_CONNS", c.Database.MaxConns)
	c.Database.Timeout = getEnvDuration("SSO_DATABASE_TIMEOUT", c.Database.Timeout)
	c.Database.CacheSize = getEnvInt("SSO_USER_CACHE_SIZE", c.Database.CacheSize)
	c.Database.CacheTTL = getEnvDuration("SSO_USER_CACHE_TTL", c.Database.CacheTTL)

	c.Observability.LogLevel = getEnv("SSO_LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.MetricsEnabled = getEnvBool("SSO_METRICS_ENABLED", c.Observability.MetricsEnabled)
	c.Observability.OTelEnabled = getEnvBool("SSO_OTEL_ENABLED", c.Observability.OTelEnabled)
	c.Observability.OTelEndpoint = getEnv("SSO_OTEL_ENDPOINT", c.Observability.OTelEndpoint)
	c.Observability.OTelServiceName = getEnv("SSO_OTEL_SERVICE_NAME", c.Observability.OTelServiceName)
	c.Observability.OTelInsecure = getEnvBool("SSO_OTEL_INSECURE", c.Observability.OTelInsecure)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.SSO.CookiePrefix == "" {
		return fmt.Errorf("cookie prefix is required")
	}
	if !strings.HasPrefix(c.SSO.CookiePath, "/") {
		return fmt.Errorf("cookie path must start with '/': %q", c.SSO.CookiePath)
	}

	urls := []struct {
		name  string
		value string
	}{
		{"login url", c.SSO.LoginURL},
		{"token url", c.SSO.TokenURL},
		{"refresh token url", c.SSO.RefreshTokenURL},
		{"frontend url", c.SSO.FrontendURL},
	}
	for _, u := range urls {
		if err := validateURL(u.value); err != nil {
			return fmt.Errorf("invalid %s: %w", u.name, err)
		}
	}

	if _, err := logrus.ParseLevel(c.Observability.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	if c.Database.CacheSize < 0 {
		return fmt.Errorf("user cache size must not be negative")
	}
	if c.Database.CacheSize > 0 && c.Database.CacheTTL <= 0 {
		return fmt.Errorf("user cache ttl must be positive when the cache is enabled")
	}

	return nil
}

// validateURL accepts absolute http(s) URLs and rooted paths
func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("value is required")
	}
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q must be an absolute http(s) URL or a path starting with '/'", raw)
	}
	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
