// Package config loads the demo server configuration.
//
// Values come from built-in defaults, then an optional YAML file, then
// environment variables. A variable that is set always wins over the file.
//
// Server settings:
//
//	SSO_HOST="0.0.0.0"
//	SSO_PORT="8080"
//	SSO_READ_TIMEOUT="15s"
//	SSO_WRITE_TIMEOUT="15s"
//	SSO_SHUTDOWN_TIMEOUT="30s"
//
// Session settings:
//
//	SSO_COOKIE_PREFIX="nameko-keycloak"
//	SSO_COOKIE_PATH="/"
//	SSO_LOGIN_URL="/login-sso"
//	SSO_TOKEN_URL="https://app.example.com/token-sso"
//	SSO_REFRESH_TOKEN_URL="/refresh-token-sso"
//	SSO_FRONTEND_URL="/"
//	SSO_INSECURE_COOKIES="false"
//	SSO_LEGACY_COOKIES="false"
//
// Identity provider and user store:
//
//	SSO_KEYCLOAK_CONFIG="/etc/sso/keycloak.json"
//	SSO_DATABASE_URL="postgres://sso@db/users?sslmode=disable"
//	SSO_USER_CACHE_SIZE="1024"
//	SSO_USER_CACHE_TTL="1m"
//
// Observability:
//
//	SSO_LOG_LEVEL="info"  # debug, info, warn, error
//	SSO_METRICS_ENABLED="true"
//	SSO_OTEL_ENABLED="false"
//	SSO_OTEL_ENDPOINT="otel-collector:4317"
//
// The YAML file mirrors the same structure:
//
//	server:
//	  port: "9000"
//	sso:
//	  cookie_prefix: my-service
//	  frontend_url: https://app.example.com/
//	keycloak:
//	  config_path: /etc/sso/keycloak.json
package config
