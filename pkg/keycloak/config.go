package keycloak

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// AdapterConfig is the client adapter configuration exported by the Keycloak
// admin console ("keycloak.json")
type AdapterConfig struct {
	AuthServerURL string      `json:"auth-server-url"`
	Realm         string      `json:"realm"`
	Resource      string      `json:"resource"` // Client ID
	Credentials   Credentials `json:"credentials"`
	// Scopes is not part of the exported file; it defaults to DefaultScopes
	Scopes []string `json:"scopes,omitempty"`
}

// Credentials holds the confidential client credentials
type Credentials struct {
	Secret string `json:"secret"`
}

// DefaultScopes are requested when the configuration lists none
var DefaultScopes = []string{"openid", "profile", "email"}

// LoadAdapterConfig reads an adapter configuration file
func LoadAdapterConfig(path string) (AdapterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AdapterConfig{}, fmt.Errorf("failed to read keycloak config: %w", err)
	}

	var cfg AdapterConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return AdapterConfig{}, fmt.Errorf("failed to parse keycloak config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return AdapterConfig{}, err
	}
	return cfg, nil
}

// IssuerURL returns the realm issuer, e.g. https://sso.example.com/realms/acme
func (c AdapterConfig) IssuerURL() string {
	return strings.TrimRight(c.AuthServerURL, "/") + "/realms/" + c.Realm
}

// Validate validates the adapter configuration
func (c AdapterConfig) Validate() error {
	if c.AuthServerURL == "" {
		return fmt.Errorf("auth-server-url is required")
	}
	if c.Realm == "" {
		return fmt.Errorf("realm is required")
	}
	if c.Resource == "" {
		return fmt.Errorf("resource is required")
	}
	if c.Credentials.Secret == "" {
		return fmt.Errorf("credentials.secret is required")
	}

	scopes := c.Scopes
	if len(scopes) == 0 {
		return nil
	}
	for _, scope := range scopes {
		if scope == "openid" {
			return nil
		}
	}
	return fmt.Errorf("'openid' scope is required")
}

func (c AdapterConfig) scopes() []string {
	if len(c.Scopes) == 0 {
		return DefaultScopes
	}
	return c.Scopes
}
