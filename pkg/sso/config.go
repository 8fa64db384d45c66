package sso

// Config holds the SSO session settings. Zero fields take the defaults below.
type Config struct {
	// CookiePrefix namespaces session cookies, so that several SSO-enabled
	// services can share a domain
	CookiePrefix string
	// CookiePath is the Path attribute of every session cookie
	CookiePath string
	// LoginURL is where Logout sends the user
	LoginURL string
	// TokenURL is the callback URL handed to the provider
	TokenURL string
	// RefreshTokenURL is advertised to clients through the legacy cookie set
	RefreshTokenURL string
	// FrontendURL is where the user lands after a successful login
	FrontendURL string
	// InsecureCookies drops the Secure attribute, for plain HTTP development
	InsecureCookies bool
	// LegacyCookies also writes the expiry and refresh URL cookies
	LegacyCookies bool
}

// DefaultConfig returns the default settings
func DefaultConfig() Config {
	routes := DefaultRoutes()
	return Config{
		CookiePrefix:    DefaultCookiePrefix,
		CookiePath:      "/",
		LoginURL:        routes.Login,
		TokenURL:        routes.Token,
		RefreshTokenURL: routes.Refresh,
		FrontendURL:     "/",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CookiePrefix == "" {
		c.CookiePrefix = d.CookiePrefix
	}
	if c.CookiePath == "" {
		c.CookiePath = d.CookiePath
	}
	if c.LoginURL == "" {
		c.LoginURL = d.LoginURL
	}
	if c.TokenURL == "" {
		c.TokenURL = d.TokenURL
	}
	if c.RefreshTokenURL == "" {
		c.RefreshTokenURL = d.RefreshTokenURL
	}
	if c.FrontendURL == "" {
		c.FrontendURL = d.FrontendURL
	}
	return c
}
