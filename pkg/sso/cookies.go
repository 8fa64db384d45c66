package sso

import "net/http"

// stateMaxAge bounds how long a login may take, in seconds
const stateMaxAge = 600

// DefaultCookiePrefix namespaces session cookies when no prefix is configured
const DefaultCookiePrefix = "nameko-keycloak"

// CookieNames holds the session cookie names for one prefix
type CookieNames struct {
	AccessToken      string
	RefreshToken     string
	ExpiresIn        string
	RefreshExpiresIn string
	RefreshTokenURL  string
	// State holds the OAuth state between Login and Callback
	State string
}

// NewCookieNames derives cookie names from a prefix
func NewCookieNames(prefix string) CookieNames {
	if prefix == "" {
		prefix = DefaultCookiePrefix
	}
	return CookieNames{
		AccessToken:      prefix + "_access-token",
		RefreshToken:     prefix + "_refresh-token",
		ExpiresIn:        prefix + "_expires-in",
		RefreshExpiresIn: prefix + "_refresh-expires-in",
		RefreshTokenURL:  prefix + "_refresh-token-url",
		State:            prefix + "_state",
	}
}

// cookieWriter sets and clears session cookies with one fixed set of
// attributes. Clearing must reuse the exact name and path used when setting,
// otherwise the browser keeps the original cookie.
type cookieWriter struct {
	names    CookieNames
	path     string
	insecure bool
	legacy   bool
}

func (c cookieWriter) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     c.path,
		HttpOnly: true,
		Secure:   !c.insecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// setSession writes the cookies for a freshly issued token set
func (c cookieWriter) setSession(w http.ResponseWriter, payload TokenPayload, refreshURL string) {
	http.SetCookie(w, c.cookie(c.names.AccessToken, payload.AccessToken()))
	http.SetCookie(w, c.cookie(c.names.RefreshToken, payload.RefreshToken()))

	if !c.legacy {
		return
	}
	http.SetCookie(w, c.cookie(c.names.ExpiresIn, payload.rawValue(KeyExpiresIn)))
	http.SetCookie(w, c.cookie(c.names.RefreshExpiresIn, payload.rawValue(KeyRefreshExpiresIn)))
	http.SetCookie(w, c.cookie(c.names.RefreshTokenURL, refreshURL))
}

// setState stores the login state for the callback to check
func (c cookieWriter) setState(w http.ResponseWriter, state string) {
	ck := c.cookie(c.names.State, state)
	ck.MaxAge = stateMaxAge
	http.SetCookie(w, ck)
}

// clearSession expires the access and refresh token cookies
func (c cookieWriter) clearSession(w http.ResponseWriter) {
	for _, name := range []string{c.names.AccessToken, c.names.RefreshToken} {
		ck := c.cookie(name, "")
		ck.MaxAge = -1
		http.SetCookie(w, ck)
	}
}
