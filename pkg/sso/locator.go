package sso

import (
	"net/http"
	"strings"
)

// LocateToken extracts a bearer token from a request.
//
// The named cookie wins over the Authorization header: browser sessions carry
// HttpOnly cookies, direct API clients send "Bearer <token>".
func LocateToken(r *http.Request, cookieName string) (Token, bool) {
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value, true
		}
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	token := strings.Replace(header, "Bearer ", "", 1)
	if token == "" {
		return "", false
	}
	return token, true
}
