package sso

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Token is an opaque bearer credential (access or refresh token)
type Token = string

// Well-known TokenPayload keys
const (
	ClaimEmail          = "email"
	KeyAccessToken      = "access_token"
	KeyRefreshToken     = "refresh_token"
	KeyExpiresIn        = "expires_in"
	KeyRefreshExpiresIn = "refresh_expires_in"
	KeyTokenType        = "token_type"
)

// TokenPayload is the decoded form of a token or a token endpoint response.
//
// It is deliberately untyped: providers return arbitrary claims. The accessors
// below read the keys this package depends on and return zero values when a key
// is missing or has an unexpected type.
type TokenPayload map[string]any

// IsEmpty reports whether the payload carries no claims
func (p TokenPayload) IsEmpty() bool {
	return len(p) == 0
}

// String returns the string value stored under key
func (p TokenPayload) String(key string) string {
	if p == nil {
		return ""
	}
	switch v := p[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		return ""
	}
}

// Int64 returns the integer value stored under key. Numeric strings are accepted
// since some providers encode lifetimes as strings.
func (p TokenPayload) Int64(key string) int64 {
	if p == nil {
		return 0
	}
	switch v := p[key].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

// Email returns the identity claim used to look up local users
func (p TokenPayload) Email() string {
	return p.String(ClaimEmail)
}

// AccessToken returns the access token carried by a token endpoint response
func (p TokenPayload) AccessToken() Token {
	return p.String(KeyAccessToken)
}

// RefreshToken returns the refresh token carried by a token endpoint response
func (p TokenPayload) RefreshToken() Token {
	return p.String(KeyRefreshToken)
}

// ExpiresIn returns the access token lifetime in seconds
func (p TokenPayload) ExpiresIn() int64 {
	return p.Int64(KeyExpiresIn)
}

// RefreshExpiresIn returns the refresh token lifetime in seconds
func (p TokenPayload) RefreshExpiresIn() int64 {
	return p.Int64(KeyRefreshExpiresIn)
}

// rawValue formats a payload value for use in a cookie. Lifetimes that are not
// numeric are passed through untouched.
func (p TokenPayload) rawValue(key string) string {
	if s := p.String(key); s != "" {
		return s
	}
	if _, ok := p[key]; !ok {
		return ""
	}
	return strconv.FormatInt(p.Int64(key), 10)
}
