package sso

import (
	"errors"
	"fmt"
)

// ErrVerification is wrapped by every DecodeAndVerify failure: malformed,
// expired, badly signed or unknown-key tokens.
var ErrVerification = errors.New("token verification failed")

// CodeInvalidGrant is the OAuth2 error code returned for expired or revoked
// refresh tokens
const CodeInvalidGrant = "invalid_grant"

// ProviderError is returned by provider operations that talk to the identity
// provider (code exchange, refresh, logout)
type ProviderError struct {
	// Op is the provider operation that failed ("exchange", "refresh", "logout")
	Op string
	// Code is the machine-readable OAuth2 error code, if the provider sent one
	Code string
	// Description is the human-readable error description, if any
	Description string
	// Err is the underlying transport or decoding error
	Err error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("provider %s failed", e.Op)
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Description != "" {
		msg += " (" + e.Description + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsExpectedExpiry reports whether err is the normal "refresh token expired or
// revoked" condition rather than an operational failure
func IsExpectedExpiry(err error) bool {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Code == CodeInvalidGrant
	}
	return false
}
