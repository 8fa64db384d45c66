package sso

import "context"

// Provider is the identity provider client consumed by this package.
//
// OAuth2/OIDC mechanics (token issuance, signature verification, key
// retrieval, revocation) live behind this interface. Implementations must be
// safe for concurrent use.
type Provider interface {
	// AuthURL returns the provider login URL that redirects back to
	// redirectURI carrying state
	AuthURL(ctx context.Context, redirectURI, state string) (string, error)

	// Exchange trades an authorization code for tokens
	Exchange(ctx context.Context, code, redirectURI string) (TokenPayload, error)

	// DecodeAndVerify validates a token and returns its claims. Failures wrap
	// ErrVerification.
	DecodeAndVerify(ctx context.Context, token Token) (TokenPayload, error)

	// Refresh obtains a new token set from a refresh token. Failures are
	// *ProviderError values.
	Refresh(ctx context.Context, refreshToken Token) (TokenPayload, error)

	// Logout revokes the session bound to refreshToken
	Logout(ctx context.Context, refreshToken Token) error
}
