// Package ssotest provides an in-memory identity provider for tests and local
// development.
package ssotest

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/platinummonkey/keycloak-sso/pkg/sso"
)

// Operation names accepted by FailNext
const (
	OpAuthURL  = "auth_url"
	OpExchange = "exchange"
	OpDecode   = "decode"
	OpRefresh  = "refresh"
	OpLogout   = "logout"
)

// DefaultAuthURL is the login URL the fake provider redirects to
const DefaultAuthURL = "http://keycloak.example/auth"

// FakeProvider emulates the provider operations used by the SSO flow.
//
// It relies on one shortcut: the authorization code IS the user's email.
// Exchange(code) stores a payload under the access token "token_<email>" with
// refresh token "<email>"; DecodeAndVerify and Refresh read that store and
// Logout deletes from it.
type FakeProvider struct {
	mu       sync.Mutex
	payloads map[sso.Token]sso.TokenPayload
	failures map[string]error
	calls    map[string]int
}

var _ sso.Provider = (*FakeProvider)(nil)

// NewFakeProvider creates an empty fake provider
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		payloads: make(map[sso.Token]sso.TokenPayload),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// AccessTokenFor returns the access token the fake issues for email
func AccessTokenFor(email string) sso.Token {
	return "token_" + email
}

// FailNext makes the next call to op return err
func (p *FakeProvider) FailNext(op string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[op] = err
}

// Calls returns how many times op was invoked
func (p *FakeProvider) Calls(op string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[op]
}

// Issue registers a session for email without going through Exchange
func (p *FakeProvider) Issue(email string) sso.TokenPayload {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.issue(email)
}

func (p *FakeProvider) issue(email string) sso.TokenPayload {
	token := AccessTokenFor(email)
	payload := sso.TokenPayload{
		sso.ClaimEmail:          email,
		sso.KeyAccessToken:      token,
		sso.KeyExpiresIn:        int64(300),
		sso.KeyRefreshToken:     email,
		sso.KeyRefreshExpiresIn: int64(1800),
		sso.KeyTokenType:        "Bearer",
	}
	p.payloads[token] = payload
	return copyPayload(payload)
}

// begin records a call and pops a scheduled failure; p.mu must be held
func (p *FakeProvider) begin(op string) error {
	p.calls[op]++
	if err, ok := p.failures[op]; ok {
		delete(p.failures, op)
		return err
	}
	return nil
}

// AuthURL returns DefaultAuthURL with redirect_uri and state appended
func (p *FakeProvider) AuthURL(ctx context.Context, redirectURI, state string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpAuthURL); err != nil {
		return "", err
	}
	q := url.Values{"redirect_uri": {redirectURI}, "state": {state}}
	return DefaultAuthURL + "?" + q.Encode(), nil
}

// Exchange treats code as the user's email and issues a token set for it
func (p *FakeProvider) Exchange(ctx context.Context, code, redirectURI string) (sso.TokenPayload, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpExchange); err != nil {
		return nil, err
	}
	return p.issue(code), nil
}

// DecodeAndVerify returns the payload stored for token
func (p *FakeProvider) DecodeAndVerify(ctx context.Context, token sso.Token) (sso.TokenPayload, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpDecode); err != nil {
		return nil, err
	}
	payload, ok := p.payloads[token]
	if !ok {
		return nil, fmt.Errorf("%w: unknown token", sso.ErrVerification)
	}
	return copyPayload(payload), nil
}

// Refresh returns the payload stored for the session of refreshToken
func (p *FakeProvider) Refresh(ctx context.Context, refreshToken sso.Token) (sso.TokenPayload, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpRefresh); err != nil {
		return nil, err
	}
	payload, ok := p.payloads[AccessTokenFor(refreshToken)]
	if !ok {
		return nil, &sso.ProviderError{
			Op:          OpRefresh,
			Code:        sso.CodeInvalidGrant,
			Description: "Invalid refresh token",
		}
	}
	return copyPayload(payload), nil
}

// Logout forgets the session of refreshToken
func (p *FakeProvider) Logout(ctx context.Context, refreshToken sso.Token) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpLogout); err != nil {
		return err
	}
	token := AccessTokenFor(refreshToken)
	if _, ok := p.payloads[token]; !ok {
		return &sso.ProviderError{
			Op:          OpLogout,
			Code:        sso.CodeInvalidGrant,
			Description: "Session not active",
		}
	}
	delete(p.payloads, token)
	return nil
}

func copyPayload(p sso.TokenPayload) sso.TokenPayload {
	out := make(sso.TokenPayload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
