package keycloak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"

	"github.com/platinummonkey/keycloak-sso/pkg/sso"
)

// Provider operation names, reported in sso.ProviderError.Op
const (
	OpExchange = "exchange"
	OpRefresh  = "refresh"
	OpLogout   = "logout"
)

// Client is an sso.Provider for a Keycloak realm.
//
// Discovery, signature verification and key rotation are handled by go-oidc;
// code exchange and refresh by x/oauth2. A Client is safe for concurrent use.
type Client struct {
	config        AdapterConfig
	httpClient    *http.Client
	provider      *oidc.Provider
	verifier      *oidc.IDTokenVerifier
	oauth2Config  oauth2.Config
	endSessionURL string
}

var _ sso.Provider = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used to reach Keycloak
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewHTTPClient returns the default HTTP client, instrumented with OpenTelemetry
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// discoveryClaims are the non-standard discovery fields go-oidc does not expose
type discoveryClaims struct {
	EndSessionEndpoint string `json:"end_session_endpoint"`
}

// New discovers the realm and creates a client
func New(ctx context.Context, config AdapterConfig, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid keycloak config: %w", err)
	}

	c := &Client{config: config}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = NewHTTPClient(10 * time.Second)
	}

	// Discover the realm. The key set fetched later reuses this client.
	provider, err := oidc.NewProvider(c.withClient(ctx), config.IssuerURL())
	if err != nil {
		return nil, fmt.Errorf("failed to discover keycloak realm: %w", err)
	}

	var claims discoveryClaims
	if err := provider.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse discovery document: %w", err)
	}
	if claims.EndSessionEndpoint == "" {
		claims.EndSessionEndpoint = config.IssuerURL() + "/protocol/openid-connect/logout"
	}

	c.provider = provider
	c.endSessionURL = claims.EndSessionEndpoint
	// Access tokens are issued for the "account" audience, not for this client
	c.verifier = provider.Verifier(&oidc.Config{SkipClientIDCheck: true})
	c.oauth2Config = oauth2.Config{
		ClientID:     config.Resource,
		ClientSecret: config.Credentials.Secret,
		Endpoint:     provider.Endpoint(),
		Scopes:       config.scopes(),
	}

	return c, nil
}

func (c *Client) withClient(ctx context.Context) context.Context {
	return oidc.ClientContext(ctx, c.httpClient)
}

func (c *Client) oauth2For(redirectURI string) *oauth2.Config {
	cfg := c.oauth2Config
	cfg.RedirectURL = redirectURI
	return &cfg
}

// AuthURL returns the realm login URL that redirects back to redirectURI
func (c *Client) AuthURL(ctx context.Context, redirectURI, state string) (string, error) {
	return c.oauth2For(redirectURI).AuthCodeURL(state), nil
}

// Exchange trades an authorization code for a token set
func (c *Client) Exchange(ctx context.Context, code, redirectURI string) (sso.TokenPayload, error) {
	token, err := c.oauth2For(redirectURI).Exchange(c.withClient(ctx), code)
	if err != nil {
		return nil, providerError(OpExchange, err)
	}
	return tokenPayload(token), nil
}

// DecodeAndVerify checks the token signature, issuer and expiry and returns
// its claims
func (c *Client) DecodeAndVerify(ctx context.Context, token sso.Token) (sso.TokenPayload, error) {
	verified, err := c.verifier.Verify(c.withClient(ctx), token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sso.ErrVerification, err)
	}

	var claims sso.TokenPayload
	if err := verified.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: failed to parse claims: %v", sso.ErrVerification, err)
	}
	return claims, nil
}

// Refresh obtains a new token set from a refresh token
func (c *Client) Refresh(ctx context.Context, refreshToken sso.Token) (sso.TokenPayload, error) {
	source := c.oauth2Config.TokenSource(c.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, providerError(OpRefresh, err)
	}
	return tokenPayload(token), nil
}

// Logout ends the Keycloak session bound to refreshToken
func (c *Client) Logout(ctx context.Context, refreshToken sso.Token) error {
	form := url.Values{
		"client_id":     {c.config.Resource},
		"client_secret": {c.config.Credentials.Secret},
		"refresh_token": {refreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endSessionURL, strings.NewReader(form.Encode()))
	if err != nil {
		return &sso.ProviderError{Op: OpLogout, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &sso.ProviderError{Op: OpLogout, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	perr := &sso.ProviderError{Op: OpLogout}
	var oauthErr struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if json.Unmarshal(body, &oauthErr) == nil && oauthErr.Error != "" {
		perr.Code = oauthErr.Error
		perr.Description = oauthErr.ErrorDescription
	} else {
		perr.Err = fmt.Errorf("logout returned status %d: %s", resp.StatusCode, body)
	}
	return perr
}

// Ping fetches the realm discovery document, for readiness checks
func (c *Client) Ping(ctx context.Context) error {
	wellKnown := c.config.IssuerURL() + "/.well-known/openid-configuration"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wellKnown, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("keycloak unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("keycloak discovery returned status %d", resp.StatusCode)
	}
	return nil
}

// EndSessionURL returns the realm logout endpoint
func (c *Client) EndSessionURL() string {
	return c.endSessionURL
}

func providerError(op string, err error) error {
	perr := &sso.ProviderError{Op: op, Err: err}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		perr.Code = retrieveErr.ErrorCode
		perr.Description = retrieveErr.ErrorDescription
		// RetrieveError.Error() repeats the response body
		if retrieveErr.Response != nil {
			perr.Err = fmt.Errorf("token endpoint returned status %d", retrieveErr.Response.StatusCode)
		}
	}
	return perr
}

func tokenPayload(token *oauth2.Token) sso.TokenPayload {
	payload := sso.TokenPayload{
		sso.KeyAccessToken:  token.AccessToken,
		sso.KeyRefreshToken: token.RefreshToken,
		sso.KeyTokenType:    token.TokenType,
		sso.KeyExpiresIn:    token.ExpiresIn,
	}
	if v := token.Extra(sso.KeyRefreshExpiresIn); v != nil {
		payload[sso.KeyRefreshExpiresIn] = v
	}
	if v, ok := token.Extra("id_token").(string); ok {
		payload["id_token"] = v
	}
	return payload
}
