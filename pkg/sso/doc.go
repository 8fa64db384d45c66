// Package sso lets a service delegate authentication to an OpenID Connect
// identity provider (Keycloak) while keeping its own local user records.
//
// # Overview
//
// A request is authenticated in three steps:
//  1. LocateToken finds a bearer token in the session cookie or the
//     Authorization header
//  2. the Provider verifies the token and returns its claims
//  3. a caller-supplied UserLookup maps the email claim onto a local user
//
// Only when both the provider and the local lookup accept the token is the
// user considered authenticated.
//
// # Session Lifecycle
//
// SessionFlow implements the browser SSO handlers:
//
//	flow := sso.NewSessionFlow(provider, users.Lookup, sso.Config{
//		CookiePrefix: "my-service",
//		TokenURL:     "https://api.example.com/token-sso",
//		FrontendURL:  "https://app.example.com/",
//	}, sso.WithHooks(sso.Hooks[*User]{
//		OnSuccess: recordLogin,
//		OnFailure: alertOnProviderError,
//	}))
//	flow.RegisterRoutes(router, sso.DefaultRoutes())
//
// Login redirects to the provider, Callback exchanges the authorization code
// and sets the session cookies, Refresh rotates the access token, Validate
// checks a token and Logout revokes the refresh token and clears cookies.
//
// # Related Packages
//
//   - pkg/keycloak: Provider backed by go-oidc and x/oauth2
//   - pkg/ssotest: in-memory Provider for tests
//   - pkg/middleware: request authentication middleware
package sso
