package sso

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/keycloak-sso/pkg/contextkeys"
	"github.com/platinummonkey/keycloak-sso/pkg/httputil"
	"github.com/platinummonkey/keycloak-sso/pkg/observability"
)

// Hook names, used in logs and metrics
const (
	HookSuccess = "on_success"
	HookFailure = "on_failure"
)

// Hooks are optional callbacks the embedding service registers to observe the
// session lifecycle. A nil hook is skipped with a warning.
type Hooks[U any] struct {
	// OnSuccess runs after a callback resolved a local user
	OnSuccess func(ctx context.Context, user U)
	// OnFailure runs when the provider fails unexpectedly during callback,
	// refresh or logout. Expired refresh tokens do not trigger it.
	OnFailure func(ctx context.Context)
}

// SessionFlow implements the SSO session lifecycle handlers: login, token
// callback, refresh, validate and logout.
//
// The flow keeps no server-side state; the session lives in the client's
// cookies. The host service mounts the handlers on its own router, either
// directly or through RegisterRoutes.
type SessionFlow[U any] struct {
	provider Provider
	resolver *Resolver[U]
	config   Config
	cookies  cookieWriter
	hooks    Hooks[U]
	logger   logrus.FieldLogger
	metrics  *observability.Metrics
}

// Option configures a SessionFlow
type Option[U any] func(*SessionFlow[U])

// WithHooks registers lifecycle hooks
func WithHooks[U any](hooks Hooks[U]) Option[U] {
	return func(f *SessionFlow[U]) {
		f.hooks = hooks
	}
}

// WithLogger sets the flow logger. The resolver created by the flow shares it.
func WithLogger[U any](logger logrus.FieldLogger) Option[U] {
	return func(f *SessionFlow[U]) {
		f.logger = logger
	}
}

// WithMetrics records flow outcomes into metrics
func WithMetrics[U any](metrics *observability.Metrics) Option[U] {
	return func(f *SessionFlow[U]) {
		f.metrics = metrics
	}
}

// NewSessionFlow creates a session flow. It builds its own Resolver with the
// configured cookie prefix so that cookie names always agree.
func NewSessionFlow[U any](provider Provider, lookup UserLookup[U], config Config, opts ...Option[U]) *SessionFlow[U] {
	config = config.withDefaults()

	f := &SessionFlow[U]{
		provider: provider,
		config:   config,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = discardLogger()
	}

	f.resolver = NewResolver(provider, lookup,
		WithCookiePrefix(config.CookiePrefix),
		WithResolverLogger(f.logger),
	)
	f.cookies = cookieWriter{
		names:    f.resolver.CookieNames(),
		path:     config.CookiePath,
		insecure: config.InsecureCookies,
		legacy:   config.LegacyCookies,
	}

	return f
}

// Resolver returns the resolver used by the flow, for use in middleware
func (f *SessionFlow[U]) Resolver() *Resolver[U] {
	return f.resolver
}

// Config returns the effective configuration
func (f *SessionFlow[U]) Config() Config {
	return f.config
}

// Login redirects to the provider login form, configured to come back to the
// token callback. A random state is stored in a cookie and sent along, so the
// callback only accepts logins this browser started.
func (f *SessionFlow[U]) Login(w http.ResponseWriter, r *http.Request) {
	state, err := newState()
	if err != nil {
		f.log(r.Context()).WithError(err).Error("Failed to generate state")
		httputil.WriteText(w, http.StatusInternalServerError, "Failed to generate state")
		return
	}

	authURL, err := f.provider.AuthURL(r.Context(), f.config.TokenURL, state)
	if err != nil {
		f.log(r.Context()).WithError(err).Error("Failed to build login URL")
		httputil.WriteText(w, http.StatusBadGateway, "Identity provider unavailable")
		return
	}

	f.cookies.setState(w, state)
	f.metrics.RecordLogin()
	http.Redirect(w, r, authURL, http.StatusFound)
}

func newState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// validState reports whether the state query parameter matches the state
// cookie set by Login
func (f *SessionFlow[U]) validState(r *http.Request) bool {
	c, err := r.Cookie(f.cookies.names.State)
	if err != nil || c.Value == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Value), []byte(r.URL.Query().Get("state"))) == 1
}

// Callback handles the redirect back from the provider login.
//
// The provider passes a one-time "code" and the state issued by Login, which
// must match the state cookie. The code is exchanged for tokens. The
// user reaches the frontend only if the new access token maps to a local user;
// the token set is then stored in cookies.
func (f *SessionFlow[U]) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code := r.URL.Query().Get("code")
	if code == "" {
		f.metrics.RecordCallback(observability.ResultEmpty)
		httputil.WriteText(w, http.StatusOK, "Empty request")
		return
	}

	if !f.validState(r) {
		f.log(ctx).Warn("Rejected callback with missing or mismatched state")
		f.metrics.RecordCallback(observability.ResultInvalidState)
		httputil.WriteText(w, http.StatusBadRequest, "Invalid state")
		return
	}

	payload, err := f.provider.Exchange(ctx, code, f.config.TokenURL)
	if err != nil {
		f.log(ctx).WithError(err).Error("Failed to exchange authorization code")
		f.metrics.RecordCallback(observability.ResultError)
		f.runFailure(ctx)
		httputil.WriteText(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, ok := f.resolver.ResolveToken(ctx, payload.AccessToken())
	if !ok {
		f.metrics.RecordCallback(observability.ResultUnauthorized)
		httputil.WriteText(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	f.runSuccess(ctx, user)
	f.cookies.setSession(w, payload, f.config.RefreshTokenURL)
	f.metrics.RecordCallback(observability.ResultSuccess)
	http.Redirect(w, r, f.config.FrontendURL, http.StatusFound)
}

type refreshRequest struct {
	Token string `json:"token"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

// Refresh issues a new access token from a refresh token.
//
// The refresh token is read from the session cookie, falling back to a JSON
// body {"token": "..."} for clients that keep tokens themselves.
func (f *SessionFlow[U]) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	refreshToken := f.refreshTokenFromRequest(r)
	if refreshToken == "" {
		f.metrics.RecordRefresh(observability.ResultUnauthorized)
		httputil.WriteText(w, http.StatusUnauthorized, "Invalid")
		return
	}

	payload, err := f.provider.Refresh(ctx, refreshToken)
	if err != nil {
		if IsExpectedExpiry(err) {
			f.log(ctx).WithError(err).Info("Refresh token expired")
			f.metrics.RecordRefresh(observability.ResultExpired)
		} else {
			f.log(ctx).WithError(err).Error("Failed to refresh access token")
			f.metrics.RecordRefresh(observability.ResultError)
			f.runFailure(ctx)
		}
		httputil.WriteText(w, http.StatusUnauthorized, "Invalid")
		return
	}

	f.cookies.setSession(w, payload, f.config.RefreshTokenURL)
	f.metrics.RecordRefresh(observability.ResultSuccess)
	httputil.WriteJSON(w, http.StatusOK, refreshResponse{AccessToken: payload.AccessToken()})
}

func (f *SessionFlow[U]) refreshTokenFromRequest(r *http.Request) Token {
	if c, err := r.Cookie(f.cookies.names.RefreshToken); err == nil && c.Value != "" {
		return c.Value
	}
	if r.Body == nil || r.ContentLength == 0 {
		return ""
	}

	var req refreshRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		f.log(r.Context()).WithError(err).Warn("Malformed refresh request body")
		return ""
	}
	return req.Token
}

// Validate reports whether an access token is valid and belongs to a local
// user. The token comes from the "token" path variable when the route defines
// one, otherwise from the session cookie or Authorization header.
//
// Validation has no side effects; repeated calls with the same token give the
// same answer.
func (f *SessionFlow[U]) Validate(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	if token == "" {
		token, _ = LocateToken(r, f.cookies.names.AccessToken)
	}

	if token != "" {
		if _, ok := f.resolver.ResolveToken(r.Context(), token); ok {
			f.metrics.RecordValidation(observability.ResultSuccess)
			httputil.WriteText(w, http.StatusOK, "Valid")
			return
		}
	}

	f.metrics.RecordValidation(observability.ResultUnauthorized)
	httputil.WriteText(w, http.StatusUnauthorized, "Invalid")
}

// Logout revokes the provider session and redirects to the login URL.
//
// The provider only invalidates the refresh token; access tokens stay valid
// until they expire. The redirect happens even when revocation fails.
func (f *SessionFlow[U]) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result := observability.ResultSuccess

	refreshToken := ""
	if c, err := r.Cookie(f.cookies.names.RefreshToken); err == nil {
		refreshToken = c.Value
	}

	if refreshToken == "" {
		f.log(ctx).Warn("No refresh token found in cookies")
		result = observability.ResultEmpty
	} else if err := f.provider.Logout(ctx, refreshToken); err != nil {
		f.log(ctx).WithError(err).Error("Failed to invalidate refresh token")
		result = observability.ResultError
		f.runFailure(ctx)
	} else {
		f.log(ctx).Info("Logged out and invalidated refresh token")
	}

	f.cookies.clearSession(w)
	f.metrics.RecordLogout(result)
	http.Redirect(w, r, f.config.LoginURL, http.StatusFound)
}

func (f *SessionFlow[U]) runSuccess(ctx context.Context, user U) {
	if f.hooks.OnSuccess == nil {
		f.missingHook(ctx, HookSuccess)
		return
	}
	f.metrics.RecordHook(HookSuccess, "called")
	f.hooks.OnSuccess(ctx, user)
}

func (f *SessionFlow[U]) runFailure(ctx context.Context) {
	if f.hooks.OnFailure == nil {
		f.missingHook(ctx, HookFailure)
		return
	}
	f.metrics.RecordHook(HookFailure, "called")
	f.hooks.OnFailure(ctx)
}

func (f *SessionFlow[U]) missingHook(ctx context.Context, name string) {
	f.metrics.RecordHook(name, "missing")
	f.log(ctx).WithField("hook", name).Warn("Failed to call hook, none registered")
}

// log returns the flow logger annotated with the request ID, when present
func (f *SessionFlow[U]) log(ctx context.Context) logrus.FieldLogger {
	logger := f.logger
	if requestID := contextkeys.GetRequestID(ctx); requestID != "" {
		logger = logger.WithField("request_id", requestID)
	}
	if fields := observability.TraceFields(ctx); fields != nil {
		logger = logger.WithFields(fields)
	}
	return logger
}

// Routes are the paths RegisterRoutes mounts the handlers on
type Routes struct {
	Login    string
	Token    string
	Refresh  string
	Validate string
	Logout   string
}

// DefaultRoutes returns the conventional SSO paths
func DefaultRoutes() Routes {
	return Routes{
		Login:    "/login-sso",
		Token:    "/token-sso",
		Refresh:  "/refresh-token-sso",
		Validate: "/validate-token-sso",
		Logout:   "/logout",
	}
}

// RegisterRoutes registers the SSO handlers on router
func (f *SessionFlow[U]) RegisterRoutes(router *mux.Router, routes Routes) {
	router.HandleFunc(routes.Login, f.Login).Methods("GET")
	router.HandleFunc(routes.Token, f.Callback).Methods("GET")
	router.HandleFunc(routes.Refresh, f.Refresh).Methods("POST")
	router.HandleFunc(routes.Validate, f.Validate).Methods("GET")
	router.HandleFunc(routes.Validate+"/{token}", f.Validate).Methods("GET")
	router.HandleFunc(routes.Logout, f.Logout).Methods("GET")
}
