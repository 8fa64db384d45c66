package sso

import (
	"context"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// UserLookup maps a verified identity claim onto a local user. It must not
// fail: an unknown user is reported with ok == false.
type UserLookup[U any] func(ctx context.Context, claim string, payload TokenPayload) (user U, ok bool)

// Resolver turns tokens into local users.
//
// A user is authenticated only when the provider accepts the token and the
// local lookup knows the identity claim inside it. Nothing is cached: each call
// decodes and looks up again.
type Resolver[U any] struct {
	provider Provider
	lookup   UserLookup[U]
	cookies  CookieNames
	logger   logrus.FieldLogger
}

// ResolverOption configures a Resolver
type ResolverOption func(*resolverOptions)

type resolverOptions struct {
	prefix string
	logger logrus.FieldLogger
}

// WithCookiePrefix sets the prefix used to find the access token cookie
func WithCookiePrefix(prefix string) ResolverOption {
	return func(o *resolverOptions) {
		o.prefix = prefix
	}
}

// WithResolverLogger sets the logger for verification failures
func WithResolverLogger(logger logrus.FieldLogger) ResolverOption {
	return func(o *resolverOptions) {
		o.logger = logger
	}
}

// NewResolver creates a resolver backed by provider and lookup
func NewResolver[U any](provider Provider, lookup UserLookup[U], opts ...ResolverOption) *Resolver[U] {
	o := resolverOptions{prefix: DefaultCookiePrefix}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = discardLogger()
	}

	return &Resolver[U]{
		provider: provider,
		lookup:   lookup,
		cookies:  NewCookieNames(o.prefix),
		logger:   o.logger,
	}
}

// CookieNames returns the session cookie names this resolver reads
func (r *Resolver[U]) CookieNames() CookieNames {
	return r.cookies
}

// DecodePayload returns the verified claims of token, or an empty payload if
// the provider rejects it
func (r *Resolver[U]) DecodePayload(ctx context.Context, token Token) TokenPayload {
	payload, err := r.provider.DecodeAndVerify(ctx, token)
	if err != nil {
		r.logger.WithError(err).Error("Failed to decode access token")
		return TokenPayload{}
	}
	if payload == nil {
		return TokenPayload{}
	}
	return payload
}

// ResolveToken finds the local user for an access token
func (r *Resolver[U]) ResolveToken(ctx context.Context, token Token) (U, bool) {
	var zero U

	payload := r.DecodePayload(ctx, token)
	if payload.IsEmpty() {
		return zero, false
	}

	claim := payload.Email()
	if claim == "" {
		r.logger.Warn("Verified token carries no email claim")
		return zero, false
	}

	return r.lookup(ctx, claim, payload)
}

// ResolveRequest finds the local user for the token carried by req. Requests
// without a token are anonymous and never reach the provider.
func (r *Resolver[U]) ResolveRequest(req *http.Request) (U, bool) {
	token, ok := LocateToken(req, r.cookies.AccessToken)
	if !ok {
		var zero U
		return zero, false
	}
	return r.ResolveToken(req.Context(), token)
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
