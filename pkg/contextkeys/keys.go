// Package contextkeys provides centralized context key definitions
//
// All context keys used across the module are defined here. This prevents
// typos and makes key usage discoverable.
//
// USAGE PATTERN:
//
//	ctx = contextkeys.WithUser(ctx, user)
//	user := contextkeys.User(ctx)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// UserKey contains the local user resolved from the request token
	// Set by: middleware.AuthMiddleware (pkg/middleware/auth.go)
	// Required by: handlers behind the auth middleware
	// Type: the embedding service's user type
	UserKey Key = "sso_user"

	// RequestIDKey contains request ID string (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: Logger annotations in the SSO flow
	// Type: string
	RequestIDKey Key = "request_id"
)

// WithUser adds the resolved user to the context
func WithUser(ctx context.Context, user interface{}) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// User retrieves the resolved user from context, or nil
func User(ctx context.Context) interface{} {
	return ctx.Value(UserKey)
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
