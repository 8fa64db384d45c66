package httputil

import (
	"context"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/keycloak-sso/pkg/contextkeys"
)

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

// LoggingMiddleware logs HTTP requests. Path segments following any of
// redactPrefixes are replaced, so tokens carried in the path are not logged.
func LoggingMiddleware(logger logrus.FieldLogger, redactPrefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Capture the status code
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			logger.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       redactPath(r.URL.Path, redactPrefixes),
				"remote":     r.RemoteAddr,
				"status":     rw.statusCode,
				"duration":   time.Since(start).String(),
				"request_id": contextkeys.GetRequestID(r.Context()),
			}).Info("Request handled")
		})
	}
}

func redactPath(path string, prefixes []string) string {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix+"/") && len(path) > len(prefix)+1 {
			return prefix + "/[redacted]"
		}
	}
	return path
}

type originalURLKey struct{}

type originalURL struct {
	url        *url.URL
	requestURI string
}

// TracingMiddleware wraps handlers in an otelhttp server span named operation.
// The span sees the path with segments after redactPrefixes replaced, the
// same way LoggingMiddleware logs it; the wrapped handler still gets the
// original URL.
func TracingMiddleware(operation string, redactPrefixes []string, opts ...otelhttp.Option) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		traced := otelhttp.NewHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if orig, ok := r.Context().Value(originalURLKey{}).(originalURL); ok {
				r = r.WithContext(r.Context())
				r.URL = orig.url
				r.RequestURI = orig.requestURI
			}
			next.ServeHTTP(w, r)
		}), operation, opts...)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			redacted := redactPath(r.URL.Path, redactPrefixes)
			if redacted == r.URL.Path {
				traced.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), originalURLKey{}, originalURL{url: r.URL, requestURI: r.RequestURI})
			masked := r.WithContext(ctx)
			u := *r.URL
			u.Path = redacted
			u.RawPath = ""
			masked.URL = &u
			masked.RequestURI = u.RequestURI()
			traced.ServeHTTP(w, masked)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RecoveryMiddleware recovers from panics and returns a 500 error
func RecoveryMiddleware(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.WithFields(logrus.Fields{
						"panic": err,
						"stack": string(debug.Stack()),
					}).Error("Recovered from panic")
					WriteInternalError(w, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestIDMiddleware adds a unique request ID to each request and stores it
// in the request context
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, requestID)

		ctx := contextkeys.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Chain chains multiple middleware together
func Chain(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
