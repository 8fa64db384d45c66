package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/keycloak-sso/pkg/sso"
	"github.com/platinummonkey/keycloak-sso/pkg/ssotest"
)

func newTestResolver() (*sso.Resolver[*ssotest.User], *ssotest.FakeProvider, ssotest.Users) {
	provider := ssotest.NewFakeProvider()
	users := ssotest.NewUsers("bob@example.com")
	return sso.NewResolver(provider, users.Lookup), provider, users
}

func TestNewAuthMiddleware(t *testing.T) {
	resolver, _, _ := newTestResolver()

	t.Run("creates middleware with required auth", func(t *testing.T) {
		m := NewAuthMiddleware(resolver, false)
		require.NotNil(t, m)
		assert.Same(t, resolver, m.resolver)
		assert.False(t, m.optional)
	})

	t.Run("creates middleware with optional auth", func(t *testing.T) {
		m := NewAuthMiddleware(resolver, true)
		require.NotNil(t, m)
		assert.True(t, m.optional)
	})
}

func TestAuthMiddleware_Handler(t *testing.T) {
	t.Run("stores resolved user in context", func(t *testing.T) {
		resolver, provider, users := newTestResolver()
		payload := provider.Issue("bob@example.com")

		var got *ssotest.User
		handler := NewAuthMiddleware(resolver, false).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser[*ssotest.User](r)
			require.True(t, ok)
			got = user
		}))

		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer "+payload.AccessToken())
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Same(t, users["bob@example.com"], got)
	})

	t.Run("rejects anonymous request when required", func(t *testing.T) {
		resolver, _, _ := newTestResolver()
		handler := NewAuthMiddleware(resolver, false).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/me", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"authentication required"}`, w.Body.String())
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	})

	t.Run("rejects unknown local user", func(t *testing.T) {
		resolver, provider, _ := newTestResolver()
		payload := provider.Issue("mallory@example.com")
		handler := NewAuthMiddleware(resolver, false).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer "+payload.AccessToken())
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("allows anonymous request when optional", func(t *testing.T) {
		resolver, _, _ := newTestResolver()
		handlerCalled := false
		handler := NewAuthMiddleware(resolver, true).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
			_, ok := GetUser[*ssotest.User](r)
			assert.False(t, ok)
			w.WriteHeader(http.StatusOK)
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/me", nil))

		assert.True(t, handlerCalled)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
