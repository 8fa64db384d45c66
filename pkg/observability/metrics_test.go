package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	require.NotNil(t, metrics)

	metrics.RecordLogin()
	metrics.RecordCallback(ResultSuccess)
	metrics.RecordRefresh(ResultExpired)
	metrics.RecordValidation(ResultUnauthorized)
	metrics.RecordLogout(ResultEmpty)
	metrics.RecordHook("on_success", "called")

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, name := range []string{
		"sso_logins_total",
		"sso_callbacks_total",
		"sso_refreshes_total",
		"sso_validations_total",
		"sso_logouts_total",
		"sso_hook_calls_total",
	} {
		assert.True(t, names[name], "missing %s", name)
	}
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewMetrics(registry)

	assert.Panics(t, func() { NewMetrics(registry) })
}

func TestMetrics_Record(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.RecordLogin()
	metrics.RecordLogin()
	metrics.RecordCallback(ResultSuccess)
	metrics.RecordCallback(ResultUnauthorized)
	metrics.RecordCallback(ResultUnauthorized)
	metrics.RecordRefresh(ResultError)
	metrics.RecordHook("on_failure", "missing")

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.LoginsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CallbacksTotal.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.CallbacksTotal.WithLabelValues(ResultUnauthorized)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RefreshesTotal.WithLabelValues(ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HookCallsTotal.WithLabelValues("on_failure", "missing")))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var metrics *Metrics

	assert.NotPanics(t, func() {
		metrics.RecordLogin()
		metrics.RecordCallback(ResultSuccess)
		metrics.RecordRefresh(ResultSuccess)
		metrics.RecordValidation(ResultSuccess)
		metrics.RecordLogout(ResultSuccess)
		metrics.RecordHook("on_success", "called")
	})
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	router := mux.NewRouter()
	router.Use(HTTPMetricsMiddleware(metrics))
	router.HandleFunc("/validate-token-sso/{token}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("Invalid"))
	}).Methods(http.MethodGet)
	router.HandleFunc("/login-sso", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://keycloak.example/auth", http.StatusFound)
	}).Methods(http.MethodGet)

	for _, path := range []string{"/validate-token-sso/secret-token-1", "/validate-token-sso/secret-token-2", "/login-sso"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(
		metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/validate-token-sso/{token}", "401")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/login-sso", "302")))
}

func TestHTTPMetricsMiddleware_Unmatched(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	handler := HTTPMetricsMiddleware(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/anything/abc", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(
		metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "200")))
}

func TestMetricsHandler(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	metrics.RecordLogout(ResultSuccess)

	rr := httptest.NewRecorder()
	MetricsHandler(registry).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `sso_logouts_total{result="success"} 1`))
}
