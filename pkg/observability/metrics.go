package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels shared by the SSO flow counters
const (
	ResultSuccess      = "success"
	ResultUnauthorized = "unauthorized"
	ResultExpired      = "expired"
	ResultError        = "error"
	ResultEmpty        = "empty"
	ResultInvalidState = "invalid_state"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// SSO flow metrics
	LoginsTotal      prometheus.Counter
	CallbacksTotal   *prometheus.CounterVec
	RefreshesTotal   *prometheus.CounterVec
	ValidationsTotal *prometheus.CounterVec
	LogoutsTotal     *prometheus.CounterVec
	HookCallsTotal   *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sso_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sso_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sso_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),

		// SSO flow metrics
		LoginsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sso_logins_total",
				Help: "Total number of redirects to the identity provider login",
			},
		),
		CallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sso_callbacks_total",
				Help: "Total number of authorization code callbacks",
			},
			[]string{"result"},
		),
		RefreshesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sso_refreshes_total",
				Help: "Total number of access token refreshes",
			},
			[]string{"result"},
		),
		ValidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sso_validations_total",
				Help: "Total number of access token validations",
			},
			[]string{"result"},
		),
		LogoutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sso_logouts_total",
				Help: "Total number of logouts",
			},
			[]string{"result"},
		),
		HookCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sso_hook_calls_total",
				Help: "Total number of lifecycle hook dispatches",
			},
			[]string{"hook", "result"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.LoginsTotal,
		m.CallbacksTotal,
		m.RefreshesTotal,
		m.ValidationsTotal,
		m.LogoutsTotal,
		m.HookCallsTotal,
	)

	return m
}

// The record helpers below are no-ops on a nil *Metrics so callers can leave
// metrics unconfigured.

// RecordLogin counts a login redirect
func (m *Metrics) RecordLogin() {
	if m == nil {
		return
	}
	m.LoginsTotal.Inc()
}

// RecordCallback counts a callback outcome
func (m *Metrics) RecordCallback(result string) {
	if m == nil {
		return
	}
	m.CallbacksTotal.WithLabelValues(result).Inc()
}

// RecordRefresh counts a refresh outcome
func (m *Metrics) RecordRefresh(result string) {
	if m == nil {
		return
	}
	m.RefreshesTotal.WithLabelValues(result).Inc()
}

// RecordValidation counts a validation outcome
func (m *Metrics) RecordValidation(result string) {
	if m == nil {
		return
	}
	m.ValidationsTotal.WithLabelValues(result).Inc()
}

// RecordLogout counts a logout outcome
func (m *Metrics) RecordLogout(result string) {
	if m == nil {
		return
	}
	m.LogoutsTotal.WithLabelValues(result).Inc()
}

// RecordHook counts a hook dispatch; result is "called" or "missing"
func (m *Metrics) RecordHook(hook, result string) {
	if m == nil {
		return
	}
	m.HookCallsTotal.WithLabelValues(hook, result).Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)
			path := routeLabel(r)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, path).Observe(float64(rw.bytesWritten))
		})
	}
}

// routeLabel returns the matched route template, never the raw path, so that
// tokens in /validate-token-sso/{token} do not end up in label values.
// The middleware must be installed with Router.Use for a route to be known.
func routeLabel(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return "unmatched"
	}
	tmpl, err := route.GetPathTemplate()
	if err != nil {
		return "unmatched"
	}
	return tmpl
}

// MetricsHandler serves the registry in the Prometheus exposition format
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
