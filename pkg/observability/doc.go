// Package observability provides logging, Prometheus metrics, health checks,
// tracing and graceful shutdown for the SSO demo server.
//
// Logging:
//
//	logger := observability.NewLogger("info", os.Stdout)
//	logger.WithField("request_id", reqID).Warn("No refresh token found in cookies")
//
// Metrics are registered on a caller supplied registry. Every Record method is
// a no-op on a nil *Metrics, so the session flow runs without them:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	router.Use(observability.HTTPMetricsMiddleware(metrics))
//	router.Handle("/metrics", observability.MetricsHandler(registry))
//
// Health checks cover the user store database plus any registered dependency:
//
//	checker := observability.NewHealthChecker(db, version)
//	checker.AddCheck("keycloak", provider.Ping, false)
//	observability.RegisterHealthRoutes(router, checker)
//
// Tracing exports spans over OTLP/gRPC when enabled; otelhttp picks up the
// global tracer provider installed by InitTracing.
package observability
