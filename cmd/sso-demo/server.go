package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/keycloak-sso/pkg/httputil"
	"github.com/platinummonkey/keycloak-sso/pkg/middleware"
	"github.com/platinummonkey/keycloak-sso/pkg/observability"
	"github.com/platinummonkey/keycloak-sso/pkg/sso"
	"github.com/platinummonkey/keycloak-sso/pkg/userstore"
)

type serverDeps struct {
	flow     *sso.SessionFlow[*userstore.User]
	logger   logrus.FieldLogger
	metrics  *observability.Metrics
	registry *prometheus.Registry
	checker  *observability.HealthChecker
}

// newServer mounts the SSO routes, a protected /me endpoint, health probes
// and metrics
func newServer(deps serverDeps) http.Handler {
	router := mux.NewRouter()
	if deps.metrics != nil {
		router.Use(observability.HTTPMetricsMiddleware(deps.metrics))
		router.Handle("/metrics", observability.MetricsHandler(deps.registry)).Methods(http.MethodGet)
	}

	deps.flow.RegisterRoutes(router, sso.DefaultRoutes())
	observability.RegisterHealthRoutes(router, deps.checker)

	auth := middleware.NewAuthMiddleware(deps.flow.Resolver(), false)
	router.Handle("/me", auth.Handler(http.HandlerFunc(me))).Methods(http.MethodGet)

	return httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(deps.logger, sso.DefaultRoutes().Validate),
		httputil.RecoveryMiddleware(deps.logger),
	)(router)
}

func me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser[*userstore.User](r)
	if !ok {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}
