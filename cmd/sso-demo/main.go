package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/keycloak-sso/pkg/config"
	"github.com/platinummonkey/keycloak-sso/pkg/httputil"
	"github.com/platinummonkey/keycloak-sso/pkg/keycloak"
	"github.com/platinummonkey/keycloak-sso/pkg/observability"
	"github.com/platinummonkey/keycloak-sso/pkg/sso"
	"github.com/platinummonkey/keycloak-sso/pkg/ssotest"
	"github.com/platinummonkey/keycloak-sso/pkg/userstore"
)

var version = "dev"

func main() {
	configPath := flag.String("config", os.Getenv("SSO_CONFIG_FILE"), "Path to a YAML config file")
	demoUsers := flag.String("demo-users", "", "Comma separated emails seeded into the in-memory user store")
	flag.Parse()

	if err := run(*configPath, splitEmails(*demoUsers)); err != nil {
		fmt.Fprintf(os.Stderr, "sso-demo: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, demoUsers []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	ctx := context.Background()

	tp, err := observability.InitTracing(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: version,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return err
	}

	users, db, err := newUserStore(ctx, cfg.Database, demoUsers, logger)
	if err != nil {
		return err
	}
	checker := observability.NewHealthChecker(db, version)

	provider, err := newProvider(ctx, cfg.Keycloak, logger, checker)
	if err != nil {
		return err
	}

	var (
		registry *prometheus.Registry
		metrics  *observability.Metrics
	)
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		metrics = observability.NewMetrics(registry)
	}

	flow := sso.NewSessionFlow(provider, users, cfg.SSO.SessionConfig(),
		sso.WithLogger[*userstore.User](logger),
		sso.WithMetrics[*userstore.User](metrics),
		sso.WithHooks(loggingHooks(logger)),
	)

	handler := newServer(serverDeps{
		flow:     flow,
		logger:   logger,
		metrics:  metrics,
		registry: registry,
		checker:  checker,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      httputil.TracingMiddleware("sso-demo", []string{sso.DefaultRoutes().Validate})(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, server, cfg.Server.ShutdownTimeout)
	if db != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return db.Close()
		})
	}
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return observability.ShutdownTracing(ctx, tp)
	})

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", server.Addr).Info("Starting SSO demo server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	shutdownErr := make(chan error, 1)
	go func() {
		shutdownErr <- shutdown.WaitForShutdown()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case err := <-shutdownErr:
		return err
	}
}

// newProvider connects to Keycloak, or falls back to the in-process fake
// when no adapter file is configured
func newProvider(ctx context.Context, cfg config.KeycloakConfig, logger logrus.FieldLogger, checker *observability.HealthChecker) (sso.Provider, error) {
	if cfg.ConfigPath == "" {
		logger.Warn("No keycloak config set, using the fake identity provider")
		return ssotest.NewFakeProvider(), nil
	}

	adapter, err := keycloak.LoadAdapterConfig(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}

	client, err := keycloak.New(ctx, adapter, keycloak.WithHTTPClient(keycloak.NewHTTPClient(cfg.Timeout)))
	if err != nil {
		return nil, err
	}
	checker.AddCheck("keycloak", client.Ping, false)

	logger.WithField("issuer", adapter.IssuerURL()).Info("Connected to keycloak realm")
	return client, nil
}

// newUserStore opens the SQL user store, or an in-memory one seeded with
// demoUsers when no database is configured. The returned db is nil for the
// in-memory store.
func newUserStore(ctx context.Context, cfg config.DatabaseConfig, demoUsers []string, logger logrus.FieldLogger) (sso.UserLookup[*userstore.User], *sql.DB, error) {
	if cfg.URL == "" {
		store := userstore.NewMemoryStore()
		for i, email := range demoUsers {
			store.Put(&userstore.User{ID: int64(i + 1), Email: email, Active: true})
		}
		logger.WithField("users", len(demoUsers)).Info("Using in-memory user store")
		return store.Lookup, nil, nil
	}

	conn := userstore.DefaultConnectionConfig(cfg.URL)
	if cfg.MaxConns > 0 {
		conn.MaxConns = cfg.MaxConns
	}
	if cfg.Timeout > 0 {
		conn.Timeout = cfg.Timeout
	}

	db, err := userstore.Open(ctx, conn)
	if err != nil {
		return nil, nil, err
	}

	lookup := userstore.NewSQLStore(db, logger).Lookup
	if cfg.CacheSize > 0 {
		lookup = userstore.NewCache(lookup, cfg.CacheSize, cfg.CacheTTL).Lookup
	}
	return lookup, db, nil
}

func loggingHooks(logger logrus.FieldLogger) sso.Hooks[*userstore.User] {
	return sso.Hooks[*userstore.User]{
		OnSuccess: func(ctx context.Context, user *userstore.User) {
			logger.WithField("email", user.Email).Info("User logged in")
		},
		OnFailure: func(ctx context.Context) {
			logger.Warn("SSO step failed")
		},
	}
}

func splitEmails(list string) []string {
	var emails []string
	for _, email := range strings.Split(list, ",") {
		if email = strings.TrimSpace(email); email != "" {
			emails = append(emails, email)
		}
	}
	return emails
}
