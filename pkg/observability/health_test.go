package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker_Liveness(t *testing.T) {
	checker := NewHealthChecker(nil, "test")

	rr := httptest.NewRecorder()
	checker.Liveness(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, StatusHealthy, body["status"])
}

func TestHealthChecker_Check(t *testing.T) {
	ctx := context.Background()
	failing := func(context.Context) error { return errors.New("discovery unreachable") }
	passing := func(context.Context) error { return nil }

	t.Run("no dependencies", func(t *testing.T) {
		status := NewHealthChecker(nil, "1.2.3").Check(ctx)
		assert.Equal(t, StatusHealthy, status.Status)
		assert.Equal(t, "1.2.3", status.Version)
		assert.Empty(t, status.Dependencies)
	})

	t.Run("healthy database", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectPing()

		checker := NewHealthChecker(db, "test")
		checker.AddCheck("keycloak", passing, false)

		status := checker.Check(ctx)
		assert.Equal(t, StatusHealthy, status.Status)
		assert.Equal(t, StatusHealthy, status.Dependencies["database"].Status)
		assert.Equal(t, StatusHealthy, status.Dependencies["keycloak"].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database down", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		status := NewHealthChecker(db, "test").Check(ctx)
		assert.Equal(t, StatusUnhealthy, status.Status)
		assert.Equal(t, "connection refused", status.Dependencies["database"].Message)
	})

	t.Run("required check fails", func(t *testing.T) {
		checker := NewHealthChecker(nil, "test")
		checker.AddCheck("keycloak", failing, false)

		status := checker.Check(ctx)
		assert.Equal(t, StatusUnhealthy, status.Status)
		assert.Equal(t, "discovery unreachable", status.Dependencies["keycloak"].Message)
	})

	t.Run("optional check fails", func(t *testing.T) {
		checker := NewHealthChecker(nil, "test")
		checker.AddCheck("keycloak", passing, false)
		checker.AddCheck("tracing", failing, true)

		status := checker.Check(ctx)
		assert.Equal(t, StatusDegraded, status.Status)
		assert.Equal(t, StatusUnhealthy, status.Dependencies["tracing"].Status)
	})
}

func TestHealthChecker_Readiness(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		checker := NewHealthChecker(nil, "test")
		rr := httptest.NewRecorder()
		checker.Readiness(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("not ready", func(t *testing.T) {
		checker := NewHealthChecker(nil, "test")
		checker.AddCheck("keycloak", func(context.Context) error { return errors.New("down") }, false)

		rr := httptest.NewRecorder()
		checker.Readiness(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

		var status HealthStatus
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
		assert.Equal(t, StatusUnhealthy, status.Status)
	})
}

func TestRegisterHealthRoutes(t *testing.T) {
	router := mux.NewRouter()
	RegisterHealthRoutes(router, NewHealthChecker(nil, "test"))

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
}
