package app_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"project-ledger/internal/app"
	"project-ledger/internal/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Env: "test",
		Server: config.ServerConfig{
			Port:        "0",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Database: config.DatabaseConfig{
			Driver:          config.DriverSQLite,
			Path:            fmt.Sprintf("file:app-%s?mode=memory&cache=shared", uuid.NewString()),
			SlowQueryMillis: 200,
		},
	}
}

func TestApp_ServesLedgerAndOperationalRoutes(t *testing.T) {
	ctx := context.Background()

	application, err := app.New(ctx, testConfig())
	require.NoError(t, err)
	defer application.Shutdown(ctx)

	handler := application.Handler()
	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(http.MethodPost, "/clients", `{"client_name":"Acme"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("Content-Type"))

	w = do(http.MethodOptions, "/clients", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(http.MethodGet, "/clients", "")
	assert.JSONEq(t, `[{"client_id":1,"client_name":"Acme"}]`, w.Body.String())

	n, err := application.Service().SnapshotBudgets(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	w = do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_request_duration_seconds")
	assert.Contains(t, w.Body.String(), `route="/clients"`)
}

func TestApp_RejectsUnreachableDatabase(t *testing.T) {
	cfg := testConfig()
	cfg.Database = config.DatabaseConfig{
		Driver: config.DriverPostgres,
		Host:   "127.0.0.1",
		Port:   "1",
		User:   "nobody",
		Name:   "none",
	}

	_, err := app.New(context.Background(), cfg)
	assert.Error(t, err)
}
