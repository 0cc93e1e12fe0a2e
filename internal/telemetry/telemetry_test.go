package telemetry_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"project-ledger/internal/config"
	"project-ledger/internal/metrics"
	"project-ledger/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_ExposesMetricsOverPrometheus(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tel, err := telemetry.Init(ctx, config.TelemetryConfig{}, "ledger-test", "test", logger)
	require.NoError(t, err)
	defer tel.Shutdown(ctx)

	m, err := metrics.New(ctx, "ledger-test", logger)
	require.NoError(t, err)
	m.Ledger.RecordOperation(ctx, "client", "create", 0, nil)

	w := httptest.NewRecorder()
	tel.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "ledger_operations")
	assert.Contains(t, body, "go_goroutines")
}

func TestShutdown_NilSafe(t *testing.T) {
	var tel *telemetry.Telemetry
	assert.NoError(t, tel.Shutdown(context.Background()))
}
