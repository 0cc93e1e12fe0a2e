package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewMock_IgnoresRecords(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.Database.RecordQuery(ctx, "SELECT", "projects", time.Millisecond, errors.New("boom"))
		m.Database.RecordSlowQuery(ctx, "SELECT", "projects")
		m.Events.RecordPublish(ctx, "client.created", time.Millisecond, nil)
		m.Events.RecordBreakerChange(ctx, 1)
		m.Ledger.RecordOperation(ctx, "client", "create", time.Millisecond, nil)
		m.Ledger.RecordSnapshot(ctx, 3)
		m.Health.RecordDependencyCheck(ctx, "database", time.Millisecond, nil)
		require.NoError(t, m.Database.RegisterDB(nil, m.Meter()))
	})
}

func TestLedgerMetrics_RecordOperation(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("test")

	lm, err := NewLedgerMetrics(meter)
	require.NoError(t, err)

	ctx := context.Background()
	lm.RecordOperation(ctx, "project", "list", 5*time.Millisecond, nil)
	lm.RecordOperation(ctx, "project", "list", 5*time.Millisecond, errors.New("fail"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != "ledger.operations" {
				continue
			}
			sum, ok := md.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			assert.Len(t, sum.DataPoints, 2, "success and error outcomes are separate series")
		}
	}
	assert.Equal(t, int64(2), total)
}

func TestHealthMetrics_Availability(t *testing.T) {
	hm := NewMock().Health
	require.NoError(t, hm.RegisterDependencies(nil, []string{"database"}))

	ctx := context.Background()
	hm.RecordDependencyCheck(ctx, "database", time.Millisecond, nil)
	assert.True(t, hm.Available("database"))

	hm.RecordDependencyCheck(ctx, "database", time.Millisecond, errors.New("down"))
	assert.False(t, hm.Available("database"))

	assert.False(t, hm.Available("nats"))
}
