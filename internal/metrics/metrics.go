package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	Runtime  *RuntimeMetrics
	Database *DatabaseMetrics
	Events   *EventMetrics
	Health   *HealthMetrics
	Ledger   *LedgerMetrics
	meter    metric.Meter
	logger   *slog.Logger
}

func New(ctx context.Context, serviceName string, logger *slog.Logger) (*Metrics, error) {
	meter := otel.Meter(serviceName)

	runtime, err := NewRuntimeMetrics(ctx, meter)
	if err != nil {
		return nil, err
	}

	database, err := NewDatabaseMetrics(meter)
	if err != nil {
		return nil, err
	}

	events, err := NewEventMetrics(meter)
	if err != nil {
		return nil, err
	}

	health, err := NewHealthMetrics(meter)
	if err != nil {
		return nil, err
	}

	ledger, err := NewLedgerMetrics(meter)
	if err != nil {
		return nil, err
	}

	logger.Info("metrics collectors initialized successfully")

	return &Metrics{
		Runtime:  runtime,
		Database: database,
		Events:   events,
		Health:   health,
		Ledger:   ledger,
		meter:    meter,
		logger:   logger,
	}, nil
}

// Meter is nil for instances built by NewMock.
func (m *Metrics) Meter() metric.Meter {
	return m.meter
}

// NewMock creates a no-op Metrics instance for testing
// The returned Metrics will safely ignore all Record* calls
func NewMock() *Metrics {
	return &Metrics{
		Runtime:  &RuntimeMetrics{},
		Database: &DatabaseMetrics{},
		Events:   &EventMetrics{},
		Health:   &HealthMetrics{dependencies: map[string]*DependencyStatus{}},
		Ledger:   &LedgerMetrics{},
	}
}
