package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// LedgerMetrics counts service operations by entity and outcome.
type LedgerMetrics struct {
	operations        metric.Int64Counter
	operationDuration metric.Float64Histogram
	snapshotRows      metric.Int64Counter
}

func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	lm := &LedgerMetrics{}

	var err error

	lm.operations, err = meter.Int64Counter(
		"ledger.operations",
		metric.WithDescription("Ledger operations by entity, operation and outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	lm.operationDuration, err = meter.Float64Histogram(
		"ledger.operation.duration",
		metric.WithDescription("Ledger operation duration including aggregation"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	)
	if err != nil {
		return nil, err
	}

	lm.snapshotRows, err = meter.Int64Counter(
		"ledger.budget_snapshots.written",
		metric.WithDescription("Project budget snapshot rows written"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, err
	}

	return lm, nil
}

func (lm *LedgerMetrics) RecordOperation(ctx context.Context, entity, operation string, duration time.Duration, err error) {
	if lm == nil || lm.operations == nil {
		return
	}

	outcome := "success"
	if err != nil {
		outcome = "error"
	}

	attrs := metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)

	lm.operations.Add(ctx, 1, attrs)
	lm.operationDuration.Record(ctx, duration.Seconds(), attrs)
}

func (lm *LedgerMetrics) RecordSnapshot(ctx context.Context, rows int) {
	if lm == nil || lm.snapshotRows == nil {
		return
	}
	lm.snapshotRows.Add(ctx, int64(rows))
}
