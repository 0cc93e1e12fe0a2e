package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EventMetrics covers change-event publishing to NATS.
type EventMetrics struct {
	published       metric.Int64Counter
	publishDuration metric.Float64Histogram
	publishErrors   metric.Int64Counter
	breakerState    metric.Int64UpDownCounter
}

func NewEventMetrics(meter metric.Meter) (*EventMetrics, error) {
	em := &EventMetrics{}

	var err error

	em.published, err = meter.Int64Counter(
		"ledger.events.published",
		metric.WithDescription("Total number of change events published"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	em.publishDuration, err = meter.Float64Histogram(
		"ledger.events.publish_duration",
		metric.WithDescription("Time spent publishing a change event"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(publishBuckets...),
	)
	if err != nil {
		return nil, err
	}

	em.publishErrors, err = meter.Int64Counter(
		"ledger.events.errors",
		metric.WithDescription("Change events that could not be published"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	em.breakerState, err = meter.Int64UpDownCounter(
		"ledger.events.breaker_open",
		metric.WithDescription("1 while the publish circuit breaker is open"),
		metric.WithUnit("{state}"),
	)
	if err != nil {
		return nil, err
	}

	return em, nil
}

func (em *EventMetrics) RecordPublish(ctx context.Context, eventType string, duration time.Duration, err error) {
	if em == nil || em.published == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("event_type", eventType))

	em.published.Add(ctx, 1, attrs)
	em.publishDuration.Record(ctx, duration.Seconds(), attrs)

	if err != nil {
		em.publishErrors.Add(ctx, 1, attrs)
	}
}

// RecordBreakerChange adds +1 when the breaker opens and -1 when it leaves open.
func (em *EventMetrics) RecordBreakerChange(ctx context.Context, delta int64) {
	if em == nil || em.breakerState == nil {
		return
	}
	em.breakerState.Add(ctx, delta)
}
