package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"project-ledger/internal/config"
	"project-ledger/internal/metrics"

	"github.com/nats-io/nats.go"
	"github.com/sony/gobreaker"
)

type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.EventMetrics
	logger  *slog.Logger
}

var _ Publisher = (*NATSPublisher)(nil)

func NewNATSPublisher(cfg config.NATSConfig, m *metrics.EventMetrics, logger *slog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("ledger-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	logger.Info("NATS publisher initialized", "url", cfg.URL, "subject", cfg.Subject)

	return &NATSPublisher{
		conn:    conn,
		subject: cfg.Subject,
		breaker: newBreaker("nats-publish", m, logger),
		metrics: m,
		logger:  logger,
	}, nil
}

// newBreaker trips after four consecutive failures and half-opens after five seconds.
func newBreaker(name string, m *metrics.EventMetrics, logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			switch {
			case to == gobreaker.StateOpen:
				m.RecordBreakerChange(context.Background(), 1)
			case from == gobreaker.StateOpen:
				m.RecordBreakerChange(context.Background(), -1)
			}
		},
	})
}

// Subject returns the NATS subject an event type is published on.
func (p *NATSPublisher) Subject(eventType string) string {
	return p.subject + "." + eventType
}

func (p *NATSPublisher) Publish(ctx context.Context, eventType string, entityID int64, data any) {
	event := newEvent(eventType, entityID, data)

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to marshal event", "type", eventType, "error", err)
		return
	}

	start := time.Now()
	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.conn.Publish(p.Subject(eventType), payload)
	})
	p.metrics.RecordPublish(ctx, eventType, time.Since(start), err)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			p.logger.WarnContext(ctx, "event dropped, publisher circuit open", "type", eventType, "event_id", event.ID)
			return
		}
		p.logger.ErrorContext(ctx, "failed to publish event", "type", eventType, "event_id", event.ID, "error", err)
		return
	}

	p.logger.DebugContext(ctx, "event published", "type", eventType, "event_id", event.ID, "entity_id", entityID)
}

// Close flushes buffered events before closing the connection.
func (p *NATSPublisher) Close() error {
	if err := p.conn.FlushTimeout(5 * time.Second); err != nil {
		p.logger.Warn("failed to flush NATS connection", "error", err)
	}
	p.conn.Close()
	return nil
}

// Ping round-trips to the server. ctx must carry a deadline.
func (p *NATSPublisher) Ping(ctx context.Context) error {
	return p.conn.FlushWithContext(ctx)
}
