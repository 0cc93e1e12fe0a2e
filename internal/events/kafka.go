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

	"github.com/IBM/sarama"
	"github.com/sony/gobreaker"
)

type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	breaker  *gobreaker.CircuitBreaker
	metrics  *metrics.EventMetrics
	logger   *slog.Logger
}

var _ Publisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(cfg config.KafkaConfig, m *metrics.EventMetrics, logger *slog.Logger) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, ProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	logger.Info("kafka publisher initialized", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return NewKafkaPublisherWithProducer(producer, cfg.Topic, m, logger), nil
}

// ProducerConfig waits for all in-sync replicas and hashes keys so one entity's events stay ordered.
// Sends run on the request path, so retries and network timeouts are kept short.
func ProducerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = "ledger-service"
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Timeout = 2 * time.Second
	cfg.Producer.Retry.Max = 1
	cfg.Producer.Retry.Backoff = 50 * time.Millisecond
	cfg.Producer.Return.Successes = true
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	cfg.Metadata.Retry.Max = 1
	cfg.Net.DialTimeout = 2 * time.Second
	cfg.Net.ReadTimeout = 2 * time.Second
	cfg.Net.WriteTimeout = 2 * time.Second
	return cfg
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, m *metrics.EventMetrics, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		breaker:  newBreaker("kafka-publish", m, logger),
		metrics:  m,
		logger:   logger,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, entityID int64, data any) {
	event := newEvent(eventType, entityID, data)

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to marshal event", "type", eventType, "error", err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(partitionKey(eventType, entityID)),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(eventType)},
			{Key: []byte("event_id"), Value: []byte(event.ID)},
		},
		Timestamp: event.OccurredAt,
	}

	start := time.Now()
	var partition int32
	var offset int64
	_, err = p.breaker.Execute(func() (interface{}, error) {
		var sendErr error
		partition, offset, sendErr = p.producer.SendMessage(msg)
		return nil, sendErr
	})
	p.metrics.RecordPublish(ctx, eventType, time.Since(start), err)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			p.logger.WarnContext(ctx, "event dropped, kafka circuit open", "type", eventType, "event_id", event.ID)
			return
		}
		p.logger.ErrorContext(ctx, "failed to send event to kafka", "type", eventType, "event_id", event.ID, "error", err)
		return
	}

	p.logger.DebugContext(ctx, "event sent to kafka",
		"type", eventType,
		"event_id", event.ID,
		"partition", partition,
		"offset", offset,
	)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
