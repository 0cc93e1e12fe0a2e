package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"project-ledger/internal/events"
	"project-ledger/internal/metrics"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaPublisher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("sends envelope keyed by entity", func(t *testing.T) {
		producer := mocks.NewSyncProducer(t, events.ProducerConfig())
		producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
			if msg.Topic != "ledger.events" {
				return errors.New("unexpected topic " + msg.Topic)
			}
			key, err := msg.Key.Encode()
			if err != nil {
				return err
			}
			if string(key) != "project:7" {
				return errors.New("unexpected key " + string(key))
			}

			value, err := msg.Value.Encode()
			if err != nil {
				return err
			}
			var event events.Event
			if err := json.Unmarshal(value, &event); err != nil {
				return err
			}
			if event.Type != events.ProjectDeleted || event.EntityID != 7 || event.ID == "" {
				return errors.New("unexpected envelope " + string(value))
			}
			return nil
		})

		pub := events.NewKafkaPublisherWithProducer(producer, "ledger.events", metrics.NewMock().Events, logger)
		pub.Publish(context.Background(), events.ProjectDeleted, 7, map[string]int{"tasks_deleted": 2})

		require.NoError(t, pub.Close())
	})

	t.Run("broker failure is swallowed", func(t *testing.T) {
		producer := mocks.NewSyncProducer(t, events.ProducerConfig())
		producer.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

		pub := events.NewKafkaPublisherWithProducer(producer, "ledger.events", metrics.NewMock().Events, logger)
		assert.NotPanics(t, func() {
			pub.Publish(context.Background(), events.BudgetsSnapshotted, 0, nil)
		})

		require.NoError(t, pub.Close())
	})

	t.Run("repeated broker failures open the circuit", func(t *testing.T) {
		producer := mocks.NewSyncProducer(t, events.ProducerConfig())
		for i := 0; i < 4; i++ {
			producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
		}

		pub := events.NewKafkaPublisherWithProducer(producer, "ledger.events", metrics.NewMock().Events, logger)
		for i := 0; i < 4; i++ {
			pub.Publish(context.Background(), events.TaskCreated, int64(i), nil)
		}

		// No expectations remain, so any send reaching the producer fails the test.
		start := time.Now()
		for i := 0; i < 10; i++ {
			pub.Publish(context.Background(), events.TaskCreated, 99, nil)
		}
		assert.Less(t, time.Since(start), time.Second)

		require.NoError(t, pub.Close())
	})
}

func TestProducerConfigBoundsRequestLatency(t *testing.T) {
	cfg := events.ProducerConfig()
	require.NoError(t, cfg.Validate())

	assert.LessOrEqual(t, cfg.Producer.Retry.Max, 1)
	assert.LessOrEqual(t, cfg.Producer.Timeout, 2*time.Second)
	assert.LessOrEqual(t, cfg.Net.DialTimeout, 2*time.Second)
	assert.LessOrEqual(t, cfg.Net.WriteTimeout, 2*time.Second)
}

type countingPublisher struct {
	published int
	closeErr  error
}

func (c *countingPublisher) Publish(context.Context, string, int64, any) { c.published++ }

func (c *countingPublisher) Close() error { return c.closeErr }

func TestMulti(t *testing.T) {
	a := &countingPublisher{}
	b := &countingPublisher{closeErr: errors.New("boom")}

	multi := events.Multi{a, b}
	multi.Publish(context.Background(), events.ClientCreated, 1, nil)
	multi.Publish(context.Background(), events.ClientDeleted, 1, nil)

	assert.Equal(t, 2, a.published)
	assert.Equal(t, 2, b.published)
	assert.EqualError(t, multi.Close(), "boom")
}
