package events_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"project-ledger/internal/config"
	"project-ledger/internal/events"
	"project-ledger/internal/metrics"
	"project-ledger/internal/testnats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNATSPublisher(t *testing.T) {
	natsContainer := testnats.SetupSharedNATS(t)
	defer natsContainer.Cleanup(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("publishes envelope on typed subject", func(t *testing.T) {
		msgs := natsContainer.Subscribe(t, "ledger.events.>")

		pub, err := events.NewNATSPublisher(config.NATSConfig{URL: natsContainer.URL, Subject: "ledger.events"}, metrics.NewMock().Events, logger)
		require.NoError(t, err)

		pub.Publish(context.Background(), events.ClientCreated, 7, map[string]string{"client_name": "Acme"})
		require.NoError(t, pub.Close())

		select {
		case msg := <-msgs:
			assert.Equal(t, "ledger.events.client.created", msg.Subject)

			var got events.Event
			require.NoError(t, json.Unmarshal(msg.Data, &got))
			assert.Equal(t, events.ClientCreated, got.Type)
			assert.Equal(t, int64(7), got.EntityID)
			assert.NotEmpty(t, got.ID)
			assert.False(t, got.OccurredAt.IsZero())
			assert.Equal(t, map[string]any{"client_name": "Acme"}, got.Data)
		case <-time.After(5 * time.Second):
			t.Fatal("event was not delivered")
		}
	})

	t.Run("ping reflects connection state", func(t *testing.T) {
		pub, err := events.NewNATSPublisher(config.NATSConfig{URL: natsContainer.URL, Subject: "ledger.events"}, metrics.NewMock().Events, logger)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		assert.NoError(t, pub.Ping(ctx))
		require.NoError(t, pub.Close())
		assert.Error(t, pub.Ping(ctx))
	})

	t.Run("publish after close does not panic", func(t *testing.T) {
		pub, err := events.NewNATSPublisher(config.NATSConfig{URL: natsContainer.URL, Subject: "ledger.events"}, metrics.NewMock().Events, logger)
		require.NoError(t, err)
		require.NoError(t, pub.Close())

		assert.NotPanics(t, func() {
			for i := 0; i < 10; i++ {
				pub.Publish(context.Background(), events.TaskDeleted, int64(i), nil)
			}
		})
	})
}

func TestNop(t *testing.T) {
	var p events.Publisher = events.Nop{}
	p.Publish(context.Background(), events.ProjectCreated, 1, nil)
	assert.NoError(t, p.Close())
}
