package config_test

import (
	"testing"

	"project-ledger/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("ENV", "test")

		cfg, err := config.Load()
		require.NoError(t, err)

		assert.Equal(t, "test", cfg.Env)
		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, config.DriverPostgres, cfg.Database.Driver)
		assert.Equal(t, "project_management", cfg.Database.Name)
		assert.Equal(t, "ledger.events", cfg.NATS.Subject)
		assert.Empty(t, cfg.NATS.URL)
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		t.Setenv("ENV", "test")
		t.Setenv("PORT", "9090")
		t.Setenv("DB_DRIVER", "sqlite")
		t.Setenv("SQLITE_DB_PATH", "/tmp/ledger.db")
		t.Setenv("NATS_URL", "nats://localhost:4222")

		cfg, err := config.Load()
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.Server.Port)
		assert.Equal(t, config.DriverSQLite, cfg.Database.Driver)
		assert.Equal(t, "/tmp/ledger.db", cfg.Database.Path)
		assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	})

	t.Run("KafkaBrokersFromEnv", func(t *testing.T) {
		t.Setenv("ENV", "test")
		t.Setenv("KAFKA_BROKERS", "kafka-0:9092,kafka-1:9092")

		cfg, err := config.Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"kafka-0:9092", "kafka-1:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, "ledger.events", cfg.Kafka.Topic)
	})

	t.Run("NestedKeyOverride", func(t *testing.T) {
		t.Setenv("ENV", "test")
		t.Setenv("DATABASE_SLOW_QUERY_MS", "50")

		cfg, err := config.Load()
		require.NoError(t, err)
		assert.Equal(t, 50, cfg.Database.SlowQueryMillis)
	})

	t.Run("InvalidDriver", func(t *testing.T) {
		t.Setenv("ENV", "test")
		t.Setenv("DB_DRIVER", "mysql")

		_, err := config.Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid database driver 'mysql'")
	})
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			Server: config.ServerConfig{Port: "8080"},
			Database: config.DatabaseConfig{
				Driver: config.DriverPostgres,
				Host:   "localhost",
				Name:   "ledger",
				User:   "postgres",
			},
		}
	}

	t.Run("Valid", func(t *testing.T) {
		cfg := valid()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("PortOutOfRange", func(t *testing.T) {
		cfg := valid()
		cfg.Server.Port = "70000"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be between 1 and 65535")
	})

	t.Run("PortNotNumeric", func(t *testing.T) {
		cfg := valid()
		cfg.Server.Port = "http"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be a number")
	})

	t.Run("PostgresMissingFields", func(t *testing.T) {
		cfg := valid()
		cfg.Database.Host = ""
		cfg.Database.Name = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database host is required")
		assert.Contains(t, err.Error(), "database name is required")
	})

	t.Run("SQLiteNeedsPath", func(t *testing.T) {
		cfg := valid()
		cfg.Database = config.DatabaseConfig{Driver: config.DriverSQLite}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database path is required")
	})

	t.Run("NATSSubjectRequired", func(t *testing.T) {
		cfg := valid()
		cfg.NATS.URL = "nats://localhost:4222"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nats subject")
	})

	t.Run("KafkaTopicRequired", func(t *testing.T) {
		cfg := valid()
		cfg.Kafka.Brokers = []string{"localhost:9092"}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kafka topic")
	})
}
