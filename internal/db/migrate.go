package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"project-ledger/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// RunMigrations applies the embedded schema for cfg.Driver on its own connection,
// so closing the migrator never touches the application's pool.
func RunMigrations(cfg config.DatabaseConfig) error {
	driver := cfg.Driver
	if driver == "" {
		driver = config.DriverPostgres
	}

	src, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	var m *migrate.Migrate
	switch driver {
	case config.DriverSQLite:
		migrateDB, err := sql.Open("sqlite", SQLiteDSN(cfg))
		if err != nil {
			return fmt.Errorf("open migration database: %w", err)
		}
		defer migrateDB.Close()

		instance, err := migratesqlite.WithInstance(migrateDB, &migratesqlite.Config{})
		if err != nil {
			return fmt.Errorf("create sqlite driver: %w", err)
		}

		m, err = migrate.NewWithInstance("iofs", src, "sqlite", instance)
		if err != nil {
			return fmt.Errorf("create migrate instance: %w", err)
		}
	case config.DriverPostgres:
		// pgx5:// selects the golang-migrate pgx/v5 driver
		m, err = migrate.NewWithSourceInstance("iofs", src, "pgx5"+strings.TrimPrefix(PostgresDSN(cfg), "postgres"))
		if err != nil {
			return fmt.Errorf("create migrate instance: %w", err)
		}
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}

	slog.Info("database migrations completed successfully", "driver", driver, "version", version, "dirty", dirty)
	return nil
}
