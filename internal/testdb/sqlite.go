package testdb

import (
	"fmt"
	"testing"

	"project-ledger/internal/config"
	"project-ledger/internal/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// NewSQLite returns a migrated in-memory SQLite database private to t.
// It is closed when the test finishes.
func NewSQLite(t *testing.T) *bun.DB {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   fmt.Sprintf("file:ledger-%s?mode=memory&cache=shared", uuid.NewString()),
	}

	// the handle must be open before migrating so the in-memory database outlives the migrator
	bunDB, err := db.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { bunDB.Close() })

	require.NoError(t, db.RunMigrations(cfg))

	return bunDB
}
