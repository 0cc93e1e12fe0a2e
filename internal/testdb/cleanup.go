package testdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// LedgerTables lists every ledger table, children first.
var LedgerTables = []string{"project_budgets", "tasks", "projects", "employees", "clients"}

// CleanupTables empties tables and resets their id sequences. With no
// tables given it empties all ledger tables.
func CleanupTables(t *testing.T, db *bun.DB, tables ...string) {
	t.Helper()

	if len(tables) == 0 {
		tables = LedgerTables
	}

	ctx := context.Background()

	for _, table := range tables {
		switch db.Dialect().Name() {
		case dialect.PG:
			_, err := db.ExecContext(ctx, "TRUNCATE "+table+" RESTART IDENTITY CASCADE")
			require.NoError(t, err, "failed to truncate table: %s", table)
		default:
			_, err := db.ExecContext(ctx, "DELETE FROM "+table)
			require.NoError(t, err, "failed to empty table: %s", table)
			_, err = db.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name = ?", table)
			require.NoError(t, err, "failed to reset sequence: %s", table)
		}
	}
}
