package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/iliyamo/association-platform/internal/config"
)

func TestMigrateSQLiteIsIdempotent(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	log := zaptest.NewLogger(t)
	require.NoError(t, Migrate(ctx, db, config.DriverSQLite, log))
	require.NoError(t, Migrate(ctx, db, config.DriverSQLite, log))

	var applied int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&applied))
	assert.Equal(t, 2, applied)

	for _, table := range []string{"tenants", "users", "events", "ticket_types", "event_registrations", "votes", "donations", "payments", "sponsors",
		"event_sessions", "event_goals", "event_budget_items", "event_esg_metrics", "email_lists", "positions"} {
		var name string
		err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}

	_, err = db.ExecContext(ctx, `SELECT position_id FROM elections LIMIT 1`)
	assert.NoError(t, err)
}

func TestMigrateRejectsUnknownDriver(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Error(t, Migrate(context.Background(), db, "postgres", nil))
}

func TestSplitStatements(t *testing.T) {
	body := "-- header\nCREATE TABLE a (id INT);\n\n  ;\nCREATE INDEX i ON a(id);\n"
	assert.Equal(t, []string{"CREATE TABLE a (id INT)", "CREATE INDEX i ON a(id)"}, splitStatements(body))
}

func TestEmbeddedDialectsHaveSameMigrations(t *testing.T) {
	my, err := migrationFS.ReadDir("migrations/mysql")
	require.NoError(t, err)
	lite, err := migrationFS.ReadDir("migrations/sqlite3")
	require.NoError(t, err)
	require.Equal(t, len(my), len(lite))
	for i := range my {
		assert.Equal(t, my[i].Name(), lite[i].Name())
	}
}
