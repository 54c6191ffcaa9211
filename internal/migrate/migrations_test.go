package migrate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tasklock/internal/db"
	"tasklock/internal/migrate"
)

func TestMigrateIsIdempotent(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, migrate.Migrate(conn))
	require.NoError(t, migrate.Migrate(conn))

	var version int
	require.NoError(t, conn.QueryRow(`SELECT version FROM schema_version`).Scan(&version))
	require.Equal(t, 1, version)

	for _, table := range []string{"config_items", "events"} {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestVersions(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	defer conn.Close()

	latest, err := migrate.Latest()
	require.NoError(t, err)
	require.Equal(t, 1, latest)

	require.NoError(t, migrate.Migrate(conn))
	current, err := migrate.CurrentVersion(conn)
	require.NoError(t, err)
	require.Equal(t, latest, current)

	_, err = conn.Exec(`DELETE FROM schema_version`)
	require.NoError(t, err)
	current, err = migrate.CurrentVersion(conn)
	require.NoError(t, err)
	require.Equal(t, 0, current)
}
