package app_test

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasklock/internal/app"
	"tasklock/internal/config"
	"tasklock/internal/db"
	"tasklock/internal/domain"
	"tasklock/internal/engine"
	"tasklock/internal/migrate"
)

func TestResolveOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(config.Path(dir), []byte("display:\n  time_zone: Asia/Tokyo\n"), 0o644))

	cfg, err := app.Resolve(app.Options{Workspace: dir})
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", cfg.Display.TimeZone)

	cfg, err = app.Resolve(app.Options{Workspace: dir, TimeZone: "UTC", LogLevel: "debug"})
	require.NoError(t, err)
	assert.Equal(t, "UTC", cfg.Display.TimeZone)
	assert.Equal(t, "debug", cfg.Log.Level)

	_, err = app.Resolve(app.Options{Workspace: dir, TimeZone: "Nowhere/Land"})
	assert.Error(t, err)
}

func TestWithEngineCreatesWorkspace(t *testing.T) {
	dir := t.TempDir()
	opts := app.Options{Workspace: dir, LogOutput: io.Discard}
	err := app.WithEngine(context.Background(), opts, func(ctx context.Context, e engine.Engine) error {
		_, err := e.Replace(ctx, domain.Active, "A\nB")
		return err
	})
	require.NoError(t, err)

	err = app.WithEngine(context.Background(), opts, func(ctx context.Context, e engine.Engine) error {
		data, err := e.State(ctx)
		if err != nil {
			return err
		}
		assert.Equal(t, []string{"A", "B"}, data.Active)
		return nil
	})
	require.NoError(t, err)
}

func TestOpenRefusesNewerSchema(t *testing.T) {
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	require.NoError(t, err)
	require.NoError(t, migrate.Migrate(conn))
	_, err = conn.Exec(`UPDATE schema_version SET version=99`)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	called := false
	err = app.WithEngine(context.Background(), app.Options{Workspace: dir, LogOutput: io.Discard}, func(context.Context, engine.Engine) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
	assert.False(t, called)
}
