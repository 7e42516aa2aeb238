package config_test

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/blockwatch/internal/config"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "blockwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestNewLoader_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "pipeline:\n  flat_log: true\n")

	l, err := config.NewLoader(path)
	require.NoError(t, err)
	cfg := l.Config()

	assert.Equal(t, 300, cfg.Pipeline.FlushIntervalSeconds)
	assert.Equal(t, 5*time.Minute, cfg.Pipeline.FlushInterval())
	assert.True(t, cfg.Pipeline.FlatLog)
	assert.Equal(t, "data", cfg.Pipeline.DataDir)
	assert.Equal(t, config.BackendSQLite, cfg.Database.Backend)
	assert.Equal(t, filepath.Join("data", "bigbrother.db"), cfg.Database.SQLitePath)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	require.NoError(t, config.Validate(cfg))
}

func TestNewLoader_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
pipeline:
  flush_interval_seconds: 120
database:
  backend: sqlite
  sqlite_path: /tmp/file.db
`)
	t.Setenv("BLOCKWATCH_FLUSH_INTERVAL_SECONDS", "15")
	t.Setenv("BLOCKWATCH_DB_BACKEND", "postgres")
	t.Setenv("BLOCKWATCH_DATABASE_URL", "postgres://u:p@db:5432/bb")

	l, err := config.NewLoader(path)
	require.NoError(t, err)
	cfg := l.Config()

	assert.Equal(t, 15, cfg.Pipeline.FlushIntervalSeconds)
	assert.Equal(t, config.BackendPostgres, cfg.Database.Backend)
	assert.Equal(t, "postgres://u:p@db:5432/bb", cfg.Database.DSN)
	assert.Equal(t, "/tmp/file.db", cfg.Database.SQLitePath, "untouched fields keep file values")
}

func TestNewLoader_Errors(t *testing.T) {
	_, err := config.NewLoader(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	path := writeConfig(t, t.TempDir(), "pipeline: [not, a, map]\n")
	_, err = config.NewLoader(path)
	assert.ErrorContains(t, err, "parse config")

	path = writeConfig(t, t.TempDir(), "{}\n")
	t.Setenv("BLOCKWATCH_FLUSH_INTERVAL_SECONDS", "soon")
	_, err = config.NewLoader(path)
	assert.ErrorContains(t, err, "parse env")
}

func TestReload_InvokesCallbacks(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "pipeline:\n  flush_interval_seconds: 60\n")
	l, err := config.NewLoader(path)
	require.NoError(t, err)

	var seen atomic.Int64
	l.OnChange(func(c *config.Config) { seen.Store(int64(c.Pipeline.FlushIntervalSeconds)) })

	writeConfig(t, dir, "pipeline:\n  flush_interval_seconds: 30\n")
	cfg, err := l.Reload()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Pipeline.FlushIntervalSeconds)
	assert.Equal(t, int64(30), seen.Load())
	assert.Equal(t, 30, l.Config().Pipeline.FlushIntervalSeconds)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "pipeline:\n  flat_log: false\n")
	l, err := config.NewLoader(path)
	require.NoError(t, err)

	var flat atomic.Bool
	l.OnChange(func(c *config.Config) { flat.Store(c.Pipeline.FlatLog) })

	stop, err := l.Watch()
	require.NoError(t, err)
	defer stop()

	writeConfig(t, dir, "pipeline:\n  flat_log: true\n")
	require.Eventually(t, flat.Load, 3*time.Second, 20*time.Millisecond)
}
