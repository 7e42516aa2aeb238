package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/blockwatch/internal/config"
	"github.com/gyaneshwarpardhi/blockwatch/internal/engine"
	"github.com/gyaneshwarpardhi/blockwatch/internal/event"
	"github.com/gyaneshwarpardhi/blockwatch/internal/migrate"
	"github.com/gyaneshwarpardhi/blockwatch/internal/sink"
	"github.com/gyaneshwarpardhi/blockwatch/internal/store"
)

func openPipeline(t *testing.T) (*engine.Engine, *store.DB, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(context.Background(), config.DatabaseConf{
		Backend:    config.BackendSQLite,
		SQLitePath: filepath.Join(dir, "bb.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	m, err := migrate.New(db, migrate.Steps()...)
	require.NoError(t, err)
	_, err = m.Apply(context.Background())
	require.NoError(t, err)

	logDir := filepath.Join(dir, "logs")
	e := engine.New(sink.NewRelational(db), sink.NewFlatFile(logDir),
		config.PipelineConf{FlushIntervalSeconds: 60, FlatLog: true}, nil)
	t.Cleanup(e.Shutdown)
	return e, db, logDir
}

func TestPipeline_SteveBreaksDirtBelowTheWorld(t *testing.T) {
	e, db, logDir := openPipeline(t)

	ev := event.New("Steve", event.BlockBroken, 0, 10, -5, 20, 1, "dirt")
	e.Submit(ev)
	res := e.Flush(context.Background())
	require.False(t, res.Failed(), res.Error)

	var y int
	var data string
	require.NoError(t, db.SQL().QueryRow("SELECT y, data FROM bbdata WHERE player = 'Steve'").Scan(&y, &data))
	assert.Equal(t, 0, y)
	assert.Equal(t, "dirt", data)

	line, err := os.ReadFile(filepath.Join(logDir, "Steve.log"))
	require.NoError(t, err)
	want := strconv.FormatInt(ev.Timestamp.UnixMilli(), 10) + " - broke block 0@(10,-5,20) info: 1, dirt\n"
	assert.Equal(t, want, string(line))
}

func TestPipeline_BackendOutageRequeuesAndDuplicatesFlatLines(t *testing.T) {
	e, db, logDir := openPipeline(t)

	_, err := db.SQL().Exec("ALTER TABLE bbdata RENAME TO bbdata_offline")
	require.NoError(t, err)

	long := strings.Repeat("z", 200)
	e.SubmitAll([]event.Event{
		event.New("Alex", event.DeltaChest, 0, 1, 300, 1, 54, long),
		event.New("Alex", event.OpenChest, 0, 1, 64, 1, 54, ""),
	})

	res := e.Flush(context.Background())
	require.True(t, res.Failed())
	assert.Equal(t, 2, e.QueueLen())
	assert.Equal(t, int64(0), e.Persisted())
	assert.Equal(t, 2, res.Mirrored)

	_, err = db.SQL().Exec("ALTER TABLE bbdata_offline RENAME TO bbdata")
	require.NoError(t, err)

	res = e.Flush(context.Background())
	require.False(t, res.Failed(), res.Error)
	assert.Equal(t, int64(2), e.Persisted())

	var maxY, maxLen int
	require.NoError(t, db.SQL().QueryRow("SELECT MAX(y), MAX(LENGTH(data)) FROM bbdata").Scan(&maxY, &maxLen))
	assert.Equal(t, 127, maxY)
	assert.Equal(t, 150, maxLen)

	content, err := os.ReadFile(filepath.Join(logDir, "Alex.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	assert.Len(t, lines, 4, "the retried batch is mirrored again")
	assert.Contains(t, lines[0], "@(1,300,1)")
	assert.True(t, strings.HasSuffix(lines[0], long))
}
