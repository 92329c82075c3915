package db

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	write := buildDSN("/tmp/control.sqlite", ModeWrite)
	read := buildDSN("/tmp/control.sqlite", ModeRead)

	for _, dsn := range []string{write, read} {
		assert.True(t, strings.HasPrefix(dsn, "/tmp/control.sqlite?"))
		assert.Contains(t, dsn, "_journal_mode=WAL")
		assert.Contains(t, dsn, "_busy_timeout=5000")
		assert.Contains(t, dsn, "_synchronous=NORMAL")
		assert.Contains(t, dsn, "_foreign_keys=on")
	}
	assert.Contains(t, write, "_txlock=immediate")
	assert.NotContains(t, read, "_txlock")
}

func TestOpenSQLite_InvalidMode(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "c.db"), Mode("bogus"), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid SQLite mode")
}

func TestOpenSQLite_InvalidPath(t *testing.T) {
	_, err := OpenSQLite("/nonexistent/dir/c.db", ModeWrite, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping sqlite")
}

func TestOpenSQLite_PoolSizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.db")

	w, err := OpenSQLite(path, ModeWrite, 16)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	assert.Equal(t, 1, w.Stats().MaxOpenConnections, "write pool ignores maxOpen")

	r, err := OpenSQLite(path, ModeRead, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	assert.Equal(t, 4, r.Stats().MaxOpenConnections)

	var journalMode string
	require.NoError(t, r.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", strings.ToLower(journalMode))

	var fk int
	require.NoError(t, w.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestOpenSQLitePair_WriteFailure(t *testing.T) {
	_, _, err := OpenSQLitePair("/nonexistent/dir/c.db", 4)
	require.Error(t, err)
}

func TestRunMigrations_CreatesUserControl(t *testing.T) {
	writeDB, readDB := OpenTestSQLite(t)

	var name string
	err := readDB.QueryRow(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'UserControl'`,
	).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "UserControl", name)

	// Re-running is a no-op.
	require.NoError(t, RunMigrations(writeDB))

	v, err := SchemaVersion(context.Background(), writeDB)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestRunMigrations_EmailIsUnique(t *testing.T) {
	writeDB, _ := OpenTestSQLite(t)

	_, err := writeDB.Exec(`INSERT INTO UserControl (email, plan) VALUES ('fallback', 'default')`)
	require.NoError(t, err)
	_, err = writeDB.Exec(`INSERT INTO UserControl (email, plan) VALUES ('fallback', 'other')`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNIQUE constraint failed")
}

func TestOpenSQLitePair_ConcurrentReadsDuringWrites(t *testing.T) {
	writeDB, readDB := OpenTestSQLite(t)

	_, err := writeDB.Exec(`INSERT INTO UserControl (email, daily_quota) VALUES ('fallback', 0)`)
	require.NoError(t, err)

	var wg sync.WaitGroup
	writeErrs := make([]error, 20)
	readErrs := make([]error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			_, writeErrs[idx] = writeDB.Exec(
				`UPDATE UserControl SET daily_quota = daily_quota + 1 WHERE email = 'fallback'`)
		}(i)
		go func(idx int) {
			defer wg.Done()
			var n int
			readErrs[idx] = readDB.QueryRow(
				`SELECT daily_quota FROM UserControl WHERE email = 'fallback'`).Scan(&n)
		}(i)
	}
	wg.Wait()

	for i, e := range writeErrs {
		assert.NoError(t, e, "writer %d failed", i)
	}
	for i, e := range readErrs {
		assert.NoError(t, e, "reader %d failed", i)
	}

	var n int
	require.NoError(t, readDB.QueryRow(
		`SELECT daily_quota FROM UserControl WHERE email = 'fallback'`).Scan(&n))
	assert.Equal(t, 20, n)
}
