package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T, profile Profile) *DB {
	t.Helper()
	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), "test.db"),
		Profile: profile,
		Name:    "test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_CreatesDirectoryAndPings(t *testing.T) {
	dir := t.TempDir()
	db, err := New(Config{
		Path:    filepath.Join(dir, "nested", "sub", "trader.db"),
		Profile: ProfileLedger,
		Name:    "execlog",
	})
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
	require.NoError(t, db.HealthCheck(context.Background()))
}

func TestBuildConnectionString(t *testing.T) {
	ledger := buildConnectionString("/data/trader.db", ProfileLedger)
	assert.True(t, strings.Contains(ledger, "journal_mode(WAL)"))
	assert.True(t, strings.Contains(ledger, "synchronous(FULL)"))
	assert.True(t, strings.Contains(ledger, "auto_vacuum(NONE)"))

	standard := buildConnectionString("/data/universe.db", ProfileStandard)
	assert.True(t, strings.Contains(standard, "synchronous(NORMAL)"))
	assert.True(t, strings.Contains(standard, "busy_timeout(5000)"))
}

func TestWithTransaction_CommitAndRollback(t *testing.T) {
	db := openTestDB(t, ProfileStandard)
	_, err := db.Exec("CREATE TABLE rows (v INTEGER)")
	require.NoError(t, err)

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO rows (v) VALUES (1)")
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO rows (v) VALUES (2)"); err != nil {
			return err
		}
		return boom
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM rows").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWithTransaction_NilConnection(t *testing.T) {
	err := WithTransaction(nil, func(tx *sql.Tx) error { return nil })
	require.Error(t, err)
}

func TestWithTransaction_PanicRecovered(t *testing.T) {
	db := openTestDB(t, ProfileStandard)
	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		panic(fmt.Sprintf("unexpected %s", "state"))
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in transaction")
}
