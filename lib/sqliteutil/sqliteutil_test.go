package sqliteutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	db, err := OpenWithSchema("create table if not exists kv (k text primary key, v text);", path)
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	require.Equal(t, "wal", mode)

	_, err = db.Exec("insert into kv (k, v) values (?, ?)", "Apple_95", "x")
	require.NoError(t, err)
	var v string
	require.NoError(t, db.QueryRow("select v from kv where k = ?", "Apple_95").Scan(&v))
	require.Equal(t, "x", v)
}

func TestOpenMemory(t *testing.T) {
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Ping())
}
