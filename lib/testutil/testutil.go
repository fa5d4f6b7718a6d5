package testutil

import (
	"database/sql"
	"diningsync/lib/sqliteutil"
	"diningsync/lib/telemetry"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

type DBParams struct {
	Name string
	// if unspecified, it will skip applying a schema
	Schema string
	// if unspecified, it will use `:memory:`
	Path string
}

// SetupDB opens a sqlite database for a test with telemetry set up, the
// database and telemetry are torn down with the test.
func SetupDB(t testing.TB, params DBParams) *sql.DB {
	cleanup := telemetry.SetupForTesting(fmt.Sprintf("test:%s", params.Name))
	t.Cleanup(cleanup)

	path := params.Path
	if path == "" {
		path = ":memory:"
	}
	open := sqliteutil.OpenDB
	if params.Schema != "" {
		open = func(path string) (*sql.DB, error) {
			return sqliteutil.OpenWithSchema(params.Schema, path)
		}
	}
	db, err := open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// WriteFile writes contents to name inside dir and returns the full path.
func WriteFile(t testing.TB, dir, name, contents string) string {
	path := filepath.Join(dir, name)
	err := os.WriteFile(path, []byte(contents), 0644)
	if err != nil {
		t.Fatal(err)
	}
	return path
}
