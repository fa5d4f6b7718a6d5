package history

import (
	"context"
	"diningsync/lib/testutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testStore runs the behavior every store backend must share.
func testStore(t *testing.T, open func() Store) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	store := open()
	{
		set, err := store.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, 0, set.Len())
	}

	confirmed := []string{"Buttermilk Biscuit_190", "Apple_95", "Grits_140"}
	previous := []string{}
	for _, key := range confirmed {
		err := store.RecordConfirmed(ctx, key)
		require.NoError(t, err)

		set, err := store.Load(ctx)
		require.NoError(t, err)
		require.GreaterOrEqual(t, set.Len(), len(previous))
		for _, p := range previous {
			require.True(t, set.Has(p), p)
		}
		require.True(t, set.Has(key))
		previous = set.Keys()
	}

	// confirming twice is harmless
	err := store.RecordConfirmed(ctx, "Apple_95")
	require.NoError(t, err)

	// persisting a smaller set never removes anything
	err = store.Persist(ctx, NewSet("Apple_95", "Oatmeal_150"))
	require.NoError(t, err)

	set, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Buttermilk Biscuit_190", "Apple_95", "Grits_140", "Oatmeal_150"}, set.Keys())

	// what was confirmed survives reopening
	require.NoError(t, store.Close())
	reopened := open()
	defer reopened.Close()
	set, err = reopened.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, set.Len())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload_history.json")
	testStore(t, func() Store {
		return NewFileStore(path)
	})

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `["Buttermilk Biscuit_190","Apple_95","Grits_140","Oatmeal_150"]`, string(contents))
}

func TestFileStoreLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload_history.json")
	err := os.WriteFile(path, []byte(`["Biscuit_190", "Biscuit_190", "Apple_95"]`), 0600)
	require.NoError(t, err)

	set, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Biscuit_190", "Apple_95"}, set.Keys())
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload_history.json")
	err := os.WriteFile(path, []byte(`{"not": "a list"`), 0600)
	require.NoError(t, err)

	store := NewFileStore(path)
	_, err = store.Load(context.Background())
	require.Error(t, err)

	// a confirmation must not silently overwrite history it could not read
	err = store.RecordConfirmed(context.Background(), "Apple_95")
	require.Error(t, err)
	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, `{"not": "a list"`, string(contents))
}

func TestSqliteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	testStore(t, func() Store {
		store, err := OpenSqlite(context.Background(), path)
		require.NoError(t, err)
		return store
	})
}

func TestSQLStoreSchema(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupDB(t, testutil.DBParams{Name: "history", Schema: Schema})

	store, err := NewSQLStore(ctx, db)
	require.NoError(t, err)
	require.NoError(t, store.Persist(ctx, NewSet("Grits_140", "Apple_95")))
	require.NoError(t, store.RecordConfirmed(ctx, "Grits_140"))

	var count int
	err = db.QueryRowContext(ctx, "select count(*) from confirmed_items").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	var confirmedAt int64
	err = db.QueryRowContext(ctx, "select confirmed_at from confirmed_items where item_key = ?", "Apple_95").Scan(&confirmedAt)
	require.NoError(t, err)
	require.Greater(t, confirmedAt, int64(0))

	set, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Grits_140", "Apple_95"}, set.Keys())
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := Open(ctx, Config{File: filepath.Join(dir, "h.json")})
	require.NoError(t, err)
	require.IsType(t, FileStore{}, store)

	store, err = Open(ctx, Config{Driver: "sqlite", File: filepath.Join(dir, "h.db")})
	require.NoError(t, err)
	require.IsType(t, SQLStore{}, store)
	require.NoError(t, store.Close())

	_, err = Open(ctx, Config{Driver: "mongodb"})
	require.Error(t, err)
	_, err = Open(ctx, Config{Driver: "file"})
	require.Error(t, err)
	_, err = Open(ctx, Config{Driver: "libsql"})
	require.Error(t, err)
}
