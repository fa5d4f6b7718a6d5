package cmd

import (
	"context"
	"diningsync/lib/history"
	"diningsync/lib/testutil"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

func TestCommands(t *testing.T) {
	submitted := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		submitted++
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	testutil.WriteFile(t, dir, "scraped_menu.csv", "Food Name,Calories,Meal\nBiscuit,190,Breakfast\nBiscuit,190,Lunch\nApple,95,Lunch\n")
	testutil.WriteFile(t, dir, "diningsync.json5", fmt.Sprintf(`{
		sink: { endpoint: %q, rate_per_minute: 6000 },
		retry: { initial_interval_ms: 1, max_interval_ms: 1 },
		perf_stats_interval: 3600,
	}`, server.URL))

	require.NoError(t, execute(t, "fetch"))
	require.FileExists(t, filepath.Join(dir, "nc_state_dining_menu.csv"))

	require.NoError(t, execute(t, "dedup"))
	require.FileExists(t, filepath.Join(dir, "to_upload.csv"))

	require.NoError(t, execute(t, "upload", "--dry-run"))
	require.Equal(t, 0, submitted)

	require.NoError(t, execute(t, "upload", "--dry-run=false"))
	require.Equal(t, 2, submitted)

	set, err := history.NewFileStore(filepath.Join(dir, "upload_history.json")).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Biscuit_190", "Apple_95"}, set.Keys())

	// nothing is submitted twice
	require.NoError(t, execute(t, "run"))
	require.Equal(t, 2, submitted)

	require.NoError(t, execute(t, "history", "count"))
	require.NoError(t, execute(t, "history", "list"))
}

func TestHistoryImport(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	testutil.WriteFile(t, dir, "diningsync.json5", `{ history: { driver: "sqlite", file: "history.db" } }`)
	legacy := testutil.WriteFile(t, dir, "legacy.json", `["Biscuit_190", "Apple_95", "Biscuit_190"]`)

	require.NoError(t, execute(t, "history", "import", legacy))
	require.NoError(t, execute(t, "history", "import", legacy))

	store, err := history.OpenSqlite(context.Background(), filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	defer store.Close()
	set, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Biscuit_190", "Apple_95"}, set.Keys())
}

func TestUploadMissingQueueFails(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	testutil.WriteFile(t, dir, "diningsync.json5", `{ sink: { endpoint: "http://127.0.0.1:1" } }`)
	err = execute(t, "upload", "--dry-run=false")
	require.Error(t, err)
}
