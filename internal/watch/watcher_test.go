package watch_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ameyrk/gutengo/internal/models"
	"github.com/ameyrk/gutengo/internal/testutil"
	"github.com/ameyrk/gutengo/internal/watch"
)

func waitForHistory(t *testing.T, app interface {
	ListImports(limit int) ([]*models.HistoryEntry, error)
}, want int) []*models.HistoryEntry {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		entries, err := app.ListImports(10)
		require.NoError(t, err)
		if len(entries) >= want {
			return entries
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d history entries before the deadline", want)
	return nil
}

func TestDroppedMarkdownFileIsImported(t *testing.T) {
	app := testutil.SetupTestApp(t)
	dir := t.TempDir()

	svc := watch.New(app.Runner, dir, 20*time.Millisecond)
	require.NoError(t, svc.Start())
	t.Cleanup(func() { svc.Stop() })

	path := filepath.Join(dir, "draft.md")
	require.NoError(t, os.WriteFile(path, []byte("# Dropped\n\ncontent"), 0o644))

	entries := waitForHistory(t, app.Store, 1)
	assert.Equal(t, "Dropped", entries[0].Title)
	assert.Equal(t, "markdown", entries[0].Source)
}

func TestNonMarkdownFilesAreIgnored(t *testing.T) {
	app := testutil.SetupTestApp(t)
	dir := t.TempDir()

	svc := watch.New(app.Runner, dir, 20*time.Millisecond)
	require.NoError(t, svc.Start())
	t.Cleanup(func() { svc.Stop() })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("# not md"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.md"), nil, 0o644))

	time.Sleep(200 * time.Millisecond)
	entries, err := app.Store.ListImports(10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRepeatedWritesImportOnce(t *testing.T) {
	app := testutil.SetupTestApp(t)
	dir := t.TempDir()

	svc := watch.New(app.Runner, dir, 50*time.Millisecond)
	require.NoError(t, svc.Start())
	t.Cleanup(func() { svc.Stop() })

	path := filepath.Join(dir, "busy.md")
	// Successive writes within the settle window reset the timer.
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("# Busy\n\nrevision"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	waitForHistory(t, app.Store, 1)
	time.Sleep(200 * time.Millisecond)
	entries, err := app.Store.ListImports(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Busy", entries[0].Title)
}
