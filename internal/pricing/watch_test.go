package pricing

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aimeter/internal/utils"
)

func writePricingFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWatchFileReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.yaml")
	writePricingFile(t, path, "my-model:\n  input: 1.00\n  output: 2.00\n")

	table := NewTable(nil)
	require.NoError(t, table.ReloadFile(path))

	w, err := WatchFile(path, table, utils.NewLogger("pricing-test"))
	require.NoError(t, err)
	defer w.Close()

	writePricingFile(t, path, "my-model:\n  input: 5.00\n  output: 2.00\n")

	require.Eventually(t, func() bool {
		entry, ok := table.Lookup("my-model")
		return ok && entry.Input == 5.00
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatchFileKeepsTableOnBadReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.yaml")
	writePricingFile(t, path, "my-model:\n  input: 1.00\n  output: 2.00\n")

	table := NewTable(nil)
	require.NoError(t, table.ReloadFile(path))

	w, err := WatchFile(path, table, utils.NewLogger("pricing-test"))
	require.NoError(t, err)
	defer w.Close()

	writePricingFile(t, path, ":\tnot yaml at all {{{")

	// The bad write must not clobber the table. Give the watcher a moment
	// to process the event before checking.
	time.Sleep(200 * time.Millisecond)
	entry, ok := table.Lookup("my-model")
	require.True(t, ok)
	require.Equal(t, 1.00, entry.Input)
}

func TestWatchFileIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.yaml")
	writePricingFile(t, path, "my-model:\n  input: 1.00\n  output: 2.00\n")

	table := NewTable(nil)
	require.NoError(t, table.ReloadFile(path))

	w, err := WatchFile(path, table, utils.NewLogger("pricing-test"))
	require.NoError(t, err)
	defer w.Close()

	writePricingFile(t, filepath.Join(dir, "other.yaml"), "my-model:\n  input: 9.00\n")

	time.Sleep(200 * time.Millisecond)
	entry, ok := table.Lookup("my-model")
	require.True(t, ok)
	require.Equal(t, 1.00, entry.Input)
}
