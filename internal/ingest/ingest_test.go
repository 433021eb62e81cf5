package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/fleet-telemetry/constants"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestLocalFSList(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.xlsx"))
	touch(t, filepath.Join(root, "a.XLS"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, ".hidden.xlsx"))
	touch(t, filepath.Join(root, "nested", "c.xlsx"))
	touch(t, filepath.Join(root, ".git", "d.xlsx"))

	l := NewLocalFS(nil)

	flat, err := l.List(root, constants.SpreadsheetExtensions, false)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a.XLS"), filepath.Join(root, "b.xlsx")}, flat)

	deep, err := l.List(root, constants.SpreadsheetExtensions, true)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.XLS"),
		filepath.Join(root, "b.xlsx"),
		filepath.Join(root, "nested", "c.xlsx"),
	}, deep)

	_, err = l.List(filepath.Join(root, "missing"), constants.SpreadsheetExtensions, true)
	assert.Error(t, err)
}

func TestLocalFSDirExistsAndRemove(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "a.pdf")
	touch(t, file)
	l := NewLocalFS(nil)

	ok, err := l.DirExists(root)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.DirExists(file)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.DirExists(filepath.Join(root, "nope"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Remove(file))
	require.NoError(t, l.Remove(file))
	assert.NoFileExists(t, file)

	require.NoError(t, l.MkdirAll(filepath.Join(root, "out", "x")))
	assert.DirExists(t, filepath.Join(root, "out", "x"))
}

func TestStartWatcherEmitsNewFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "existing.xlsx"))

	ctx, cancel := context.WithCancel(context.Background())
	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{root},
		AllowedExts: constants.SpreadsheetExtensions,
		InitialScan: true,
		Debounce:    20 * time.Millisecond,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "existing.xlsx"), <-events)

	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "new.xlsx"))
	select {
	case p := <-events:
		assert.Equal(t, filepath.Join(root, "new.xlsx"), p)
	case <-time.After(5 * time.Second):
		t.Fatal("no watcher event")
	}

	cancel()
	for range events {
	}
}

func TestStartWatcherRequiresRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{AllowedExts: constants.PDFExtensions}, nil)
	assert.Error(t, err)
}
