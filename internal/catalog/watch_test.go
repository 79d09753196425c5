package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_DebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	tracked := filepath.Join(dir, "ceniky.txt")
	other := filepath.Join(dir, "notes.txt")
	writeFile(t, tracked, "A = a.csv\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := Watch(ctx, WatchConfig{Files: []string{tracked}, Debounce: 50 * time.Millisecond})
	require.NoError(t, err)

	writeFile(t, other, "ignored")
	for i := 0; i < 3; i++ {
		writeFile(t, tracked, "A = a.csv\nB = b.csv\n")
	}

	select {
	case p := <-events:
		assert.Equal(t, tracked, p)
	case <-time.After(5 * time.Second):
		t.Fatal("no change event")
	}

	select {
	case p := <-events:
		t.Fatalf("unexpected second event %q", p)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-events
		return !open
	}, time.Second, 10*time.Millisecond)
}

func TestWatch_NoFiles(t *testing.T) {
	_, _, err := Watch(context.Background(), WatchConfig{})
	assert.Error(t, err)
}

func TestWatch_RefreshTracksNewTable(t *testing.T) {
	listDir, tableDir := t.TempDir(), t.TempDir()
	list := filepath.Join(listDir, "ceniky.txt")
	table := filepath.Join(tableDir, "screen.csv")
	writeFile(t, list, "A = a.csv\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	refresh := make(chan []string, 1)
	events, _, err := Watch(ctx, WatchConfig{Files: []string{list}, Refresh: refresh})
	require.NoError(t, err)

	writeFile(t, table, ";1000\n2000;500\n")
	select {
	case p := <-events:
		t.Fatalf("untracked table reported: %q", p)
	case <-time.After(200 * time.Millisecond):
	}

	refresh <- []string{list, table}
	require.Eventually(t, func() bool {
		writeFile(t, table, ";1000\n2000;600\n")
		select {
		case p := <-events:
			return p == table
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatchFiles(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "ceniky.txt")
	writeFile(t, list, "Pergola = ./pergola.csv\nScreen = https://example.com/screen.csv\n")

	files, err := WatchFiles(list)
	require.NoError(t, err)
	assert.Equal(t, []string{list, "./pergola.csv"}, files)

	files, err = WatchFiles(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "missing.txt")}, files)
}

func TestLocalPaths(t *testing.T) {
	got := LocalPaths([]Source{
		{Name: "A", Locator: "https://example.com/a.csv"},
		{Name: "B", Locator: "./b.csv"},
		{Name: "C", Locator: "./book.xlsx#Pergola"},
		{Name: "D", Locator: "./book.xlsx#Screen"},
		{Name: "E", Locator: "file:///srv/e.csv"},
	})
	assert.Equal(t, []string{"./b.csv", "./book.xlsx", "/srv/e.csv"}, got)
}
