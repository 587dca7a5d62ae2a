package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/greaper/internal/glob"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// collect starts a watcher whose batches land on the returned channel
func collect(t *testing.T, root string, filter *glob.Filter) (*Watcher, <-chan []Event) {
	t.Helper()
	batches := make(chan []Event, 16)
	w, err := New(root, Options{Debounce: 50 * time.Millisecond, Filter: filter}, func(b []Event) {
		batches <- b
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Close() })
	return w, batches
}

// waitFor gathers events until want shows up or the deadline passes
func waitFor(t *testing.T, batches <-chan []Event, want string) map[string]EventType {
	t.Helper()
	seen := make(map[string]EventType)
	deadline := time.After(5 * time.Second)
	for {
		select {
		case b := <-batches:
			for _, ev := range b {
				seen[filepath.Base(ev.Path)] = ev.Type
			}
			if _, ok := seen[want]; ok {
				return seen
			}
		case <-deadline:
			t.Fatalf("no event for %s; saw %v", want, seen)
			return nil
		}
	}
}

func TestWatcher_ReportsWrites(t *testing.T) {
	root := t.TempDir()
	_, batches := collect(t, root, nil)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0644))

	seen := waitFor(t, batches, "a.txt")
	assert.Contains(t, []EventType{EventCreate, EventWrite}, seen["a.txt"])
}

func TestWatcher_FilterDropsExcluded(t *testing.T) {
	root := t.TempDir()
	filter, err := glob.NewFilter([]string{"*.txt"}, []string{"skip*.txt"})
	require.NoError(t, err)
	_, batches := collect(t, root, filter)

	require.NoError(t, os.WriteFile(filepath.Join(root, "skip.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "other.bin"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bundle.zip"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "keep.txt"), []byte("x"), 0644))

	seen := waitFor(t, batches, "keep.txt")
	assert.NotContains(t, seen, "skip.txt")
	assert.NotContains(t, seen, "other.bin")
}

func TestWatcher_NewDirectory(t *testing.T) {
	root := t.TempDir()
	_, batches := collect(t, root, nil)

	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	// Give the loop a moment to add the new watch, then write inside it
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "deep.txt"), []byte("x"), 0644))

	waitFor(t, batches, "deep.txt")
}

func TestWatcher_ExcludedDirectoryNotWatched(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "node_modules"), 0755))
	filter, err := glob.NewFilter(nil, []string{"node_modules"})
	require.NoError(t, err)
	_, batches := collect(t, root, filter)

	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "dep.js"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.js"), []byte("x"), 0644))

	seen := waitFor(t, batches, "main.js")
	assert.NotContains(t, seen, "dep.js")
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	w, err := New(t.TempDir(), Options{}, func([]Event) {})
	require.NoError(t, err)
	require.NoError(t, w.Start())

	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}

func TestNew_Errors(t *testing.T) {
	_, err := New(t.TempDir(), Options{}, nil)
	assert.Error(t, err)

	_, err = New(filepath.Join(t.TempDir(), "missing"), Options{}, func([]Event) {})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err = New(file, Options{}, func([]Event) {})
	assert.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, root, Options{}, func([]Event) {})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestEventDebouncer_CoalescesAndSorts(t *testing.T) {
	d := newEventDebouncer(time.Millisecond)
	d.add("b", EventCreate)
	d.add("a", EventCreate)
	d.add("b", EventWrite)

	batch := d.drain()
	assert.Equal(t, []Event{{Path: "a", Type: EventCreate}, {Path: "b", Type: EventWrite}}, batch)
	assert.Empty(t, d.drain())
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "create", EventCreate.String())
	assert.Equal(t, "rename", EventRename.String())
	assert.Equal(t, "EventType(9)", EventType(9).String())
}
