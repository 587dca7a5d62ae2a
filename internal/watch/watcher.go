// Package watch observes a directory tree and reports debounced batches of
// file changes, so a caller can re-run a search when the tree moves.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/greaper/internal/archive"
	"github.com/standardbeagle/greaper/internal/debug"
	"github.com/standardbeagle/greaper/internal/glob"
)

// DefaultDebounce is the quiet period before a batch is delivered
const DefaultDebounce = 300 * time.Millisecond

// EventType is the kind of change observed for a path
type EventType int

const (
	EventCreate EventType = iota
	EventWrite
	EventRemove
	EventRename
)

func (t EventType) String() string {
	switch t {
	case EventCreate:
		return "create"
	case EventWrite:
		return "write"
	case EventRemove:
		return "remove"
	case EventRename:
		return "rename"
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// Event is one coalesced change; only the latest type per path is kept
type Event struct {
	Path string
	Type EventType
}

// BatchFunc receives each debounced batch, sorted by path. Batches are
// delivered one at a time from the watcher goroutine.
type BatchFunc func(batch []Event)

// Options configure a Watcher
type Options struct {
	Debounce time.Duration
	// Filter limits which paths produce events; nil accepts everything
	Filter *glob.Filter
}

// Watcher watches root recursively
type Watcher struct {
	watcher   *fsnotify.Watcher
	root      string
	filter    *glob.Filter
	debouncer *eventDebouncer
	onBatch   BatchFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// New creates a watcher for root. Call Start to begin delivering batches.
func New(root string, opts Options, onBatch BatchFunc) (*Watcher, error) {
	if onBatch == nil {
		return nil, fmt.Errorf("watch: nil batch callback")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch: %s is not a directory", root)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		watcher:   fw,
		root:      root,
		filter:    opts.Filter,
		debouncer: newEventDebouncer(debounce),
		onBatch:   onBatch,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start adds watches for every non-excluded directory and starts the event loop
func (w *Watcher) Start() error {
	debug.LogWatch("Starting watcher for %s\n", w.root)
	if w.filter != nil {
		debug.LogWatch("Watch filter include=%v exclude=%v\n", w.filter.Includes(), w.filter.Excludes())
	}

	if err := w.addWatches(w.root); err != nil {
		return fmt.Errorf("failed to add watches starting from %s: %w", w.root, err)
	}

	w.wg.Add(1)
	go w.processEvents()
	return nil
}

// Close stops the event loop and releases the fsnotify watcher. Pending
// events that have not been flushed are dropped.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.cancel()
		w.closeErr = w.watcher.Close()
		w.wg.Wait()
		debug.LogWatch("Watcher for %s stopped\n", w.root)
	})
	return w.closeErr
}

// Run starts a watcher and blocks until ctx is cancelled
func Run(ctx context.Context, root string, opts Options, onBatch BatchFunc) error {
	w, err := New(root, opts, onBatch)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		_ = w.Close()
		return err
	}
	<-ctx.Done()
	return w.Close()
}

// addWatches walks the tree and watches each directory the filter keeps
func (w *Watcher) addWatches(root string) error {
	visited := make(map[string]bool)

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			return filepath.SkipDir
		}
		if visited[resolved] {
			return filepath.SkipDir
		}
		visited[resolved] = true

		if path != root && w.ignoreDir(path) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			debug.LogWatch("Failed to add watch for %s: %v\n", path, err)
		}
		return nil
	})
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func (w *Watcher) ignoreDir(path string) bool {
	return w.filter != nil && w.filter.ExcludedDir(w.rel(path))
}

// accepts mirrors the search walk: archives only answer to excludes
func (w *Watcher) accepts(path string) bool {
	if w.filter == nil {
		return true
	}
	rel := w.rel(path)
	if w.filter.Excluded(rel) {
		return false
	}
	return archive.IsArchive(rel) || w.filter.Included(rel)
}

// processEvents owns the debounce timer; batches are flushed from here
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	timer := time.NewTimer(w.debouncer.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.handleEvent(event) {
				timer.Reset(w.debouncer.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			debug.LogWatch("Watcher error: %v\n", err)

		case <-timer.C:
			if batch := w.debouncer.drain(); len(batch) > 0 {
				debug.LogWatch("Delivering %d debounced events\n", len(batch))
				w.onBatch(batch)
			}
		}
	}
}

// handleEvent records a relevant event and reports whether the debounce
// window should restart
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	path := event.Name
	debug.LogWatch("Received %v for %s\n", event.Op, path)

	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		if event.Op.Has(fsnotify.Create) && !w.ignoreDir(path) {
			// New subtrees need their own watches; files already inside count as created
			_ = w.addWatches(path)
			w.recordExisting(path)
			return true
		}
		return false
	}

	var eventType EventType
	switch {
	case event.Op.Has(fsnotify.Create):
		eventType = EventCreate
	case event.Op.Has(fsnotify.Write):
		eventType = EventWrite
	case event.Op.Has(fsnotify.Remove):
		eventType = EventRemove
	case event.Op.Has(fsnotify.Rename):
		eventType = EventRename
	default:
		return false
	}

	if !w.accepts(path) {
		return false
	}
	w.debouncer.add(path, eventType)
	return true
}

func (w *Watcher) recordExisting(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && w.ignoreDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && w.accepts(path) {
			w.debouncer.add(path, EventCreate)
		}
		return nil
	})
}

// eventDebouncer coalesces events per path until the window closes
type eventDebouncer struct {
	mu       sync.Mutex
	events   map[string]EventType
	debounce time.Duration
}

func newEventDebouncer(debounce time.Duration) *eventDebouncer {
	return &eventDebouncer{
		events:   make(map[string]EventType),
		debounce: debounce,
	}
}

func (d *eventDebouncer) add(path string, eventType EventType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events[path] = eventType
}

// drain empties the pending set and returns it sorted by path
func (d *eventDebouncer) drain() []Event {
	d.mu.Lock()
	events := d.events
	d.events = make(map[string]EventType)
	d.mu.Unlock()

	batch := make([]Event, 0, len(events))
	for path, t := range events {
		batch = append(batch, Event{Path: path, Type: t})
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	return batch
}
