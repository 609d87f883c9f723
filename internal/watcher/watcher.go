package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType classifies a normalized filesystem event
type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
	EventRename
)

// String returns the event type name
func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event is one normalized change to a repository-relative path
type Event struct {
	Type      EventType
	Path      string // relative to the repository root, slash-separated
	Timestamp time.Time
}

// Reindexer is the slice of the indexing pipeline the watcher drives
type Reindexer interface {
	UpdateFile(ctx context.Context, relPath string) error
	RemoveFile(ctx context.Context, relPath string) error
	Ignored(relPath string) bool
	IgnoredDir(relPath string) bool
	Root() string
}

// Config holds watcher configuration
type Config struct {
	// DebounceMs is the per-path quiet period before re-indexing.
	// Zero means DefaultDebounceMs.
	DebounceMs int

	// OnIndexed, when set, is called after an event has been applied to
	// the store. Collaborators use it to invalidate query caches.
	OnIndexed func(Event)
}

// DefaultDebounceMs is the default per-path debounce window
const DefaultDebounceMs = 1000

const eventBuffer = 64

type watchState int

const (
	stateStopped watchState = iota
	stateRunning
)

// Watcher reacts to filesystem changes under the repository root by
// re-indexing changed files and dropping removed ones. Raw fsnotify events
// are normalized onto one typed channel consumed by a single dispatch
// loop; each path gets its own debounce timer so editor write bursts
// collapse into one re-index.
type Watcher struct {
	idx       Reindexer
	debounce  time.Duration
	onIndexed func(Event)

	mu     sync.Mutex
	state  watchState
	paused bool
	fsw    *fsnotify.Watcher
	timers map[string]*time.Timer
	latest map[string]Event
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Watcher over an indexer. Start must be called before any
// events are handled.
func New(idx Reindexer, cfg Config) *Watcher {
	debounce := time.Duration(cfg.DebounceMs) * time.Millisecond
	if cfg.DebounceMs <= 0 {
		debounce = DefaultDebounceMs * time.Millisecond
	}
	return &Watcher{
		idx:       idx,
		debounce:  debounce,
		onIndexed: cfg.OnIndexed,
		timers:    make(map[string]*time.Timer),
		latest:    make(map[string]Event),
	}
}

// Start registers the repository tree with fsnotify and begins dispatching.
// Calling Start while running is a warned no-op.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == stateRunning {
		log.Printf("watch: already running for %s", w.idx.Root())
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	if err := w.addTree(fsw, w.idx.Root()); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("failed to register watch tree: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.fsw = fsw
	w.cancel = cancel
	w.state = stateRunning
	w.paused = false

	events := make(chan Event, eventBuffer)
	w.wg.Add(2)
	go w.readLoop(runCtx, fsw, events)
	go w.dispatchLoop(runCtx, events)

	log.Printf("watch: started for %s (debounce %s)", w.idx.Root(), w.debounce)
	return nil
}

// Stop halts watching and waits for in-flight dispatches. Calling Stop
// while stopped is a no-op.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.state == stateStopped {
		w.mu.Unlock()
		return
	}
	w.state = stateStopped
	w.cancel()
	_ = w.fsw.Close()
	w.fsw = nil
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
		delete(w.latest, path)
	}
	w.mu.Unlock()

	w.wg.Wait()
	log.Printf("watch: stopped for %s", w.idx.Root())
}

// Pause suspends event handling without tearing down the watch tree.
// Events arriving while paused are dropped; callers that need them should
// force a rescan after Resume. Idempotent.
func (w *Watcher) Pause() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.paused = true
}

// Resume re-enables event handling. Idempotent.
func (w *Watcher) Resume() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.paused = false
}

// Running reports whether the watcher is started
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state == stateRunning
}

// addTree registers the root and every non-ignored subdirectory
func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, rerr := filepath.Rel(root, p)
		if rerr != nil {
			return rerr
		}
		rel = filepath.ToSlash(rel)
		if rel != "." && w.idx.IgnoredDir(rel) {
			return filepath.SkipDir
		}
		return fsw.Add(p)
	})
}

// readLoop normalizes raw fsnotify events onto the typed channel
func (w *Watcher) readLoop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- Event) {
	defer w.wg.Done()
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watch: filesystem error: %v", err)
		case raw, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleRaw(ctx, fsw, raw, out)
		}
	}
}

func (w *Watcher) handleRaw(ctx context.Context, fsw *fsnotify.Watcher, raw fsnotify.Event, out chan<- Event) {
	rel, err := filepath.Rel(w.idx.Root(), raw.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	// New directories must be registered; fsnotify does not recurse
	if raw.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(raw.Name); err == nil && info.IsDir() {
			if !w.idx.IgnoredDir(rel) {
				if err := w.addTree(fsw, raw.Name); err != nil {
					log.Printf("watch: failed to register %s: %v", rel, err)
				}
			}
			return
		}
	}

	if w.idx.Ignored(rel) {
		return
	}

	ev := Event{Path: rel, Timestamp: time.Now()}
	switch {
	case raw.Op.Has(fsnotify.Remove):
		ev.Type = EventDelete
	case raw.Op.Has(fsnotify.Rename):
		ev.Type = EventRename
	case raw.Op.Has(fsnotify.Create):
		ev.Type = EventCreate
	case raw.Op.Has(fsnotify.Write):
		ev.Type = EventModify
	default:
		// Chmod and other attribute noise
		return
	}

	select {
	case out <- ev:
	case <-ctx.Done():
	}
}

// dispatchLoop consumes normalized events and arms per-path debounce
// timers. The last event within a window wins.
func (w *Watcher) dispatchLoop(ctx context.Context, events <-chan Event) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			w.schedule(ctx, ev)
		}
	}
}

func (w *Watcher) schedule(ctx context.Context, ev Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != stateRunning || w.paused {
		return
	}
	w.latest[ev.Path] = ev
	if t, ok := w.timers[ev.Path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[ev.Path] = time.AfterFunc(w.debounce, func() {
		w.fire(ctx, ev.Path)
	})
}

func (w *Watcher) fire(ctx context.Context, path string) {
	w.mu.Lock()
	ev, ok := w.latest[path]
	delete(w.latest, path)
	delete(w.timers, path)
	stopped := w.state != stateRunning
	paused := w.paused
	w.mu.Unlock()

	if !ok || stopped || paused || ctx.Err() != nil {
		return
	}

	var err error
	switch ev.Type {
	case EventDelete, EventRename:
		err = w.idx.RemoveFile(ctx, ev.Path)
	default:
		err = w.idx.UpdateFile(ctx, ev.Path)
		// A create+delete burst can leave the file gone by the time the
		// timer fires; treat it as a removal.
		if err != nil && errors.Is(err, fs.ErrNotExist) {
			err = w.idx.RemoveFile(ctx, ev.Path)
			ev.Type = EventDelete
		}
	}
	if err != nil {
		log.Printf("watch: failed to apply %s for %s: %v", ev.Type, ev.Path, err)
		return
	}
	if w.onIndexed != nil {
		w.onIndexed(ev)
	}
}
