// Package watch reloads the store when its data file changes on disk.
// Editors and sync tools replace files by rename, so the watcher
// observes the parent directory and filters events down to the data
// file itself. Bursts of events for one logical change are coalesced
// with a quiet-period timer before a single reload fires.
package watch

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"termtask/internal/store"
)

// DefaultDebounce is the quiet period after the last file event before
// a reload is attempted.
const DefaultDebounce = 200 * time.Millisecond

// Source is the store surface the watcher drives. Load re-reads the
// data file; SaveEpoch identifies writes the store made itself.
type Source interface {
	Load() error
	SaveEpoch() uint64
}

// Watcher observes one data file and reloads the source when an
// external writer changes it.
type Watcher struct {
	src      Source
	path     string
	log      store.Logger
	debounce time.Duration

	fw   *fsnotify.Watcher
	done chan struct{}
	wg   sync.WaitGroup

	lastEpoch uint64
	reloads   atomic.Uint64
	skipped   atomic.Uint64
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the coalescing quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger for reload failures.
func WithLogger(log store.Logger) Option {
	return func(w *Watcher) { w.log = log }
}

// New builds a watcher for the given source and data file path.
// Call Start to begin watching.
func New(src Source, path string, opts ...Option) *Watcher {
	w := &Watcher{
		src:      src,
		path:     filepath.Clean(path),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching the data file's directory. The directory must
// exist; the file itself does not need to.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	w.fw = fw
	w.done = make(chan struct{})
	w.lastEpoch = w.src.SaveEpoch()

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop ends watching and waits for the event loop to exit. Safe to
// call when Start was never called or already stopped.
func (w *Watcher) Stop() error {
	if w.fw == nil {
		return nil
	}
	close(w.done)
	err := w.fw.Close()
	w.wg.Wait()
	w.fw = nil
	return err
}

// Reloads returns the number of reloads triggered by external changes.
func (w *Watcher) Reloads() uint64 {
	return w.reloads.Load()
}

// Skipped returns the number of change bursts attributed to the
// store's own saves and therefore not reloaded.
func (w *Watcher) Skipped() uint64 {
	return w.skipped.Load()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	// The timer starts stopped; each relevant event rearms it.
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			if w.log != nil {
				w.log.Warn("file watcher error: %v", err)
			}

		case <-timer.C:
			w.settle()
		}
	}
}

// relevant reports whether an event concerns the data file. Rename
// and create both appear when a writer replaces the file atomically.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// settle runs once the event burst has gone quiet. A save epoch that
// moved since the last settle means the store wrote the file itself,
// so the burst is consumed without reloading.
func (w *Watcher) settle() {
	cur := w.src.SaveEpoch()
	if cur != w.lastEpoch {
		w.lastEpoch = cur
		w.skipped.Add(1)
		return
	}

	if err := w.src.Load(); err != nil {
		if w.log != nil {
			w.log.Error("reload after external change failed: %v", err)
		}
		return
	}
	w.lastEpoch = w.src.SaveEpoch()
	w.reloads.Add(1)
}
