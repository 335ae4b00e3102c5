package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	domainconfig "github.com/orlv/nsrvm/internal/domain/config"
	"github.com/orlv/nsrvm/internal/domain/logging"
)

// coalesceWindow debounces bursts of filesystem events (e.g. an editor's
// rename-then-write save sequence) into a single reload.
const coalesceWindow = 150 * time.Millisecond

// Watcher watches the configuration file's directory for changes and
// triggers a reload through the supplied Loader on each settled change.
type Watcher struct {
	loader *Loader
	path   string
	logger logging.Logger

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	pending bool
	timer   *time.Timer
	closed  bool
}

// NewWatcher creates a Watcher over path's containing directory, driven
// by loader for the actual decode-and-normalize step.
//
// Params:
//   - path: the configuration file to watch.
//   - loader: the loader used to produce a fresh snapshot on each event.
//   - logger: destination for watcher-setup diagnostics.
//
// Returns:
//   - *Watcher: the constructed watcher.
//   - error: any error creating the underlying fsnotify watcher.
func NewWatcher(path string, loader *Loader, logger logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return &Watcher{loader: loader, path: filepath.Clean(path), logger: logger, fsw: fsw}, nil
}

// Watch runs the event loop, invoking onChange with a freshly loaded
// snapshot after each settled burst of filesystem activity on the
// configuration file. It blocks until Close is called.
//
// Params:
//   - onChange: callback invoked with the newly loaded snapshot.
//
// Returns:
//   - error: always nil; errors from fsnotify are logged, not fatal.
func (w *Watcher) Watch(onChange func(domainconfig.Snapshot)) error {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			w.scheduleReload(onChange)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("", "config_watch_error", "watching configuration file", map[string]any{
				"error": err.Error(),
			})
		}
	}
}

// scheduleReload coalesces events arriving within coalesceWindow into a
// single reload, so a burst of writes from one editor save triggers
// exactly one reconciliation, per the Config Store's "updates coalesce"
// contract.
func (w *Watcher) scheduleReload(onChange func(domainconfig.Snapshot)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.pending {
		w.timer.Reset(coalesceWindow)
		return
	}
	w.pending = true
	w.timer = time.AfterFunc(coalesceWindow, func() {
		w.mu.Lock()
		w.pending = false
		closed := w.closed
		w.mu.Unlock()
		if closed {
			return
		}
		onChange(w.loader.Load())
	})
}

// Close stops the fsnotify watcher and cancels any pending coalesced
// reload.
//
// Returns:
//   - error: any error closing the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsw.Close()
}
