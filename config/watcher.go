package config

import (
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mrivasperez/ngx-keys-sub000/shortcut"
)

// Watcher errors.
var (
	ErrWatcherClosed   = errors.New("watcher is closed")
	ErrAlreadyWatching = errors.New("path is already being watched")
)

// Watcher monitors config files and re-applies them when they change.
// Each reload first unregisters what the previous version of the file
// installed, so edits and deletions take effect, not just additions.
type Watcher struct {
	mu sync.Mutex

	registry *shortcut.Registry
	resolver Resolver
	logger   *slog.Logger
	debounce time.Duration

	fsw     *fsnotify.Watcher
	watched map[string]*watched // by absolute path
	pending map[string]*time.Timer

	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// watched is the last good state of one config file: what it declared
// and what that installed. Kept so a failing reload can restore it.
type watched struct {
	file    *File
	applied Applied
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the structured logger for reload outcomes.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithWatcherDebounce coalesces rapid successive writes to one reload.
func WithWatcherDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher applying changed files to reg through res.
func NewWatcher(reg *shortcut.Registry, res Resolver, opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		registry: reg,
		resolver: res,
		logger:   slog.Default(),
		debounce: 100 * time.Millisecond,
		fsw:      fsw,
		watched:  make(map[string]*watched),
		pending:  make(map[string]*time.Timer),
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.loop()

	return w, nil
}

// Watch loads and applies the file at path, then keeps it under watch.
// The initial load failing is an error; later reload failures are logged
// and leave the last good version applied.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if _, ok := w.watched[abs]; ok {
		return ErrAlreadyWatching
	}

	f, err := Load(abs)
	if err != nil {
		return err
	}
	applied, err := Apply(w.registry, f, w.resolver)
	if err != nil {
		return err
	}

	if err := w.fsw.Add(abs); err != nil {
		revert(w.registry, applied)
		return err
	}
	w.watched[abs] = &watched{file: f, applied: applied}
	return nil
}

// Unwatch stops watching path and unregisters what it installed.
func (w *Watcher) Unwatch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	state, ok := w.watched[abs]
	if !ok {
		return errors.New("path is not being watched")
	}

	_ = w.fsw.Remove(abs)
	if t := w.pending[abs]; t != nil {
		t.Stop()
		delete(w.pending, abs)
	}
	delete(w.watched, abs)
	revert(w.registry, state.applied)
	return nil
}

// Close stops the watcher. Applied shortcuts stay registered.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for _, t := range w.pending {
		t.Stop()
	}
	close(w.closeCh)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.schedule(ev.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watch error", "error", err)
		}
	}
}

// schedule arms the per-path debounce timer for a reload.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if _, ok := w.watched[path]; !ok {
		return
	}

	if t := w.pending[path]; t != nil {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.reload(path)
	})
}

func (w *Watcher) reload(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	delete(w.pending, path)
	prev, ok := w.watched[path]
	if !ok {
		return
	}

	f, err := Load(path)
	if err != nil {
		w.logger.Error("config reload failed", "path", path, "error", err)
		return
	}

	// Swap within one batch so observers see a single transition. If the
	// new contents fail to apply, the last good version is re-applied.
	var applied Applied
	var restoreErr error
	w.registry.BatchUpdate(func() {
		revert(w.registry, prev.applied)
		applied, err = Apply(w.registry, f, w.resolver)
		if err != nil {
			prev.applied, restoreErr = Apply(w.registry, prev.file, w.resolver)
		}
	})
	if err != nil {
		w.logger.Error("config reload failed", "path", path, "error", err)
		if restoreErr != nil {
			// The last good version could not come back either, usually
			// because the registry changed underneath it. Nothing from
			// this file stays registered until the next good reload.
			w.logger.Error("config restore failed", "path", path, "error", restoreErr)
			w.watched[path] = &watched{file: prev.file}
		}
		return
	}

	w.watched[path] = &watched{file: f, applied: applied}
	w.logger.Info("config reloaded", "path", path,
		"shortcuts", len(applied.ShortcutIDs), "groups", len(applied.GroupIDs))
}
