// Package fsnotify implements the ports.Watcher interface using github.com/fsnotify/fsnotify.
// It watches single files by watching their parent directory and filtering by
// name, so a file replaced by rename (package upgrades, atomic installs) is
// still seen. Symlinks are followed one level: a change to either the link or
// its target fires. Rapid events are coalesced into one callback after a quiet
// period (installers often write, chmod and rename in quick succession).
package fsnotify

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/corey/svdprobe/internal/ports"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before onChange fires.
const DefaultDebounce = 200 * time.Millisecond

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fw       *fsnotify.Watcher
	debounce time.Duration
	done     chan struct{}
	stopped  bool
	started  bool
	mu       sync.Mutex

	// watched maps every name that triggers a callback (the file as given
	// and its symlink target) to the path reported to that callback.
	watched   map[string]string
	callbacks map[string]func(string)
	timers    map[string]*time.Timer
}

var _ ports.Watcher = (*Watcher)(nil)

// NewWatcher creates a new file system watcher with DefaultDebounce.
func NewWatcher() (*Watcher, error) {
	return NewWatcherWithDebounce(DefaultDebounce)
}

// NewWatcherWithDebounce creates a watcher with the given quiet period.
func NewWatcherWithDebounce(d time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fw:        fw,
		debounce:  d,
		done:      make(chan struct{}),
		watched:   make(map[string]string),
		callbacks: make(map[string]func(string)),
		timers:    make(map[string]*time.Timer),
	}, nil
}

// WatchFile starts monitoring path. onChange is called with the absolute
// path as given (not the resolved symlink target) once per burst of writes,
// creates, renames or removals. The file need not exist yet; its directory must.
func (w *Watcher) WatchFile(path string, onChange func(filePath string)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	names := []string{abs}
	if target, err := filepath.EvalSymlinks(abs); err == nil && target != abs {
		names = append(names, target)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, name := range names {
		if err := w.fw.Add(filepath.Dir(name)); err != nil {
			return err
		}
		w.watched[name] = abs
	}
	w.callbacks[abs] = onChange
	if !w.started {
		w.started = true
		go w.loop()
	}
	return nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.mu.Lock()
			if reported, ok := w.watched[event.Name]; ok {
				w.schedule(reported)
			}
			w.mu.Unlock()

		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			// Errors are swallowed — fsnotify recovers automatically

		case <-w.done:
			return
		}
	}
}

// schedule (re)arms the debounce timer for path. Callers hold w.mu.
func (w *Watcher) schedule(path string) {
	if t, ok := w.timers[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		cb := w.callbacks[path]
		stopped := w.stopped
		w.mu.Unlock()
		if cb != nil && !stopped {
			cb(path)
		}
	})
}

// Stop ends monitoring and releases all resources. Pending callbacks are
// dropped. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	for _, t := range w.timers {
		t.Stop()
	}
	close(w.done)
	return w.fw.Close()
}
