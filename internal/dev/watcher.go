package dev

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fsroute-dev/fsroute/internal/observability"
)

// ChangeCallback is called after a debounced batch of file changes.
type ChangeCallback func()

// Watcher watches a handler tree for changes and triggers recompiles.
// Directories are watched recursively; directories created while
// watching are picked up as they appear.
type Watcher struct {
	root          string
	watcher       *fsnotify.Watcher
	callback      ChangeCallback
	logger        observability.Logger
	debounceDelay time.Duration
	ignore        []string
	extraRoots    []string
	mu            sync.Mutex
	stopCh        chan struct{}
	stoppedCh     chan struct{}
	running       bool
}

// WatcherOption is a functional option for configuring the watcher.
type WatcherOption func(*Watcher)

// WithDebounceDelay sets the debounce delay for file changes.
func WithDebounceDelay(delay time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceDelay = delay
	}
}

// WithLogger sets the logger for the watcher.
func WithLogger(logger observability.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithIgnore sets glob patterns for names to skip. Patterns match the
// base name of the changed path.
func WithIgnore(patterns []string) WatcherOption {
	return func(w *Watcher) {
		w.ignore = patterns
	}
}

// WithExtraRoots adds directory trees to watch beyond the main root.
// Missing paths are skipped.
func WithExtraRoots(paths []string) WatcherOption {
	return func(w *Watcher) {
		w.extraRoots = paths
	}
}

// NewWatcher creates a watcher over the directory tree rooted at root.
func NewWatcher(root string, callback ChangeCallback, opts ...WatcherOption) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:          absRoot,
		watcher:       fsWatcher,
		callback:      callback,
		debounceDelay: 100 * time.Millisecond,
		logger:        observability.NopLogger(),
		stopCh:        make(chan struct{}),
		stoppedCh:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Start adds the tree to the watcher and begins the watch loop.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addTree(w.root); err != nil {
		return err
	}
	for _, extra := range w.extraRoots {
		abs, err := filepath.Abs(extra)
		if err != nil {
			continue
		}
		if _, err := os.Stat(abs); err != nil {
			w.logger.Warn("skipping missing watch path",
				observability.String("path", extra))
			continue
		}
		if err := w.addTree(abs); err != nil {
			return err
		}
	}

	w.logger.Info("started watching handler tree",
		observability.String("root", w.root))

	go w.watch(ctx)

	return nil
}

// Stop stops the watch loop and releases the underlying watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.stoppedCh

	return w.watcher.Close()
}

// addTree registers every directory under root with the watcher.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) ignored(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range w.ignore {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) watch(ctx context.Context) {
	defer close(w.stoppedCh)

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped due to context cancellation")
			return

		case <-w.stopCh:
			w.logger.Info("watcher stopped")
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			debounceTimer, debounceCh = w.handleFileEvent(event, debounceTimer, debounceCh)

		case <-debounceCh:
			debounceCh = nil
			if w.callback != nil {
				w.callback()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", observability.Error(err))
		}
	}
}

// handleFileEvent processes one file system event and returns the
// updated debounce timer.
func (w *Watcher) handleFileEvent(
	event fsnotify.Event,
	debounceTimer *time.Timer,
	debounceCh <-chan time.Time,
) (timer *time.Timer, ch <-chan time.Time) {
	if w.ignored(event.Name) {
		return debounceTimer, debounceCh
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return debounceTimer, debounceCh
	}

	// New directories join the watch set so nested handler dirs
	// created after startup still trigger recompiles.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Error("failed to watch new directory",
					observability.String("path", event.Name),
					observability.Error(err))
			}
		}
	}

	w.logger.Debug("handler tree changed",
		observability.String("path", event.Name),
		observability.String("op", event.Op.String()))

	if debounceTimer != nil {
		debounceTimer.Stop()
	}
	debounceTimer = time.NewTimer(w.debounceDelay)
	return debounceTimer, debounceTimer.C
}
