// Package watcher watches a directory tree and reports batches of changed
// paths once the tree has been quiet for a debounce interval.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/filter"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/logging"
)

var logger = logging.Get("watcher")

// DefaultDebounce is used when Options.Debounce is not positive.
const DefaultDebounce = 2 * time.Second

// Options configures a Watcher.
type Options struct {
	// Debounce is the quiet period after the last event before a batch is
	// delivered.
	Debounce time.Duration

	// Exclude holds glob patterns; matching paths neither get watches nor
	// produce events.
	Exclude []string
}

// Watcher watches directories recursively.
type Watcher struct {
	fsw      *fsnotify.Watcher
	exclude  *filter.Matcher
	debounce time.Duration

	mu     sync.Mutex
	paths  map[string]bool
	closed bool
}

// New creates a Watcher.
func New(opts Options) (*Watcher, error) {
	exclude, err := filter.NewMatcher(opts.Exclude...)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		fsw:      fsw,
		exclude:  exclude,
		debounce: debounce,
		paths:    make(map[string]bool),
	}, nil
}

// Watch adds root and every directory below it. Symlinks are not followed.
func (w *Watcher) Watch(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	info, err := os.Lstat(absRoot)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	return w.addTree(absRoot)
}

// Watched returns the number of directories under watch.
func (w *Watcher) Watched() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.paths)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.exclude.Match(path) {
			return filepath.SkipDir
		}
		return w.addWatch(path)
	})
}

func (w *Watcher) addWatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.paths[path] {
		return nil
	}
	if err := w.fsw.Add(path); err != nil {
		logger.Warn("failed to add watch", "path", path, "error", err)
		return err
	}
	w.paths[path] = true
	return nil
}

func (w *Watcher) removeWatch(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for p := range w.paths {
		if p == path || isSubPath(p, path) {
			_ = w.fsw.Remove(p)
			delete(w.paths, p)
		}
	}
}

// Run delivers batches of changed paths to onBatch until ctx is cancelled
// or the watcher is closed. Each batch is sorted and free of duplicates.
// onBatch runs on the Run goroutine; events arriving meanwhile are queued
// for the next batch.
func (w *Watcher) Run(ctx context.Context, onBatch func(paths []string)) {
	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.handleEvent(event) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Error("watcher error", "error", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			slices.Sort(batch)
			clear(pending)

			logger.Debug("change batch", "paths", len(batch))
			if onBatch != nil {
				onBatch(batch)
			}
		}
	}
}

// handleEvent keeps the watch set current and reports whether the event
// is relevant.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if w.exclude.Match(event.Name) {
		return false
	}

	switch {
	case event.Op&fsnotify.Create != 0:
		if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
			_ = w.addTree(event.Name)
		}
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.removeWatch(event.Name)
	}
	return true
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.paths = make(map[string]bool)
	return w.fsw.Close()
}

func isSubPath(path, parent string) bool {
	return len(path) > len(parent) && path[:len(parent)+1] == parent+string(filepath.Separator)
}
