package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/sistemabuses/busadmin/pkg/logger"
)

// Watcher reports changes to a set of files. It watches the parent
// directories so that editors replacing a file through rename are seen.
type Watcher struct {
	fs  *fsnotify.Watcher
	log logger.Logger

	mu        sync.RWMutex
	files     map[string]context.Context
	dirs      map[string]int
	callbacks []func()

	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

func NewWatcher() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		fs:    fsw,
		log:   logger.GetDefault(),
		files: make(map[string]context.Context),
		dirs:  make(map[string]int),
		done:  make(chan struct{}),
	}, nil
}

// Watch adds path until ctx is done or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	dir := filepath.Dir(abs)
	w.mu.Lock()
	if w.dirs[dir] == 0 {
		if err := w.fs.Add(dir); err != nil {
			w.mu.Unlock()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	if _, ok := w.files[abs]; !ok {
		w.dirs[dir]++
	}
	w.files[abs] = ctx
	w.mu.Unlock()

	go w.forget(ctx, abs)
	w.startOnce.Do(func() { go w.loop() })
	return nil
}

func (w *Watcher) forget(ctx context.Context, abs string) {
	select {
	case <-ctx.Done():
	case <-w.done:
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[abs]; !ok {
		return
	}
	delete(w.files, abs)
	dir := filepath.Dir(abs)
	w.dirs[dir]--
	if w.dirs[dir] > 0 {
		return
	}
	delete(w.dirs, dir)
	if err := w.fs.Remove(dir); err != nil && !errors.Is(err, fsnotify.ErrClosed) {
		w.log.Debug("failed to stop watching directory", "dir", dir, "error", err)
	}
}

func (w *Watcher) OnChange(callback func()) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, callback)
	w.mu.Unlock()
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if w.tracked(event.Name) {
				w.notify()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) tracked(name string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	ctx, ok := w.files[filepath.Clean(name)]
	return ok && ctx.Err() == nil
}

func (w *Watcher) notify() {
	w.mu.RLock()
	callbacks := append([]func(){}, w.callbacks...)
	w.mu.RUnlock()
	for _, cb := range callbacks {
		if cb != nil {
			cb()
		}
	}
}

func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		if cerr := w.fs.Close(); cerr != nil {
			err = fmt.Errorf("failed to close watcher: %w", cerr)
		}
	})
	return err
}
