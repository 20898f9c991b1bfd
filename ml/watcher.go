package ml

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ReloadFunc receives each complete, successfully loaded bundle.
type ReloadFunc func(*Artifacts) error

// Watcher reloads the artifact bundle when any of its files change. A
// reload either produces a complete new bundle or leaves the current one
// in place.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	paths    Paths
	files    map[string]struct{}
	onReload ReloadFunc
	logger   *zap.Logger

	debounce  time.Duration
	pending   bool
	lastEvent time.Time

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

func NewWatcher(paths Paths, onReload ReloadFunc, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	files := make(map[string]struct{}, 3)
	for _, f := range paths.Files() {
		files[filepath.Clean(f)] = struct{}{}
	}
	return &Watcher{
		watcher:  fw,
		paths:    paths,
		files:    files,
		onReload: onReload,
		logger:   logger,
		debounce: 500 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// SetDebounce changes the quiet period required before a reload. Call
// before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	w.debounce = d
	w.mu.Unlock()
}

// Start watches the directories holding the artifacts. Non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	dirs := make(map[string]struct{})
	for f := range w.files {
		dirs[filepath.Dir(f)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			_ = w.watcher.Close()
			close(w.doneCh)
			return err
		}
		w.logger.Info("watching artifact directory", zap.String("dir", dir))
	}

	go w.run(ctx)
	return nil
}

// Stop ends the watch loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("closing artifact watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("artifact watcher", zap.Error(err))
		case <-ticker.C:
			w.maybeReload()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if _, ok := w.files[filepath.Clean(event.Name)]; !ok {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}
	w.logger.Debug("artifact changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))

	w.mu.Lock()
	w.pending = true
	w.lastEvent = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) maybeReload() {
	w.mu.Lock()
	if !w.pending || time.Since(w.lastEvent) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.mu.Unlock()

	artifacts, err := LoadArtifacts(w.paths)
	if err != nil {
		w.logger.Error("artifact reload failed, keeping current bundle", zap.Error(err))
		return
	}
	if err := w.onReload(artifacts); err != nil {
		w.logger.Error("artifact reload rejected, keeping current bundle",
			zap.String("version", artifacts.Version), zap.Error(err))
		return
	}
	w.logger.Info("artifacts reloaded", zap.String("version", artifacts.Version))
}
