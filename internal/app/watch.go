package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vk/tsdat/internal/ctxlog"
)

// settleDelay is how long a file must stay unchanged before it is processed.
const settleDelay = 500 * time.Millisecond

// watch processes every file created or written in dir that matches the
// pipeline triggers. Failed runs are logged and do not stop the watcher.
func (a *App) watch(ctx context.Context, dir string) error {
	logger := ctxlog.FromContext(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create file watcher: %w", err)
	}
	defer watcher.Close()

	realDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return fmt.Errorf("unable to evaluate symlinks for %s: %w", dir, err)
	}
	if err := watcher.Add(realDir); err != nil {
		return fmt.Errorf("unable to watch %s: %w", realDir, err)
	}
	logger.Info("Watching for new input files.", "dir", realDir)

	ready := make(chan string, 16)
	var mu sync.Mutex
	timers := make(map[string]*time.Timer)
	defer func() {
		mu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping file watcher.")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			path := event.Name
			if !a.pipeline.Triggered(path) {
				logger.Debug("Ignoring file that matches no trigger.", "path", path)
				continue
			}
			mu.Lock()
			if t, ok := timers[path]; ok {
				t.Reset(settleDelay)
			} else {
				timers[path] = time.AfterFunc(settleDelay, func() {
					mu.Lock()
					delete(timers, path)
					mu.Unlock()
					select {
					case ready <- path:
					case <-ctx.Done():
					}
				})
			}
			mu.Unlock()
		case path := <-ready:
			if _, err := a.Process(ctx, []string{path}); err != nil {
				logger.Error("Failed to process input file.", "path", path, "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("File watcher error.", "error", err)
		}
	}
}
