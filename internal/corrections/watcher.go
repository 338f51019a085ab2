package corrections

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 100 * time.Millisecond

// ReloadFunc is called after each reload attempt with its outcome.
type ReloadFunc func(rules int, err error)

// Watch reloads engine whenever path changes on disk until ctx is done.
// The parent directory is watched so editors that replace the file by rename
// are picked up. Reload failures are logged and keep the previous rules.
func Watch(ctx context.Context, engine *Engine, path string, logger *slog.Logger, onReload ReloadFunc) error {
	if path == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve corrections path: %w", err)
	}
	dir := filepath.Dir(abs)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("corrections directory unavailable: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		err := engine.Reload(abs)
		if err != nil {
			logger.Warn("corrections reload failed", "path", abs, "error", err)
		} else {
			logger.Info("corrections reloaded", "path", abs, "rules", engine.Len())
		}
		if onReload != nil {
			onReload(engine.Len(), err)
		}
	}

	go func() {
		defer watcher.Close()
		defer func() {
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				logger.Debug("corrections file changed", "path", abs, "op", event.Op.String())

				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDebounce, reload)
				mu.Unlock()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("corrections watcher error", "error", err)
			}
		}
	}()

	return nil
}
