package seed

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// ReloadFunc receives a freshly parsed data set after the seed file changed.
type ReloadFunc func(ctx context.Context, ds *Dataset)

// Watch watches the seed file at path and calls onReload with the parsed
// content after every change, until ctx is cancelled. The parent directory is
// watched rather than the file itself so editors that save through a rename
// keep triggering reloads. Bursts of events are debounced; files that fail to
// parse are logged and skipped.
func Watch(ctx context.Context, path string, logger *slog.Logger, onReload ReloadFunc) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logger.Info("seed watcher: started", slog.String("path", abs))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(reloadDebounce)
			fire = timer.C
			return
		}
		timer.Reset(reloadDebounce)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("seed watcher: stopped")
			return nil

		case <-fire:
			ds, loadErr := Load(abs)
			if loadErr != nil {
				logger.Warn("seed watcher: reload failed", slog.String("error", loadErr.Error()))
				continue
			}
			logger.Info("seed watcher: reloaded", slog.String("path", abs), slog.Int("records", ds.Len()))
			onReload(ctx, ds)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("seed watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
