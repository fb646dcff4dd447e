package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/julianbeese/estates/internal/domain"
)

// ReloadFunc receives the freshly parsed dataset
type ReloadFunc func(listings []domain.Listing)

// Watcher reloads a dataset file whenever it changes on disk. Bursts of
// events (editors often write, chmod, and rename) are debounced.
type Watcher struct {
	path     string
	onReload ReloadFunc
	debounce time.Duration
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
}

// NewWatcher creates a dataset watcher. The parent directory is watched so
// that atomic replace-by-rename is picked up.
func NewWatcher(path string, onReload ReloadFunc, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	return &Watcher{
		path:     filepath.Clean(path),
		onReload: onReload,
		debounce: 200 * time.Millisecond,
		logger:   logger,
		watcher:  fw,
	}, nil
}

// Run processes events until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("dataset watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	listings, err := LoadDataset(w.path)
	if err != nil {
		// keep serving the previous dataset
		w.logger.Error("dataset reload failed", "path", w.path, "error", err)
		return
	}
	w.logger.Info("dataset reloaded", "path", w.path, "count", len(listings))
	w.onReload(listings)
}
