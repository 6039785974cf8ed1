package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher re-applies the custom intents file whenever it changes on disk.
type Watcher struct {
	catalog  *Catalog
	path     string
	log      *zap.Logger
	debounce time.Duration

	// onReload, when set, is called after each reload attempt.
	onReload func(n int, err error)
}

// NewWatcher returns a watcher for path that reloads into c.
func NewWatcher(c *Catalog, path string, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		catalog:  c,
		path:     filepath.Clean(path),
		log:      log,
		debounce: 250 * time.Millisecond,
	}
}

// OnReload registers a callback invoked after every reload.
func (w *Watcher) OnReload(fn func(n int, err error)) {
	w.onReload = fn
}

// Run watches until ctx is cancelled. The parent directory is watched
// rather than the file so editors that save by rename are picked up.
func (w *Watcher) Run(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("catalog: create %s: %w", dir, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("catalog: new watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("catalog: watch %s: %w", dir, err)
	}
	w.log.Info("watching custom intents", zap.String("path", w.path))

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
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

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("intents watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	n, err := w.catalog.ApplyFile(w.path)
	if err != nil {
		w.log.Warn("reload custom intents", zap.String("path", w.path), zap.Error(err))
	} else {
		w.log.Info("reloaded custom intents", zap.String("path", w.path), zap.Int("count", n))
	}
	if w.onReload != nil {
		w.onReload(n, err)
	}
}
