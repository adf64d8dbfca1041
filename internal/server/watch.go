package server

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of events an editor or atomic rename
// produces for one save.
const watchDebounce = 500 * time.Millisecond

// Watch reloads h whenever the file at path changes, until ctx is done.
// The parent directory is watched so that replace-by-rename is noticed.
func Watch(ctx context.Context, path string, h *Holder) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	h.logger.Info("watching dataset for changes", "path", abs)

	go func() {
		defer w.Close()
		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				h.logger.Debug("dataset changed", "file", ev.Name, "op", ev.Op.String())
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(watchDebounce, func() {
					_ = h.Reload(ctx)
				})
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				h.logger.Error("file watcher error", "err", err)
			}
		}
	}()
	return nil
}
