package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// editors usually write file in several steps
const watchSettle = 200 * time.Millisecond

// watch converts in again after every change until ctx is done.
// Directory is watched because editors replace files instead of writing them.
func (c *converter) watch(ctx context.Context, in, out string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrapf(err, "Failed to create watcher")
	}
	defer w.Close()

	abs, err := filepath.Abs(in)
	if err != nil {
		return errors.Wrapf(err, "Failed to resolve %q", in)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return errors.Wrapf(err, "Failed to watch %q", filepath.Dir(abs))
	}
	c.logger.Info("Watching", "file", abs)

	timer := time.NewTimer(watchSettle)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) != abs || e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			timer.Reset(watchSettle)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("Watcher error", "err", err)
		case <-timer.C:
			if err := c.convert(ctx, in, out); err != nil {
				c.logger.Error("Conversion failed", "in", in, "err", err)
			}
		}
	}
}
