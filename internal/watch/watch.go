// Package watch reports changes to a single file.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// ErrClosed is returned by Wait once the watcher has been closed.
var ErrClosed = errors.New("watcher closed")

// Watcher waits for writes to one file. The parent directory is watched so
// editors that replace the file on save are still noticed.
type Watcher struct {
	w    *fsnotify.Watcher
	path string
	dir  string
}

// New starts watching path.
func New(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating fsnotify watcher: %w", err)
	}

	dir := filepath.Dir(abs)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("error adding dir to fsnotify watcher: %w", err)
	}
	log.Info("fsnotify watching dir", "dir", dir)

	return &Watcher{w: w, path: abs, dir: dir}, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Wait blocks until the file is written or created, the context is done,
// or the watcher is closed.
func (w *Watcher) Wait(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.w.Events:
			if !ok {
				return ErrClosed
			}
			if event.Name != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			return nil
		case err, ok := <-w.w.Errors:
			if !ok {
				return ErrClosed
			}
			log.Debug("fsnotify error", "dir", w.dir, "error", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	if err := w.w.Close(); err != nil {
		log.Error("fsnotify fail to unwatch dir", "dir", w.dir, "error", err)
		return err
	}
	log.Debug("fsnotify dir unwatched", "dir", w.dir)
	return nil
}
