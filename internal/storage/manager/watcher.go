package manager

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"

	"github.com/leengari/coltable/internal/storage"
)

// Watcher reloads loaded tables when their files change on disk
type Watcher struct {
	registry *Registry
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewWatcher creates a watcher for the registry's data directory
func NewWatcher(r *Registry) *Watcher {
	return &Watcher{
		registry: r,
		logger:   r.logger,
		done:     make(chan struct{}),
	}
}

// Start begins watching; events are handled until ctx is cancelled or
// Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	dir, err := w.registry.paths.Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create table directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.watcher = watcher

	w.logger.Debug("watching table directory", slog.String("path", dir))
	go w.run(ctx)
	return nil
}

// Close stops the watcher and waits for the event loop to exit
func (w *Watcher) Close() error {
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(evt)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) handle(evt fsnotify.Event) {
	name := storage.NameFromPath(evt.Name)
	if name == "" {
		return
	}

	w.logger.Debug("registered file event",
		slog.String("table", name),
		slog.String("event", evt.String()),
	)

	switch {
	case evt.Has(fsnotify.Remove) || evt.Has(fsnotify.Rename):
		w.registry.Forget(name)
	case evt.Has(fsnotify.Create) || evt.Has(fsnotify.Write):
		if err := w.registry.Reload(name); err != nil {
			w.logger.Warn("failed to reload table",
				slog.String("table", name),
				slog.Any("error", err),
			)
		}
	}
}
