// Package watch notices edits to the port file while the agent runs.
//
// The listening port is read once at startup and never changed at runtime.
// When the file on disk starts to disagree with the active port, or stops
// parsing, the watcher reports it so the operator knows a restart is needed.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/sleeponlan/internal/domain"
	"github.com/bft-labs/sleeponlan/internal/ports"
)

// DefaultDebounce coalesces the bursts of events editors produce on save.
const DefaultDebounce = 200 * time.Millisecond

// Reader reads the port file without creating it.
type Reader interface {
	Read() (domain.Configuration, error)
}

// PortFileWatcher watches the directory holding the port file.
type PortFileWatcher struct {
	path     string
	reader   Reader
	logger   ports.Logger
	debounce time.Duration
}

// Option configures a PortFileWatcher.
type Option func(*PortFileWatcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *PortFileWatcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New returns a watcher for the port file at path.
func New(path string, reader Reader, logger ports.Logger, opts ...Option) *PortFileWatcher {
	w := &PortFileWatcher{
		path:     filepath.Clean(path),
		reader:   reader,
		logger:   logger,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch blocks until ctx is done, calling onDrift with a short operator
// message whenever the file no longer matches active, and with "" once it
// matches again.
func (w *PortFileWatcher) Watch(ctx context.Context, active domain.Configuration, onDrift func(string)) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("port file watcher disabled", ports.Err(err))
		return
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file instead of
	// writing it in place.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		w.logger.Warn("port file watcher disabled",
			ports.String("path", w.path),
			ports.Err(err),
		)
		return
	}
	w.logger.Debug("watching port file", ports.String("path", w.path))

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	drifted := false
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			drifted = w.check(active, drifted, onDrift)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("port file watcher error", ports.Err(err))
		}
	}
}

// check reports the file's state and returns whether it still differs from
// active.
func (w *PortFileWatcher) check(active domain.Configuration, drifted bool, onDrift func(string)) bool {
	cfg, err := w.reader.Read()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		w.logger.Warn("port file removed; it will be recreated on next start",
			ports.String("path", w.path),
		)
		onDrift("port file removed")
		return true

	case err != nil:
		w.logger.Warn("port file changed and no longer parses",
			ports.String("path", w.path),
			ports.Err(err),
		)
		onDrift("port file invalid, next start will fail")
		return true

	case cfg.Port != active.Port:
		w.logger.Warn("port file changed; restart to apply",
			ports.Int("active_port", active.Port),
			ports.Int("file_port", cfg.Port),
		)
		onDrift(fmt.Sprintf("port %d pending restart", cfg.Port))
		return true

	case drifted:
		w.logger.Info("port file matches the active port again", ports.Int("port", cfg.Port))
		onDrift("")
		return false

	default:
		w.logger.Debug("port file touched, port unchanged", ports.Int("port", cfg.Port))
		return false
	}
}
