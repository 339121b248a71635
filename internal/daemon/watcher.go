package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const defaultDebounce = 250 * time.Millisecond

// ConfigWatcher calls reload when the config file changes on disk.
//
// The parent directory is watched rather than the file so that editors that
// replace the file on save are still seen.
type ConfigWatcher struct {
	path     string
	reload   func() error
	debounce time.Duration
	logger   zerolog.Logger
}

// NewConfigWatcher creates a watcher for path.
func NewConfigWatcher(path string, reload func() error, logger zerolog.Logger) *ConfigWatcher {
	return &ConfigWatcher{
		path:     filepath.Clean(path),
		reload:   reload,
		debounce: defaultDebounce,
		logger:   logger,
	}
}

// Run watches until ctx is cancelled. A missing config directory is not an
// error; the watcher just idles.
func (w *ConfigWatcher) Run(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if _, err := os.Stat(dir); err != nil {
		w.logger.Warn().Str("dir", dir).Msg("config directory missing, not watching for changes")
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.Info().Str("path", w.path).Msg("watching config")

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug().Str("op", event.Op.String()).Msg("config changed")
			timer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("config watcher error")

		case <-timer.C:
			if err := w.reload(); err != nil {
				w.logger.Error().Err(err).Msg("config reload failed, keeping previous config")
				continue
			}
			w.logger.Info().Msg("config reloaded")
		}
	}
}
