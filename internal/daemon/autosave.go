package daemon

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Saver persists state when it changed. It reports whether anything was
// written.
type Saver interface {
	Autosave() (bool, error)
}

// Autosaver periodically saves the autosave snapshot while state is dirty.
type Autosaver struct {
	interval time.Duration
	saver    Saver
	logger   zerolog.Logger
}

// NewAutosaver creates an autosaver. A non-positive interval defaults to 30s.
func NewAutosaver(interval time.Duration, saver Saver, logger zerolog.Logger) *Autosaver {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Autosaver{
		interval: interval,
		saver:    saver,
		logger:   logger,
	}
}

// Run starts the autosave loop. Blocks until context is cancelled, then
// makes one final save.
func (a *Autosaver) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.logger.Info().Dur("interval", a.interval).Msg("autosave started")

	for {
		select {
		case <-ctx.Done():
			a.save()
			a.logger.Info().Msg("autosave stopped")
			return nil
		case <-ticker.C:
			a.save()
		}
	}
}

// save performs a single autosave pass.
func (a *Autosaver) save() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			a.logger.Error().Interface("panic", err).Msg("autosave panic recovered")
		}
	}()

	saved, err := a.saver.Autosave()
	if err != nil {
		a.logger.Error().Err(err).Msg("autosave failed")
		return
	}
	if saved {
		a.logger.Debug().Msg("autosave written")
	}
}
