// Package daemon runs the long-lived winstate process: the IPC server, the
// autosave loop, the config watcher and optional X11 hotkeys, all sharing
// one desktop.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/1broseidon/winstate/internal/config"
	"github.com/1broseidon/winstate/internal/desktop"
	"github.com/1broseidon/winstate/internal/hotkeys"
	"github.com/1broseidon/winstate/internal/ipc"
	"github.com/1broseidon/winstate/internal/x11"
)

// Options configures a Daemon.
type Options struct {
	// ConfigPath is watched and reloaded; empty uses the default location
	ConfigPath string
	SocketPath string
	// PIDPath is written on start and removed on exit; empty skips it
	PIDPath string
	// Watch enables reloading the config file when it changes
	Watch  bool
	Logger zerolog.Logger
}

// Daemon owns the background tasks serving a desktop.
type Daemon struct {
	opts   Options
	desk   *desktop.Desktop
	logger zerolog.Logger
}

// New creates a daemon for desk.
func New(desk *desktop.Desktop, opts Options) (*Daemon, error) {
	if opts.SocketPath == "" {
		return nil, errors.New("socket path is required")
	}
	if opts.ConfigPath == "" {
		path, err := config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		opts.ConfigPath = path
	}
	return &Daemon{
		opts:   opts,
		desk:   desk,
		logger: opts.Logger,
	}, nil
}

// Reload re-reads the config file and applies it. An invalid file leaves the
// running config untouched.
func (d *Daemon) Reload() error {
	res, err := config.LoadFromPath(d.opts.ConfigPath)
	if err != nil {
		return err
	}
	d.desk.ApplyConfig(res.Config)
	return nil
}

// Run restores the autosave snapshot if configured, then serves until ctx is
// cancelled or a task fails.
func (d *Daemon) Run(ctx context.Context) error {
	cfg := d.desk.Config()

	if cfg.Snapshot.RestoreOnStart {
		restored, err := d.desk.RestoreAutosave()
		switch {
		case err != nil:
			d.logger.Warn().Err(err).Msg("failed to restore autosave snapshot")
		case restored:
			d.logger.Info().Str("snapshot", cfg.Snapshot.AutosaveName).Msg("restored autosave snapshot")
		}
	}

	if d.opts.PIDPath != "" {
		if err := WritePIDFile(d.opts.PIDPath); err != nil {
			return err
		}
		defer os.Remove(d.opts.PIDPath)
	}

	server := ipc.NewServer(d.opts.SocketPath, d.desk,
		ipc.WithReload(d.Reload),
		ipc.WithLogger(d.logger.With().Str("component", "ipc").Logger()))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Serve(ctx) })

	if cfg.Snapshot.AutosaveSeconds > 0 {
		saver := NewAutosaver(time.Duration(cfg.Snapshot.AutosaveSeconds)*time.Second, d.desk,
			d.logger.With().Str("component", "autosave").Logger())
		g.Go(func() error { return saver.Run(ctx) })
	}

	if d.opts.Watch {
		watcher := NewConfigWatcher(d.opts.ConfigPath, d.Reload,
			d.logger.With().Str("component", "config").Logger())
		g.Go(func() error { return watcher.Run(ctx) })
	}

	if cfg.Backend == config.BackendX11 && len(cfg.Hotkeys) > 0 {
		if handler := d.startHotkeys(cfg.Hotkeys); handler != nil {
			g.Go(func() error {
				if err := handler.Run(ctx); err != nil {
					d.logger.Warn().Err(err).Msg("hotkey loop stopped")
				}
				return nil
			})
		}
	}

	g.Go(func() error { return d.handleHangups(ctx) })

	d.logger.Info().Str("socket", d.opts.SocketPath).Msg("winstate daemon started")
	err := g.Wait()
	d.logger.Info().Msg("winstate daemon stopped")
	return err
}

// startHotkeys grabs the configured keys on a dedicated X11 connection.
// Failures are logged and the daemon runs without hotkeys. Bindings are read
// once; a reload does not regrab keys.
func (d *Daemon) startHotkeys(bindings map[string]string) *hotkeys.Handler {
	logger := d.logger.With().Str("component", "hotkeys").Logger()
	conn, err := x11.NewConnection()
	if err != nil {
		logger.Warn().Err(err).Msg("hotkeys disabled")
		return nil
	}
	h := hotkeys.NewHandler(conn, hotkeys.NewDispatcher(d.desk, logger), logger)
	if err := h.Register(bindings); err != nil {
		conn.Close()
		logger.Warn().Err(err).Msg("hotkeys disabled")
		return nil
	}
	return h
}

// handleHangups reloads config on SIGHUP.
func (d *Daemon) handleHangups(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sigCh:
			d.logger.Info().Msg("received SIGHUP, reloading config")
			if err := d.Reload(); err != nil {
				d.logger.Error().Err(err).Msg("config reload failed")
			}
		}
	}
}

// WritePIDFile records the current process id at path.
func WritePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create pid directory: %w", err)
	}
	data := []byte(strconv.Itoa(os.Getpid()) + "\n")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write pid file: %w", err)
	}
	return nil
}

// ReadPIDFile returns the process id stored at path.
func ReadPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid pid file %s: %w", path, err)
	}
	return pid, nil
}
