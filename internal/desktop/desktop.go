// Package desktop wires the window registry, grouping engine, interaction
// sessions, viewport provider and snapshot store into one object that the
// daemon, MCP server and CLI drive.
package desktop

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/1broseidon/winstate/internal/config"
	"github.com/1broseidon/winstate/internal/geom"
	"github.com/1broseidon/winstate/internal/grouping"
	"github.com/1broseidon/winstate/internal/platform"
	"github.com/1broseidon/winstate/internal/session"
	"github.com/1broseidon/winstate/internal/snap"
	"github.com/1broseidon/winstate/internal/snapshot"
	"github.com/1broseidon/winstate/internal/tiling"
	"github.com/1broseidon/winstate/internal/wm"
)

// Desktop is the process-wide engine instance.
type Desktop struct {
	logger zerolog.Logger
	now    func() time.Time

	cfgMu sync.RWMutex
	cfg   *config.Config

	registry *wm.Registry
	groups   *grouping.Engine
	sessions *session.Controller

	static        *platform.Static
	viewport      platform.ViewportProvider
	closeViewport func() error

	store snapshot.Store
	// saved is the registry version covered by the last save or load.
	saved atomic.Uint64
}

// Option configures a Desktop.
type Option func(*Desktop)

// WithLogger sets the logger shared by every component.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Desktop) { d.logger = l }
}

// WithViewportProvider overrides the configured backend.
func WithViewportProvider(p platform.ViewportProvider) Option {
	return func(d *Desktop) { d.viewport = p }
}

// WithStore overrides the configured snapshot store.
func WithStore(s snapshot.Store) Option {
	return func(d *Desktop) { d.store = s }
}

// WithClock sets the time source for snapshots and groups.
func WithClock(now func() time.Time) Option {
	return func(d *Desktop) { d.now = now }
}

// New builds a desktop from cfg. A nil cfg uses the defaults.
func New(cfg *config.Config, opts ...Option) (*Desktop, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	d := &Desktop{
		logger:        zerolog.Nop(),
		now:           time.Now,
		cfg:           cfg,
		static:        platform.NewStatic(cfg.Viewport),
		closeViewport: func() error { return nil },
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.viewport == nil {
		p, closeFn, err := platform.Open(platform.Backend(cfg.Backend), d.static)
		if err != nil {
			d.logger.Warn().Err(err).Str("backend", cfg.Backend).Msg("viewport backend unavailable, using configured viewport")
			p = d.static
		} else {
			d.closeViewport = closeFn
		}
		d.viewport = p
	}

	if d.store == nil {
		dir, err := cfg.SnapshotDir()
		if err != nil {
			d.closeViewport()
			return nil, err
		}
		store, err := snapshot.Open(cfg.Snapshot.Backend, dir)
		if err != nil {
			d.closeViewport()
			return nil, fmt.Errorf("failed to open snapshot store: %w", err)
		}
		d.store = store
	}

	d.registry = wm.NewRegistry(cfg.ZIndexBase, cfg.Constraints,
		wm.WithLogger(d.logger.With().Str("component", "registry").Logger()))
	d.groups = grouping.New(d.registry,
		grouping.WithOffset(cfg.Grouping.Offset),
		grouping.WithArrangeOptions(cfg.Arrange),
		grouping.WithClock(d.now),
		grouping.WithLogger(d.logger.With().Str("component", "grouping").Logger()))
	d.sessions = session.NewController(d.registry, d.viewport,
		session.WithSnapThreshold(cfg.Snap.Threshold),
		session.WithDragThreshold(cfg.Snap.DragThreshold),
		session.WithLogger(d.logger.With().Str("component", "session").Logger()))

	return d, nil
}

// Registry returns the window registry.
func (d *Desktop) Registry() *wm.Registry { return d.registry }

// Grouping returns the grouping engine.
func (d *Desktop) Grouping() *grouping.Engine { return d.groups }

// Sessions returns the interaction session controller.
func (d *Desktop) Sessions() *session.Controller { return d.sessions }

// Config returns the active configuration.
func (d *Desktop) Config() *config.Config {
	d.cfgMu.RLock()
	defer d.cfgMu.RUnlock()
	return d.cfg
}

// Viewport queries the provider for the current viewport.
func (d *Desktop) Viewport() (geom.Viewport, error) {
	vp, err := d.viewport.Viewport()
	if err != nil {
		return geom.Viewport{}, fmt.Errorf("failed to query viewport: %w", err)
	}
	return vp, nil
}

// ApplyConfig swaps in a reloaded configuration. Backend and snapshot store
// changes need a restart and are only logged.
func (d *Desktop) ApplyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	d.cfgMu.Lock()
	prev := d.cfg
	d.cfg = cfg
	d.cfgMu.Unlock()

	d.static.Set(cfg.Viewport)
	d.registry.SetConstraints(cfg.Constraints)
	d.groups.SetOffset(cfg.Grouping.Offset)
	d.groups.SetArrangeOptions(cfg.Arrange)
	d.sessions.SetThresholds(cfg.Snap.Threshold, cfg.Snap.DragThreshold)

	if prev.Backend != cfg.Backend {
		d.logger.Warn().Str("from", prev.Backend).Str("to", cfg.Backend).Msg("backend change requires restart")
	}
	if prev.Snapshot.Backend != cfg.Snapshot.Backend || prev.Snapshot.Dir != cfg.Snapshot.Dir {
		d.logger.Warn().Msg("snapshot store change requires restart")
	}
	d.logger.Info().Msg("config applied")
}

// Close releases the viewport provider and snapshot store.
func (d *Desktop) Close() error {
	d.sessions.Cancel()
	return errors.Join(d.closeViewport(), d.store.Close())
}

// Open adds a window or refocuses an existing one and returns its id.
func (d *Desktop) Open(desc wm.Descriptor) string {
	return d.registry.Open(desc)
}

// Focus raises id and makes it active.
func (d *Desktop) Focus(id string) bool { return d.registry.Dispatch(wm.Focus{ID: id}) }

// CloseWindow removes id.
func (d *Desktop) CloseWindow(id string) bool { return d.registry.Dispatch(wm.Close{ID: id}) }

// Minimize hides id.
func (d *Desktop) Minimize(id string) bool { return d.registry.Dispatch(wm.Minimize{ID: id}) }

// Restore un-minimizes id.
func (d *Desktop) Restore(id string) bool { return d.registry.Dispatch(wm.Restore{ID: id}) }

// ToggleFocusOrMinimize is the taskbar click behaviour.
func (d *Desktop) ToggleFocusOrMinimize(id string) bool {
	return d.registry.Dispatch(wm.ToggleFocusOrMinimize{ID: id})
}

// ToggleAlwaysOnTop flips the pin of id.
func (d *Desktop) ToggleAlwaysOnTop(id string) bool {
	return d.registry.Dispatch(wm.ToggleAlwaysOnTop{ID: id})
}

// FocusNext cycles focus to the next visible window.
func (d *Desktop) FocusNext() bool { return d.registry.Dispatch(wm.FocusNext{}) }

// Move places id at pos.
func (d *Desktop) Move(id string, pos geom.Point) bool {
	return d.registry.Dispatch(wm.Move{ID: id, Position: pos})
}

// Resize sets the geometry of id, clamped to its constraints.
func (d *Desktop) Resize(id string, r geom.Rect) bool {
	return d.registry.Dispatch(wm.Resize{ID: id, Geometry: r})
}

// ToggleMaximize maximizes id to the current usable viewport or restores it.
func (d *Desktop) ToggleMaximize(id string) (bool, error) {
	vp, err := d.Viewport()
	if err != nil {
		return false, err
	}
	return d.registry.Dispatch(wm.ToggleMaximize{ID: id, Viewport: vp}), nil
}

// Maximize maximizes id to the current usable viewport.
func (d *Desktop) Maximize(id string) (bool, error) {
	vp, err := d.Viewport()
	if err != nil {
		return false, err
	}
	return d.registry.Dispatch(wm.Maximize{ID: id, Viewport: vp}), nil
}

// Unmaximize restores the pre-maximize geometry of id.
func (d *Desktop) Unmaximize(id string) bool {
	return d.registry.Dispatch(wm.Unmaximize{ID: id})
}

// SnapWindow applies a region layout directly, as a keyboard shortcut
// would. The top region maximizes.
func (d *Desktop) SnapWindow(id string, region snap.Region) (snap.Target, bool, error) {
	vp, err := d.Viewport()
	if err != nil {
		return snap.Target{}, false, err
	}
	target, ok := snap.Layout(region, vp)
	if !ok {
		return snap.Target{}, false, fmt.Errorf("unknown snap region %q", region)
	}
	if target.Maximize {
		return target, d.registry.Dispatch(wm.Maximize{ID: id, Viewport: vp}), nil
	}
	return target, d.registry.Dispatch(wm.Snap{ID: id, Geometry: target.Rect}), nil
}

// Arrange lays out ids in formation f and commits the placements. With no
// ids every visible application window is arranged in stacking order.
func (d *Desktop) Arrange(ids []string, f tiling.Formation) ([]tiling.Placement, error) {
	if len(ids) == 0 {
		for _, w := range d.registry.Stack() {
			if w.Visible() && w.Kind != wm.KindTabManager {
				ids = append(ids, w.ID)
			}
		}
	}
	placements, err := d.groups.Arrange(ids, f)
	if err != nil {
		return nil, err
	}
	d.groups.ApplyArrangement(placements)
	return placements, nil
}

// Status summarizes the engine for status queries.
type Status struct {
	Windows  int           `json:"windows"`
	Visible  int           `json:"visible"`
	Groups   int           `json:"groups"`
	ActiveID string        `json:"active_id,omitempty"`
	Viewport geom.Viewport `json:"viewport"`
	Backend  string        `json:"backend"`
	Session  session.Mode  `json:"session"`
	Dirty    bool          `json:"dirty"`
}

// Status reports counts, the active window and the current viewport.
func (d *Desktop) Status() Status {
	state := d.registry.Snapshot()
	st := Status{
		Windows:  len(state.Windows),
		Groups:   len(state.Groups),
		ActiveID: state.ActiveID,
		Backend:  d.Config().Backend,
		Dirty:    d.Dirty(),
	}
	for _, w := range state.Windows {
		if w.Visible() {
			st.Visible++
		}
	}
	if vp, err := d.Viewport(); err == nil {
		st.Viewport = vp
	}
	if p, ok := d.sessions.Current(); ok {
		st.Session = p.Mode
	}
	return st
}

// Dirty reports whether state changed since the last save or load.
func (d *Desktop) Dirty() bool {
	return d.registry.Version() > d.saved.Load()
}

// markSaved records that version is persisted. It never moves backwards, so
// an older save finishing late cannot hide a newer change.
func (d *Desktop) markSaved(version uint64) {
	for {
		cur := d.saved.Load()
		if cur >= version || d.saved.CompareAndSwap(cur, version) {
			return
		}
	}
}
