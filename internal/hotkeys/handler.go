// Package hotkeys binds global X11 key sequences to desktop actions.
package hotkeys

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/rs/zerolog"

	"github.com/1broseidon/winstate/internal/desktop"
	"github.com/1broseidon/winstate/internal/snap"
	"github.com/1broseidon/winstate/internal/tiling"
	"github.com/1broseidon/winstate/internal/x11"
)

// Desktop is the surface hotkey actions drive. *desktop.Desktop implements it.
type Desktop interface {
	Status() desktop.Status
	FocusNext() bool
	SnapWindow(id string, region snap.Region) (snap.Target, bool, error)
	ToggleMaximize(id string) (bool, error)
	Minimize(id string) bool
	ToggleAlwaysOnTop(id string) bool
	CloseWindow(id string) bool
	Arrange(ids []string, f tiling.Formation) ([]tiling.Placement, error)
}

var _ Desktop = (*desktop.Desktop)(nil)

// action runs against the active window id, which may be empty.
type action func(d Desktop, active string) error

func snapAction(region snap.Region) action {
	return func(d Desktop, active string) error {
		_, _, err := d.SnapWindow(active, region)
		return err
	}
}

func arrangeAction(f tiling.Formation) action {
	return func(d Desktop, _ string) error {
		_, err := d.Arrange(nil, f)
		return err
	}
}

// actions must cover config.HotkeyActions.
var actions = map[string]action{
	"focus_next": func(d Desktop, _ string) error {
		d.FocusNext()
		return nil
	},
	"snap_left":         snapAction(snap.RegionLeft),
	"snap_right":        snapAction(snap.RegionRight),
	"snap_top":          snapAction(snap.RegionTop),
	"snap_top_left":     snapAction(snap.RegionTopLeft),
	"snap_top_right":    snapAction(snap.RegionTopRight),
	"snap_bottom_left":  snapAction(snap.RegionBottomLeft),
	"snap_bottom_right": snapAction(snap.RegionBottomRight),
	"toggle_maximize": func(d Desktop, active string) error {
		_, err := d.ToggleMaximize(active)
		return err
	},
	"minimize": func(d Desktop, active string) error {
		d.Minimize(active)
		return nil
	},
	"toggle_always_on_top": func(d Desktop, active string) error {
		d.ToggleAlwaysOnTop(active)
		return nil
	},
	"close": func(d Desktop, active string) error {
		d.CloseWindow(active)
		return nil
	},
	"cascade": arrangeAction(tiling.FormationCascade),
	"tile":    arrangeAction(tiling.FormationTile),
}

// Dispatcher resolves action names to desktop calls. It has no X11
// dependency so it can be driven directly.
type Dispatcher struct {
	desk   Desktop
	logger zerolog.Logger
}

func NewDispatcher(desk Desktop, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{desk: desk, logger: logger}
}

// Dispatch runs the named action against the active window. Window actions
// with no active window are no-ops.
func (d *Dispatcher) Dispatch(name string) error {
	fn, ok := actions[name]
	if !ok {
		return fmt.Errorf("unknown hotkey action %q", name)
	}
	active := d.desk.Status().ActiveID
	if err := fn(d.desk, active); err != nil {
		return fmt.Errorf("hotkey %s failed: %w", name, err)
	}
	d.logger.Debug().Str("action", name).Str("window", active).Msg("hotkey")
	return nil
}

// Handler grabs global key sequences on the X11 root window.
type Handler struct {
	conn       *x11.Connection
	dispatcher *Dispatcher
	logger     zerolog.Logger
}

var ignoreModsOnce sync.Once

// NewHandler prepares keyboard handling on conn.
func NewHandler(conn *x11.Connection, dispatcher *Dispatcher, logger zerolog.Logger) *Handler {
	keybind.Initialize(conn.XUtil)
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(conn.XUtil)
	})
	return &Handler{conn: conn, dispatcher: dispatcher, logger: logger}
}

// Register grabs each configured key sequence. Bindings are registered in
// name order so failures are reported deterministically.
func (h *Handler) Register(bindings map[string]string) error {
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, ok := actions[name]; !ok {
			return fmt.Errorf("unknown hotkey action %q", name)
		}
		name := name
		if err := h.RegisterFunc(bindings[name], func() {
			if err := h.dispatcher.Dispatch(name); err != nil {
				h.logger.Warn().Err(err).Msg("hotkey action failed")
			}
		}); err != nil {
			return fmt.Errorf("failed to register %s (%s): %w", name, bindings[name], err)
		}
		h.logger.Info().Str("action", name).Str("keys", bindings[name]).Msg("hotkey registered")
	}
	return nil
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.conn.XUtil, h.conn.Root, keySequence, true)
}

// Run processes X events until ctx is cancelled. It closes the connection
// on return.
func (h *Handler) Run(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		xevent.Main(h.conn.XUtil)
		close(done)
	}()

	select {
	case <-ctx.Done():
		xevent.Quit(h.conn.XUtil)
		// Closing the connection unblocks the pending event read.
		h.conn.Close()
		<-done
		return nil
	case <-done:
		h.conn.Close()
		return fmt.Errorf("x11 event loop exited")
	}
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
