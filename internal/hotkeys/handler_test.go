package hotkeys

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/1broseidon/winstate/internal/config"
	"github.com/1broseidon/winstate/internal/desktop"
	"github.com/1broseidon/winstate/internal/geom"
	"github.com/1broseidon/winstate/internal/snap"
	"github.com/1broseidon/winstate/internal/snapshot"
	"github.com/1broseidon/winstate/internal/tiling"
	"github.com/1broseidon/winstate/internal/wm"
)

func newDesktop(t *testing.T) *desktop.Desktop {
	t.Helper()
	d, err := desktop.New(config.DefaultConfig(), desktop.WithStore(snapshot.NewFileStore(t.TempDir())))
	if err != nil {
		t.Fatalf("new desktop: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestEveryConfigActionHasHandler(t *testing.T) {
	for _, name := range config.HotkeyActions {
		if _, ok := actions[name]; !ok {
			t.Fatalf("config action %q has no handler", name)
		}
	}
	if len(actions) != len(config.HotkeyActions) {
		t.Fatalf("handlers (%d) and config actions (%d) differ", len(actions), len(config.HotkeyActions))
	}
}

func TestDispatchActsOnActiveWindow(t *testing.T) {
	d := newDesktop(t)
	d.Open(wm.Descriptor{ID: "a", Geometry: geom.R(100, 100, 300, 200)})
	d.Open(wm.Descriptor{ID: "b", Geometry: geom.R(200, 150, 300, 200)})
	disp := NewDispatcher(d, zerolog.Nop())

	if err := disp.Dispatch("snap_left"); err != nil {
		t.Fatalf("snap_left: %v", err)
	}
	b, _ := d.Registry().Window("b")
	if b.Geometry != geom.R(0, 0, 600, 736) {
		t.Fatalf("expected active window snapped left, got %+v", b.Geometry)
	}
	a, _ := d.Registry().Window("a")
	if a.Geometry != geom.R(100, 100, 300, 200) {
		t.Fatalf("inactive window must not move, got %+v", a.Geometry)
	}

	if err := disp.Dispatch("toggle_maximize"); err != nil {
		t.Fatalf("toggle_maximize: %v", err)
	}
	if b, _ = d.Registry().Window("b"); b.State != wm.StateMaximized {
		t.Fatalf("expected maximized, got %v", b.State)
	}

	if err := disp.Dispatch("focus_next"); err != nil {
		t.Fatalf("focus_next: %v", err)
	}
	if got := d.Status().ActiveID; got != "a" {
		t.Fatalf("focus_next: active = %q, want a", got)
	}

	if err := disp.Dispatch("minimize"); err != nil {
		t.Fatalf("minimize: %v", err)
	}
	if a, _ = d.Registry().Window("a"); a.State != wm.StateMinimized {
		t.Fatalf("expected a minimized, got %v", a.State)
	}
}

func TestDispatchWithoutActiveWindow(t *testing.T) {
	d := newDesktop(t)
	disp := NewDispatcher(d, zerolog.Nop())
	for _, name := range []string{"snap_left", "close", "toggle_always_on_top", "cascade"} {
		if err := disp.Dispatch(name); err != nil {
			t.Fatalf("%s with no windows: %v", name, err)
		}
	}
}

func TestDispatchUnknownAction(t *testing.T) {
	disp := NewDispatcher(newDesktop(t), zerolog.Nop())
	if err := disp.Dispatch("launch_terminal"); err == nil {
		t.Fatalf("expected unknown action error")
	}
}

type failingDesktop struct {
	*desktop.Desktop
}

var errArrange = errors.New("arrange failed")

func (failingDesktop) Arrange([]string, tiling.Formation) ([]tiling.Placement, error) {
	return nil, errArrange
}

func (failingDesktop) SnapWindow(string, snap.Region) (snap.Target, bool, error) {
	return snap.Target{}, false, errArrange
}

func TestDispatchWrapsErrors(t *testing.T) {
	disp := NewDispatcher(failingDesktop{newDesktop(t)}, zerolog.Nop())
	for _, name := range []string{"tile", "snap_right"} {
		if err := disp.Dispatch(name); !errors.Is(err, errArrange) {
			t.Fatalf("%s: expected wrapped error, got %v", name, err)
		}
	}
}
