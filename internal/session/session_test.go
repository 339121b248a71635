package session

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/1broseidon/winstate/internal/geom"
	"github.com/1broseidon/winstate/internal/resize"
	"github.com/1broseidon/winstate/internal/snap"
	"github.com/1broseidon/winstate/internal/wm"
)

// fakeViewport counts queries so tests can assert freshness.
type fakeViewport struct {
	vp    geom.Viewport
	err   error
	calls int
}

func (f *fakeViewport) Viewport() (geom.Viewport, error) {
	f.calls++
	return f.vp, f.err
}

func setup(t *testing.T) (*wm.Registry, *fakeViewport, *Controller) {
	t.Helper()
	reg := wm.NewRegistry(wm.DefaultZIndexBase, geom.Constraints{
		Min: geom.Size{W: 200, H: 150},
		Max: geom.Size{W: 1200, H: 800},
	})
	reg.Dispatch(wm.Open{Window: wm.Descriptor{ID: "w1", Geometry: geom.R(100, 100, 600, 400)}})
	vp := &fakeViewport{vp: geom.Viewport{Width: 1200, Height: 800, ChromeHeight: 64}}
	return reg, vp, NewController(reg, vp)
}

func TestDrag_SnapLeftCommitsLayout(t *testing.T) {
	reg, _, c := setup(t)

	// Grab the title bar 20px in; moving the pointer to x=20 puts the window at x=0.
	if _, err := c.StartDrag("w1", geom.Point{X: 120, Y: 110}); err != nil {
		t.Fatalf("StartDrag: %v", err)
	}
	p, err := c.OnPointerMove(geom.Point{X: 20, Y: 110})
	if err != nil {
		t.Fatalf("OnPointerMove: %v", err)
	}
	if p.Snap == nil || p.Snap.Region != snap.RegionLeft {
		t.Fatalf("preview snap = %+v, want left", p.Snap)
	}
	if w, _ := reg.Window("w1"); w.Geometry != geom.R(100, 100, 600, 400) {
		t.Fatalf("preview must not commit, geometry = %+v", w.Geometry)
	}

	out, err := c.OnPointerUp(geom.Point{X: 20, Y: 110})
	if err != nil {
		t.Fatalf("OnPointerUp: %v", err)
	}
	if !out.Committed || out.Region != snap.RegionLeft || out.Command != "snap" {
		t.Fatalf("outcome = %+v", out)
	}
	w, _ := reg.Window("w1")
	if w.Geometry != geom.R(0, 0, 600, 736) {
		t.Fatalf("committed geometry = %+v, want (0,0,600,736)", w.Geometry)
	}
	if _, active := c.Current(); active {
		t.Fatalf("session should end after pointer-up")
	}
}

func TestDrag_TopMaximizes(t *testing.T) {
	reg, _, c := setup(t)
	c.StartDrag("w1", geom.Point{X: 400, Y: 110})
	out, err := c.OnPointerUp(geom.Point{X: 400, Y: 15})
	if err != nil {
		t.Fatalf("OnPointerUp: %v", err)
	}
	if out.Command != "maximize" || !out.Committed {
		t.Fatalf("outcome = %+v", out)
	}
	w, _ := reg.Window("w1")
	if w.State != wm.StateMaximized || w.Geometry != geom.R(0, 0, 1200, 736) {
		t.Fatalf("window = %+v", w)
	}
	if w.PreMaximize == nil || *w.PreMaximize != geom.R(100, 100, 600, 400) {
		t.Fatalf("snapshot = %v, want start geometry", w.PreMaximize)
	}
}

func TestDrag_PlainMove(t *testing.T) {
	reg, _, c := setup(t)
	c.StartDrag("w1", geom.Point{X: 150, Y: 120})
	c.OnPointerMove(geom.Point{X: 200, Y: 150})
	out, err := c.OnPointerUp(geom.Point{X: 250, Y: 180})
	if err != nil {
		t.Fatalf("OnPointerUp: %v", err)
	}
	if out.Command != "move" || !out.Committed {
		t.Fatalf("outcome = %+v", out)
	}
	if w, _ := reg.Window("w1"); w.Geometry != geom.R(200, 160, 600, 400) {
		t.Fatalf("geometry = %+v", w.Geometry)
	}
}

func TestCommitFocusesWindow(t *testing.T) {
	reg, _, c := setup(t)
	reg.Dispatch(wm.Open{Window: wm.Descriptor{ID: "w2", Geometry: geom.R(400, 300, 300, 200)}})

	c.StartDrag("w1", geom.Point{X: 150, Y: 120})
	if _, err := c.OnPointerUp(geom.Point{X: 250, Y: 180}); err != nil {
		t.Fatalf("OnPointerUp: %v", err)
	}
	w1, _ := reg.Window("w1")
	w2, _ := reg.Window("w2")
	if got := reg.Snapshot().ActiveID; got != "w1" {
		t.Fatalf("after drag active = %q, want w1", got)
	}
	if w1.ZIndex <= w2.ZIndex {
		t.Fatalf("dragged window should be in front: w1.z=%d w2.z=%d", w1.ZIndex, w2.ZIndex)
	}

	reg.Dispatch(wm.Focus{ID: "w2"})
	c.StartResize("w1", resize.DirE, geom.Point{X: 800, Y: 300})
	if _, err := c.OnPointerUp(geom.Point{X: 850, Y: 300}); err != nil {
		t.Fatalf("OnPointerUp: %v", err)
	}
	if got := reg.Snapshot().ActiveID; got != "w1" {
		t.Fatalf("after resize active = %q, want w1", got)
	}
}

func TestDrag_FromMaximizedRestoresSize(t *testing.T) {
	reg, _, c := setup(t)
	reg.Dispatch(wm.Maximize{ID: "w1", Viewport: geom.Viewport{Width: 1200, Height: 800, ChromeHeight: 64}})

	// Grabbed at the middle of the title bar; the restored window stays
	// centred under the pointer.
	p, err := c.StartDrag("w1", geom.Point{X: 600, Y: 10})
	if err != nil {
		t.Fatalf("StartDrag: %v", err)
	}
	if p.Geometry != geom.R(300, 0, 600, 400) {
		t.Fatalf("start preview = %+v, want restored size under pointer", p.Geometry)
	}
	p, _ = c.OnPointerMove(geom.Point{X: 600, Y: 300})
	if p.Snap != nil {
		t.Fatalf("unexpected snap preview %+v", p.Snap)
	}

	out, err := c.OnPointerUp(geom.Point{X: 600, Y: 300})
	if err != nil {
		t.Fatalf("OnPointerUp: %v", err)
	}
	if out.Command != "move" || !out.Committed || out.Region != snap.RegionNone {
		t.Fatalf("outcome = %+v", out)
	}
	w, _ := reg.Window("w1")
	if w.State != wm.StateNormal || w.PreMaximize != nil {
		t.Fatalf("window should no longer be maximized: %+v", w)
	}
	if w.Geometry != geom.R(300, 290, 600, 400) {
		t.Fatalf("geometry = %+v, want (300,290,600,400)", w.Geometry)
	}
}

func TestDrag_FromMaximizedCancelKeepsMaximized(t *testing.T) {
	reg, _, c := setup(t)
	reg.Dispatch(wm.Maximize{ID: "w1", Viewport: geom.Viewport{Width: 1200, Height: 800, ChromeHeight: 64}})
	before := reg.Snapshot()

	c.StartDrag("w1", geom.Point{X: 600, Y: 10})
	c.OnPointerMove(geom.Point{X: 600, Y: 300})
	if p := c.Cancel(); p.Geometry != geom.R(0, 0, 1200, 736) {
		t.Fatalf("cancel geometry = %+v, want maximized rect", p.Geometry)
	}
	if diff := cmp.Diff(before, reg.Snapshot()); diff != "" {
		t.Fatalf("state changed (-want +got):\n%s", diff)
	}
}

func TestDrag_BelowThresholdCommitsNothing(t *testing.T) {
	reg, _, c := setup(t)
	before := reg.Snapshot()
	c.StartDrag("w1", geom.Point{X: 150, Y: 120})
	out, err := c.OnPointerUp(geom.Point{X: 152, Y: 121})
	if err != nil {
		t.Fatalf("OnPointerUp: %v", err)
	}
	if out.Committed || out.Command != "" {
		t.Fatalf("click should not commit, got %+v", out)
	}
	if diff := cmp.Diff(before, reg.Snapshot()); diff != "" {
		t.Fatalf("state changed (-want +got):\n%s", diff)
	}
}

func TestResize_CommitsOnPointerUpOnly(t *testing.T) {
	reg, _, c := setup(t)
	if _, err := c.StartResize("w1", resize.DirSE, geom.Point{X: 700, Y: 500}); err != nil {
		t.Fatalf("StartResize: %v", err)
	}
	p, _ := c.OnPointerMove(geom.Point{X: 750, Y: 530})
	if p.Geometry != geom.R(100, 100, 650, 430) {
		t.Fatalf("preview = %+v", p.Geometry)
	}
	if w, _ := reg.Window("w1"); w.Geometry != geom.R(100, 100, 600, 400) {
		t.Fatalf("resize preview leaked into registry: %+v", w.Geometry)
	}
	out, err := c.OnPointerUp(geom.Point{X: 750, Y: 530})
	if err != nil {
		t.Fatalf("OnPointerUp: %v", err)
	}
	if !out.Committed || out.Geometry != geom.R(100, 100, 650, 430) {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestResize_LastUpdateWins(t *testing.T) {
	_, _, c := setup(t)
	c.StartResize("w1", resize.DirE, geom.Point{X: 700, Y: 300})
	c.OnPointerMove(geom.Point{X: 900, Y: 300})
	c.OnPointerMove(geom.Point{X: 650, Y: 300})
	p, _ := c.OnPointerMove(geom.Point{X: 720, Y: 300})
	if p.Geometry.Size.W != 620 {
		t.Fatalf("width = %v, want 620", p.Geometry.Size.W)
	}
}

func TestCancel_RestoresStartExactly(t *testing.T) {
	tests := []struct {
		name  string
		start func(c *Controller) error
	}{
		{"drag", func(c *Controller) error {
			_, err := c.StartDrag("w1", geom.Point{X: 120, Y: 110})
			return err
		}},
		{"resize", func(c *Controller) error {
			_, err := c.StartResize("w1", resize.DirNW, geom.Point{X: 100, Y: 100})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, _, c := setup(t)
			before := reg.Snapshot()
			if err := tt.start(c); err != nil {
				t.Fatalf("start: %v", err)
			}
			c.OnPointerMove(geom.Point{X: 3, Y: 7})
			c.OnPointerMove(geom.Point{X: 333, Y: 222})

			p := c.Cancel()
			if p.Geometry != geom.R(100, 100, 600, 400) {
				t.Fatalf("cancel geometry = %+v", p.Geometry)
			}
			if diff := cmp.Diff(before, reg.Snapshot()); diff != "" {
				t.Fatalf("registry changed (-want +got):\n%s", diff)
			}
			if _, err := c.OnPointerMove(geom.Point{}); !errors.Is(err, ErrNoSession) {
				t.Fatalf("err after cancel = %v", err)
			}
		})
	}
}

func TestSessionsAreExclusive(t *testing.T) {
	reg, _, c := setup(t)
	reg.Dispatch(wm.Open{Window: wm.Descriptor{ID: "w2", Geometry: geom.R(0, 0, 300, 300)}})

	if _, err := c.StartDrag("w1", geom.Point{}); err != nil {
		t.Fatalf("StartDrag: %v", err)
	}
	if _, err := c.StartResize("w2", resize.DirE, geom.Point{}); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("err = %v, want ErrSessionActive", err)
	}
	if _, err := c.StartDrag("w2", geom.Point{}); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("err = %v, want ErrSessionActive", err)
	}
	c.Cancel()
	if _, err := c.StartResize("w2", resize.DirE, geom.Point{}); err != nil {
		t.Fatalf("StartResize after cancel: %v", err)
	}
}

func TestStartErrors(t *testing.T) {
	reg, _, c := setup(t)
	if _, err := c.StartDrag("ghost", geom.Point{}); !errors.Is(err, ErrWindowUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if _, err := c.StartResize("w1", resize.DirNone, geom.Point{}); !errors.Is(err, resize.ErrInvalidDirection) {
		t.Fatalf("err = %v, want ErrInvalidDirection", err)
	}
	reg.Dispatch(wm.Minimize{ID: "w1"})
	if _, err := c.StartDrag("w1", geom.Point{}); !errors.Is(err, ErrWindowUnavailable) {
		t.Fatalf("minimized window err = %v", err)
	}
	if _, err := c.OnPointerUp(geom.Point{}); !errors.Is(err, ErrNoSession) {
		t.Fatalf("pointer-up without session err = %v", err)
	}
	if p := c.Cancel(); p.Mode != ModeIdle {
		t.Fatalf("cancel while idle = %+v", p)
	}
}

func TestViewportQueriedFresh(t *testing.T) {
	reg, vp, c := setup(t)
	c.StartDrag("w1", geom.Point{X: 400, Y: 110})
	c.OnPointerMove(geom.Point{X: 400, Y: 300})
	calls := vp.calls

	// The host shrinks mid-drag; commit must use the new size.
	vp.vp = geom.Viewport{Width: 1000, Height: 700, ChromeHeight: 50}
	if _, err := c.OnPointerUp(geom.Point{X: 400, Y: 15}); err != nil {
		t.Fatalf("OnPointerUp: %v", err)
	}
	if vp.calls <= calls {
		t.Fatalf("viewport was not queried on commit")
	}
	if w, _ := reg.Window("w1"); w.Geometry != geom.R(0, 0, 1000, 650) {
		t.Fatalf("geometry = %+v, want fresh usable rect", w.Geometry)
	}
}

func TestViewportErrorReusesLastKnown(t *testing.T) {
	reg, vp, c := setup(t)
	c.StartDrag("w1", geom.Point{X: 400, Y: 110})
	c.OnPointerMove(geom.Point{X: 400, Y: 300})

	vp.err = errors.New("display gone")
	vp.vp = geom.Viewport{}
	c.OnPointerUp(geom.Point{X: 400, Y: 15})
	if w, _ := reg.Window("w1"); w.Geometry != geom.R(0, 0, 1200, 736) {
		t.Fatalf("geometry = %+v", w.Geometry)
	}
}
