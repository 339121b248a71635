package desktop

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/1broseidon/winstate/internal/config"
	"github.com/1broseidon/winstate/internal/geom"
	"github.com/1broseidon/winstate/internal/session"
	"github.com/1broseidon/winstate/internal/snap"
	"github.com/1broseidon/winstate/internal/snapshot"
	"github.com/1broseidon/winstate/internal/tiling"
	"github.com/1broseidon/winstate/internal/wm"
)

func newTestDesktop(t *testing.T) *Desktop {
	t.Helper()
	cfg := config.DefaultConfig()
	d, err := New(cfg,
		WithStore(snapshot.NewFileStore(filepath.Join(t.TempDir(), "snapshots"))),
		WithClock(func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }),
	)
	if err != nil {
		t.Fatalf("new desktop: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func openWindow(d *Desktop, id string, r geom.Rect) {
	d.Open(wm.Descriptor{ID: id, DisplayName: id, Geometry: r})
}

func TestSnapWindow(t *testing.T) {
	d := newTestDesktop(t)
	openWindow(d, "a", geom.R(100, 100, 400, 300))

	target, changed, err := d.SnapWindow("a", snap.RegionRight)
	if err != nil || !changed {
		t.Fatalf("snap right: changed=%v err=%v", changed, err)
	}
	want := geom.R(600, 0, 600, 736)
	if target.Rect != want {
		t.Fatalf("target = %+v, want %+v", target.Rect, want)
	}
	w, _ := d.Registry().Window("a")
	if w.Geometry != want {
		t.Fatalf("geometry = %+v, want %+v", w.Geometry, want)
	}

	target, _, err = d.SnapWindow("a", snap.RegionTop)
	if err != nil || !target.Maximize {
		t.Fatalf("snap top: %+v err=%v", target, err)
	}
	w, _ = d.Registry().Window("a")
	if w.State != wm.StateMaximized || w.Geometry != geom.R(0, 0, 1200, 736) {
		t.Fatalf("expected maximized window, got %+v", w)
	}

	if _, _, err := d.SnapWindow("a", snap.Region("bottom")); err == nil {
		t.Fatalf("expected bottom region to be rejected")
	}
	if _, changed, err := d.SnapWindow("ghost", snap.RegionLeft); err != nil || changed {
		t.Fatalf("unknown window should be a silent no-op, changed=%v err=%v", changed, err)
	}
}

func TestToggleMaximizeUsesCurrentViewport(t *testing.T) {
	d := newTestDesktop(t)
	openWindow(d, "a", geom.R(10, 10, 300, 200))

	cfg := config.DefaultConfig()
	cfg.Viewport = geom.Viewport{Width: 1600, Height: 900, ChromeHeight: 100}
	d.ApplyConfig(cfg)

	if changed, err := d.ToggleMaximize("a"); err != nil || !changed {
		t.Fatalf("maximize: changed=%v err=%v", changed, err)
	}
	w, _ := d.Registry().Window("a")
	if w.Geometry != geom.R(0, 0, 1600, 800) {
		t.Fatalf("expected new viewport geometry, got %+v", w.Geometry)
	}

	if changed, err := d.ToggleMaximize("a"); err != nil || !changed {
		t.Fatalf("restore: changed=%v err=%v", changed, err)
	}
	w, _ = d.Registry().Window("a")
	if w.Geometry != geom.R(10, 10, 300, 200) {
		t.Fatalf("expected exact restore, got %+v", w.Geometry)
	}
}

func TestArrangeAllVisible(t *testing.T) {
	d := newTestDesktop(t)
	openWindow(d, "a", geom.R(500, 500, 300, 200))
	openWindow(d, "b", geom.R(500, 500, 300, 200))
	openWindow(d, "c", geom.R(500, 500, 300, 200))
	d.Minimize("b")

	placements, err := d.Arrange(nil, tiling.FormationCascade)
	if err != nil {
		t.Fatalf("arrange: %v", err)
	}
	want := []tiling.Placement{
		{ID: "a", Rect: geom.R(40, 40, 300, 200)},
		{ID: "c", Rect: geom.R(70, 70, 300, 200)},
	}
	if diff := cmp.Diff(want, placements); diff != "" {
		t.Fatalf("placements mismatch (-want +got):\n%s", diff)
	}
	w, _ := d.Registry().Window("c")
	if w.Geometry != want[1].Rect {
		t.Fatalf("arrangement not committed: %+v", w.Geometry)
	}

	if _, err := d.Arrange([]string{"a"}, tiling.Formation("spiral")); err == nil {
		t.Fatalf("expected unknown formation error")
	}
}

func TestSnapshotSaveLoad(t *testing.T) {
	d := newTestDesktop(t)
	openWindow(d, "a", geom.R(0, 0, 300, 200))
	openWindow(d, "b", geom.R(50, 50, 300, 200))
	if _, err := d.Grouping().CreateGroup([]string{"a", "b"}, "pair"); err != nil {
		t.Fatalf("create group: %v", err)
	}
	saved := d.Registry().Snapshot()

	info, err := d.SaveSnapshot("work")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if info.Windows != 3 || info.Groups != 1 {
		t.Fatalf("unexpected info %+v", info)
	}

	d.CloseWindow("a")
	d.CloseWindow("b")
	if n := len(d.Registry().Snapshot().Windows); n != 0 {
		t.Fatalf("expected group dissolution to close the manager, %d windows left", n)
	}

	if _, err := d.LoadSnapshot("work"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(saved, d.Registry().Snapshot()); diff != "" {
		t.Fatalf("state mismatch after load (-want +got):\n%s", diff)
	}

	if _, err := d.LoadSnapshot("missing"); !errors.Is(err, snapshot.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	infos, err := d.ListSnapshots()
	if err != nil || len(infos) != 1 || infos[0].Name != "work" {
		t.Fatalf("list: %+v err=%v", infos, err)
	}
	if err := d.DeleteSnapshot("work"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestLoadSnapshotCancelsSession(t *testing.T) {
	d := newTestDesktop(t)
	openWindow(d, "a", geom.R(100, 100, 300, 200))
	if _, err := d.SaveSnapshot("s"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := d.Sessions().StartDrag("a", geom.Point{X: 150, Y: 110}); err != nil {
		t.Fatalf("start drag: %v", err)
	}
	if _, err := d.LoadSnapshot("s"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, active := d.Sessions().Current(); active {
		t.Fatalf("expected session to be cancelled")
	}
	if _, err := d.Sessions().OnPointerUp(geom.Point{}); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestAutosaveOnlyWhenDirty(t *testing.T) {
	d := newTestDesktop(t)

	if saved, err := d.Autosave(); err != nil || saved {
		t.Fatalf("clean desktop should not autosave: saved=%v err=%v", saved, err)
	}
	if restored, err := d.RestoreAutosave(); err != nil || restored {
		t.Fatalf("missing autosave should be skipped: restored=%v err=%v", restored, err)
	}

	openWindow(d, "a", geom.R(0, 0, 300, 200))
	if saved, err := d.Autosave(); err != nil || !saved {
		t.Fatalf("dirty desktop should autosave: saved=%v err=%v", saved, err)
	}
	if saved, _ := d.Autosave(); saved {
		t.Fatalf("second autosave should be skipped")
	}

	d.CloseWindow("a")
	if restored, err := d.RestoreAutosave(); err != nil || !restored {
		t.Fatalf("restore: restored=%v err=%v", restored, err)
	}
	if _, ok := d.Registry().Window("a"); !ok {
		t.Fatalf("expected window a after restore")
	}
}

// racingStore runs during before the first Save reaches the inner store.
type racingStore struct {
	snapshot.Store
	during func()
}

func (s *racingStore) Save(snap snapshot.Snapshot) error {
	if s.during != nil {
		fn := s.during
		s.during = nil
		fn()
	}
	return s.Store.Save(snap)
}

func TestAutosaveKeepsChangesMadeDuringSave(t *testing.T) {
	store := &racingStore{Store: snapshot.NewFileStore(filepath.Join(t.TempDir(), "snapshots"))}
	d, err := New(config.DefaultConfig(), WithStore(store))
	if err != nil {
		t.Fatalf("new desktop: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	openWindow(d, "w1", geom.R(100, 100, 300, 200))
	store.during = func() { d.Move("w1", geom.Point{X: 7, Y: 7}) }

	if saved, err := d.Autosave(); err != nil || !saved {
		t.Fatalf("first autosave: saved=%v err=%v", saved, err)
	}
	if !d.Dirty() {
		t.Fatalf("move during save must leave the desktop dirty")
	}
	if saved, err := d.Autosave(); err != nil || !saved {
		t.Fatalf("second autosave: saved=%v err=%v", saved, err)
	}
	if d.Dirty() {
		t.Fatalf("expected clean desktop after second autosave")
	}

	snap, err := store.Load(d.Config().Snapshot.AutosaveName)
	if err != nil {
		t.Fatalf("load autosave: %v", err)
	}
	if got := snap.State.Windows["w1"].Geometry.Position; got != (geom.Point{X: 7, Y: 7}) {
		t.Fatalf("stored w1 at %+v, want the moved position", got)
	}
}

func TestLoadSnapshotLeavesDesktopClean(t *testing.T) {
	d := newTestDesktop(t)
	openWindow(d, "a", geom.R(0, 0, 300, 200))
	if _, err := d.SaveSnapshot("one"); err != nil {
		t.Fatalf("save: %v", err)
	}
	d.CloseWindow("a")
	if !d.Dirty() {
		t.Fatalf("close should dirty the desktop")
	}
	if _, err := d.LoadSnapshot("one"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if d.Dirty() {
		t.Fatalf("loaded state should not be dirty")
	}
}

func TestStatus(t *testing.T) {
	d := newTestDesktop(t)
	openWindow(d, "a", geom.R(0, 0, 300, 200))
	openWindow(d, "b", geom.R(0, 0, 300, 200))
	d.Minimize("a")

	st := d.Status()
	want := Status{
		Windows:  2,
		Visible:  1,
		ActiveID: "b",
		Viewport: geom.Viewport{Width: 1200, Height: 800, ChromeHeight: 64},
		Backend:  config.BackendStatic,
		Session:  session.ModeIdle,
		Dirty:    true,
	}
	if diff := cmp.Diff(want, st); diff != "" {
		t.Fatalf("status mismatch (-want +got):\n%s", diff)
	}
}
