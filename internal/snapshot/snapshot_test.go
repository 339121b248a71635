package snapshot

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/1broseidon/winstate/internal/geom"
	"github.com/1broseidon/winstate/internal/wm"
)

func sampleState() wm.State {
	s := wm.NewState(1000, geom.Constraints{Min: geom.Size{W: 200, H: 150}})
	pre := geom.Rect{Position: geom.Point{X: 10, Y: 20}, Size: geom.Size{W: 300, H: 200}}
	s.Windows["a"] = wm.Window{
		ID:          "a",
		DisplayName: "Notes",
		Kind:        wm.KindApp,
		Geometry:    geom.Rect{Size: geom.Size{W: 1200, H: 736}},
		ZIndex:      1000,
		State:       wm.StateMaximized,
		PreMaximize: &pre,
	}
	s.Windows["b"] = wm.Window{
		ID:          "b",
		DisplayName: "Terminal",
		Kind:        wm.KindApp,
		Geometry:    geom.Rect{Position: geom.Point{X: 40, Y: 40}, Size: geom.Size{W: 400, H: 300}},
		ZIndex:      1001,
		State:       wm.StateMinimized,
	}
	s.ActiveID = "a"
	s.NextZIndex = 1002
	return s
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "snapshots.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"json":   NewFileStore(filepath.Join(t.TempDir(), "snapshots")),
		"sqlite": sqlite,
	}
}

func TestStores_SaveLoadRoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			want := New("work", sampleState(), time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC))
			if err := store.Save(want); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, err := store.Load("work")
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStores_SaveOverwrites(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			first := New("s", sampleState(), time.Unix(100, 0))
			if err := store.Save(first); err != nil {
				t.Fatalf("save: %v", err)
			}
			empty := New("s", wm.NewState(1000, geom.Constraints{}), time.Unix(200, 0))
			if err := store.Save(empty); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, err := store.Load("s")
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(got.State.Windows) != 0 {
				t.Fatalf("expected overwritten snapshot, got %d windows", len(got.State.Windows))
			}
		})
	}
}

func TestStores_ListAndDelete(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			now := time.Unix(1000, 0)
			for _, n := range []string{"zeta", "alpha"} {
				if err := store.Save(New(n, sampleState(), now)); err != nil {
					t.Fatalf("save %s: %v", n, err)
				}
			}

			infos, err := store.List()
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			want := []Info{
				{Name: "alpha", SavedAt: now.UTC(), Windows: 2},
				{Name: "zeta", SavedAt: now.UTC(), Windows: 2},
			}
			if diff := cmp.Diff(want, infos); diff != "" {
				t.Fatalf("list mismatch (-want +got):\n%s", diff)
			}

			if err := store.Delete("alpha"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := store.Load("alpha"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
			if err := store.Delete("alpha"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound on second delete, got %v", err)
			}
		})
	}
}

func TestStores_MissingAndInvalidNames(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Load("nothing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			for _, bad := range []string{"", "  ", "../escape", "a/b", ".."} {
				if err := store.Save(New(bad, sampleState(), time.Now())); err == nil {
					t.Fatalf("expected invalid name %q to fail", bad)
				}
			}
		})
	}
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "never-created"))
	infos, err := store.List()
	if err != nil || infos != nil {
		t.Fatalf("expected empty list, got %v, %v", infos, err)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	store, err := Open("json", dir)
	if err != nil {
		t.Fatalf("open json: %v", err)
	}
	if _, ok := store.(*FileStore); !ok {
		t.Fatalf("expected FileStore, got %T", store)
	}

	store, err = Open("sqlite", dir)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*SQLiteStore); !ok {
		t.Fatalf("expected SQLiteStore, got %T", store)
	}

	if _, err := Open("bolt", dir); err == nil {
		t.Fatalf("expected unknown backend error")
	}
}

func TestNewClonesState(t *testing.T) {
	state := sampleState()
	snap := New(" named ", state, time.Now())
	state.Windows["c"] = wm.Window{ID: "c"}
	if _, ok := snap.State.Windows["c"]; ok {
		t.Fatalf("snapshot should not share the window map")
	}
	if snap.Name != "named" {
		t.Fatalf("expected trimmed name, got %q", snap.Name)
	}
}
