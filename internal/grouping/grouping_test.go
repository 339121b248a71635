package grouping

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/1broseidon/winstate/internal/geom"
	"github.com/1broseidon/winstate/internal/tiling"
	"github.com/1broseidon/winstate/internal/wm"
)

func setup(t *testing.T) (*wm.Registry, *Engine) {
	t.Helper()
	reg := wm.NewRegistry(wm.DefaultZIndexBase, geom.Constraints{Min: geom.Size{W: 100, H: 100}})
	reg.Dispatch(wm.Open{Window: wm.Descriptor{ID: "w1", Geometry: geom.R(100, 100, 600, 400)}})
	reg.Dispatch(wm.Open{Window: wm.Descriptor{ID: "w2", Geometry: geom.R(300, 200, 400, 300)}})
	reg.Dispatch(wm.Open{Window: wm.Descriptor{ID: "w3", Geometry: geom.R(0, 0, 200, 200)}})

	n := 0
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	eng := New(reg,
		WithOffset(10),
		WithClock(func() time.Time { return clock }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	return reg, eng
}

func TestCreateGroup_BoundingLayout(t *testing.T) {
	reg, eng := setup(t)
	g, err := eng.CreateGroup([]string{"w1", "w2"}, "")
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if g.Bounds != geom.R(90, 90, 620, 420) {
		t.Fatalf("bounds = %+v, want (90,90,620,420)", g.Bounds)
	}
	if g.Name != "Group 1" {
		t.Fatalf("name = %q, want default", g.Name)
	}
	if g.ActiveMember != "w1" {
		t.Fatalf("active member = %q, want first id", g.ActiveMember)
	}

	manager, ok := reg.Window(g.ManagerID)
	if !ok {
		t.Fatalf("manager window %q missing", g.ManagerID)
	}
	if manager.Kind != wm.KindTabManager || manager.Geometry != g.Bounds {
		t.Fatalf("manager = %+v", manager)
	}
	if manager.DisplayName != g.Name {
		t.Fatalf("manager display name = %q", manager.DisplayName)
	}

	tab := g.TabGroup()
	want := wm.TabGroup{ID: g.ID, Name: "Group 1", Members: []string{"w1", "w2"}, ActiveWindowID: "w1", Bounds: g.Bounds}
	if diff := cmp.Diff(want, tab); diff != "" {
		t.Fatalf("tab view (-want +got):\n%s", diff)
	}
}

func TestCreateGroup_Rejects(t *testing.T) {
	_, eng := setup(t)
	if _, err := eng.CreateGroup([]string{"w1", "w2"}, "first"); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}

	tests := []struct {
		name string
		ids  []string
	}{
		{"single window", []string{"w3"}},
		{"empty", nil},
		{"duplicate", []string{"w3", "w3"}},
		{"unknown", []string{"w3", "ghost"}},
		{"already grouped", []string{"w2", "w3"}},
		{"tab manager", []string{"w3", "id-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.CreateGroup(tt.ids, "")
			if !errors.Is(err, ErrInvalidGroupMembership) {
				t.Fatalf("err = %v, want ErrInvalidGroupMembership", err)
			}
		})
	}
}

func TestCreateGroup_RejectionLeavesStateUnchanged(t *testing.T) {
	reg, eng := setup(t)
	before := reg.Snapshot()
	if _, err := eng.CreateGroup([]string{"w1"}, "solo"); err == nil {
		t.Fatalf("expected error")
	}
	if diff := cmp.Diff(before, reg.Snapshot()); diff != "" {
		t.Fatalf("state changed (-want +got):\n%s", diff)
	}
}

func TestAddRemoveSwitch(t *testing.T) {
	reg, eng := setup(t)
	g, err := eng.CreateGroup([]string{"w1", "w2"}, "work")
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}

	if err := eng.AddWindow(g.ID, "w3"); err != nil {
		t.Fatalf("AddWindow: %v", err)
	}
	if err := eng.AddWindow(g.ID, "w3"); !errors.Is(err, ErrInvalidGroupMembership) {
		t.Fatalf("re-adding err = %v", err)
	}
	if err := eng.AddWindow("nope", "w3"); !errors.Is(err, ErrUnknownGroup) {
		t.Fatalf("unknown group err = %v", err)
	}
	if err := eng.SwitchTab(g.ID, "w3"); err != nil {
		t.Fatalf("SwitchTab: %v", err)
	}
	if err := eng.SwitchTab(g.ID, "ghost"); !errors.Is(err, ErrInvalidGroupMembership) {
		t.Fatalf("switch to non-member err = %v", err)
	}

	if err := eng.RemoveWindow(g.ID, "w3"); err != nil {
		t.Fatalf("RemoveWindow: %v", err)
	}
	got, _ := reg.Group(g.ID)
	if got.ActiveMember != "w1" {
		t.Fatalf("active after removing active tab = %q, want w1", got.ActiveMember)
	}

	if err := eng.RemoveWindow(g.ID, "w2"); err != nil {
		t.Fatalf("RemoveWindow: %v", err)
	}
	if _, ok := reg.Group(g.ID); ok {
		t.Fatalf("group should dissolve below two members")
	}
	if _, ok := reg.Window(g.ManagerID); ok {
		t.Fatalf("manager window should close with the group")
	}
	if err := eng.RemoveWindow(g.ID, "w1"); !errors.Is(err, ErrUnknownGroup) {
		t.Fatalf("err = %v, want ErrUnknownGroup", err)
	}
}

func TestDestroyGroup(t *testing.T) {
	reg, eng := setup(t)
	g, err := eng.CreateGroup([]string{"w1", "w2"}, "")
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if err := eng.DestroyGroup(g.ID); err != nil {
		t.Fatalf("DestroyGroup: %v", err)
	}
	if err := eng.DestroyGroup(g.ID); !errors.Is(err, ErrUnknownGroup) {
		t.Fatalf("second destroy err = %v", err)
	}
	for _, id := range []string{"w1", "w2", "w3"} {
		if _, ok := reg.Window(id); !ok {
			t.Fatalf("member %q closed with the group", id)
		}
	}
	if _, err := eng.CreateGroup([]string{"w1", "w2"}, ""); err != nil {
		t.Fatalf("former members should be groupable again: %v", err)
	}
}

func TestGroupBounds(t *testing.T) {
	_, eng := setup(t)
	got, ok := eng.GroupBounds([]string{"w1", "w2", "ghost"})
	if !ok || got != geom.R(90, 90, 620, 420) {
		t.Fatalf("GroupBounds = %+v, %v", got, ok)
	}
	if _, ok := eng.GroupBounds([]string{"ghost"}); ok {
		t.Fatalf("no known windows should report false")
	}
}

func TestArrangeAndApply(t *testing.T) {
	reg, eng := setup(t)
	opts := tiling.Options{Origin: geom.Point{X: 0, Y: 0}, CascadeOffset: 20}
	before := reg.Snapshot()

	placements, err := eng.ArrangeWith([]string{"w1", "ghost", "w2"}, tiling.FormationCascade, opts)
	if err != nil {
		t.Fatalf("ArrangeWith: %v", err)
	}
	if diff := cmp.Diff(before, reg.Snapshot()); diff != "" {
		t.Fatalf("Arrange must not mutate state (-want +got):\n%s", diff)
	}
	want := []tiling.Placement{
		{ID: "w1", Rect: geom.R(0, 0, 600, 400)},
		{ID: "w2", Rect: geom.R(20, 20, 400, 300)},
	}
	if diff := cmp.Diff(want, placements); diff != "" {
		t.Fatalf("placements (-want +got):\n%s", diff)
	}

	if n := eng.ApplyArrangement(placements); n != 2 {
		t.Fatalf("applied %d, want 2", n)
	}
	w2, _ := reg.Window("w2")
	if w2.Geometry != geom.R(20, 20, 400, 300) {
		t.Fatalf("w2 geometry = %+v", w2.Geometry)
	}
}

func TestArrange_UnknownFormation(t *testing.T) {
	_, eng := setup(t)
	if _, err := eng.Arrange([]string{"w1"}, tiling.Formation("spiral")); err == nil {
		t.Fatalf("expected error")
	}
}
