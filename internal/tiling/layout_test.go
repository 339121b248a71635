package tiling

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/1broseidon/winstate/internal/geom"
)

func items(n int) []Item {
	out := make([]Item, n)
	for i := range out {
		out[i] = Item{ID: string(rune('a' + i)), Size: geom.Size{W: 300, H: 200}}
	}
	return out
}

func TestCalculateGrid(t *testing.T) {
	tests := []struct {
		n          int
		rows, cols int
	}{
		{0, 0, 0},
		{1, 1, 1},
		{2, 1, 2},
		{3, 2, 2},
		{4, 2, 2},
		{5, 2, 3},
		{7, 3, 3},
		{10, 3, 4},
	}
	for _, tt := range tests {
		rows, cols := CalculateGrid(tt.n)
		if rows != tt.rows || cols != tt.cols {
			t.Fatalf("CalculateGrid(%d) = %d,%d want %d,%d", tt.n, rows, cols, tt.rows, tt.cols)
		}
	}
}

func TestArrange_Cascade(t *testing.T) {
	opts := Options{Origin: geom.Point{X: 10, Y: 20}, CascadeOffset: 30}
	got, err := Arrange(items(3), FormationCascade, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Placement{
		{ID: "a", Rect: geom.R(10, 20, 300, 200)},
		{ID: "b", Rect: geom.R(40, 50, 300, 200)},
		{ID: "c", Rect: geom.R(70, 80, 300, 200)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("cascade mismatch (-want +got):\n%s", diff)
	}
}

func TestArrange_TileRowMajor(t *testing.T) {
	opts := Options{Cell: geom.Size{W: 100, H: 50}, Gap: 10}
	got, err := Arrange(items(5), FormationTile, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 5 windows: cols=3, rows=2.
	want := []Placement{
		{ID: "a", Rect: geom.R(0, 0, 100, 50)},
		{ID: "b", Rect: geom.R(110, 0, 100, 50)},
		{ID: "c", Rect: geom.R(220, 0, 100, 50)},
		{ID: "d", Rect: geom.R(0, 60, 100, 50)},
		{ID: "e", Rect: geom.R(110, 60, 100, 50)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tile mismatch (-want +got):\n%s", diff)
	}
}

func TestArrange_StackSharesY(t *testing.T) {
	opts := Options{Origin: geom.Point{X: 5, Y: 70}, StackOffset: 25}
	got, err := Arrange(items(4), FormationStack, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, p := range got {
		if p.Rect.Position.Y != 70 {
			t.Fatalf("placement %d y = %v, want 70", i, p.Rect.Position.Y)
		}
		if want := 5 + float64(i)*25; p.Rect.Position.X != want {
			t.Fatalf("placement %d x = %v, want %v", i, p.Rect.Position.X, want)
		}
		if p.Rect.Size != (geom.Size{W: 300, H: 200}) {
			t.Fatalf("stack must keep sizes, got %+v", p.Rect.Size)
		}
	}
}

func TestArrange_Errors(t *testing.T) {
	if _, err := Arrange(items(2), Formation("spiral"), DefaultOptions()); err == nil {
		t.Fatalf("expected error for unknown formation")
	}
	if _, err := Arrange(items(2), FormationTile, Options{}); err == nil {
		t.Fatalf("expected error for zero cell size")
	}
	got, err := Arrange(nil, FormationTile, Options{})
	if err != nil || got != nil {
		t.Fatalf("empty input should yield nothing, got %v, %v", got, err)
	}
}

func TestArrange_IsPure(t *testing.T) {
	in := items(3)
	before := append([]Item(nil), in...)
	if _, err := Arrange(in, FormationCascade, DefaultOptions()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(before, in); diff != "" {
		t.Fatalf("input mutated (-want +got):\n%s", diff)
	}
}

func TestParseFormation(t *testing.T) {
	if f, err := ParseFormation(" Tile "); err != nil || f != FormationTile {
		t.Fatalf("ParseFormation = %q, %v", f, err)
	}
	if _, err := ParseFormation("grid"); err == nil {
		t.Fatalf("expected error")
	}
}
