package snap

import (
	"testing"

	"github.com/1broseidon/winstate/internal/geom"
)

var desk = geom.Viewport{Width: 1200, Height: 800, ChromeHeight: 64}

func TestDetectRegion(t *testing.T) {
	size := geom.Size{W: 600, H: 400}
	tests := []struct {
		name string
		pos  geom.Point
		want Region
	}{
		{"left edge", geom.Point{X: 0, Y: 100}, RegionLeft},
		{"right edge", geom.Point{X: 600, Y: 100}, RegionRight},
		{"top edge", geom.Point{X: 300, Y: 5}, RegionTop},
		{"top-left corner", geom.Point{X: 0, Y: 0}, RegionTopLeft},
		{"top-right corner", geom.Point{X: 590, Y: 10}, RegionTopRight},
		{"bottom-left corner", geom.Point{X: 10, Y: 330}, RegionBottomLeft},
		{"bottom-right corner", geom.Point{X: 600, Y: 336}, RegionBottomRight},
		{"bottom edge alone is not a region", geom.Point{X: 300, Y: 336}, RegionNone},
		{"middle", geom.Point{X: 300, Y: 150}, RegionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectRegion(tt.pos, size, desk, DefaultThreshold)
			if got != tt.want {
				t.Fatalf("DetectRegion(%+v) = %q, want %q", tt.pos, got, tt.want)
			}
		})
	}
}

func TestDetectRegion_Pure(t *testing.T) {
	pos := geom.Point{X: 3, Y: 120}
	size := geom.Size{W: 600, H: 400}
	first := DetectRegion(pos, size, desk, DefaultThreshold)
	for i := 0; i < 50; i++ {
		if got := DetectRegion(pos, size, desk, DefaultThreshold); got != first {
			t.Fatalf("call %d returned %q, first call %q", i, got, first)
		}
	}
}

func TestLayout_LeftHalfScenario(t *testing.T) {
	region := DetectRegion(geom.Point{X: 0, Y: 100}, geom.Size{W: 600, H: 400}, desk, DefaultThreshold)
	if region != RegionLeft {
		t.Fatalf("expected left region, got %q", region)
	}
	target, ok := Layout(region, desk)
	if !ok {
		t.Fatalf("expected layout for left")
	}
	if target.Rect != geom.R(0, 0, 600, 736) {
		t.Fatalf("left layout = %+v", target.Rect)
	}
}

func TestLayout_TopIsMaximize(t *testing.T) {
	target, ok := Layout(RegionTop, desk)
	if !ok || !target.Maximize {
		t.Fatalf("expected maximize target, got %+v", target)
	}
	if target.Rect != geom.R(0, 0, 1200, 736) {
		t.Fatalf("maximize rect = %+v", target.Rect)
	}
}

func TestLayout_QuartersTileExactly(t *testing.T) {
	viewports := []geom.Viewport{
		desk,
		{Width: 1201, Height: 801, ChromeHeight: 64},
		{Width: 1023, Height: 767, ChromeHeight: 0},
		{Width: 7, Height: 5, ChromeHeight: 0},
	}
	quarters := []Region{RegionTopLeft, RegionTopRight, RegionBottomLeft, RegionBottomRight}
	for _, vp := range viewports {
		usable := vp.Usable()
		var rects []geom.Rect
		var area float64
		for _, q := range quarters {
			target, ok := Layout(q, vp)
			if !ok {
				t.Fatalf("no layout for %q", q)
			}
			rects = append(rects, target.Rect)
			area += target.Rect.Area()
		}
		if area != usable.Area() {
			t.Fatalf("viewport %+v: quarters cover %v, usable %v", vp, area, usable.Area())
		}
		for i := range rects {
			for j := i + 1; j < len(rects); j++ {
				if rects[i].Overlaps(rects[j]) {
					t.Fatalf("viewport %+v: %q overlaps %q", vp, quarters[i], quarters[j])
				}
			}
		}
		bounds, _ := geom.Union(rects...)
		if bounds != usable {
			t.Fatalf("viewport %+v: quarters bound %+v, want %+v", vp, bounds, usable)
		}
	}
}

func TestLayout_HalvesTileExactly(t *testing.T) {
	vp := geom.Viewport{Width: 1201, Height: 800, ChromeHeight: 64}
	left, _ := Layout(RegionLeft, vp)
	right, _ := Layout(RegionRight, vp)
	if left.Rect.Right() != right.Rect.Position.X {
		t.Fatalf("gap between halves: left ends %v, right starts %v", left.Rect.Right(), right.Rect.Position.X)
	}
	if right.Rect.Right() != 1201 {
		t.Fatalf("right half should end at viewport width, got %v", right.Rect.Right())
	}
	if right.Rect.Position.X != 601 {
		t.Fatalf("right half should start at ceil(W/2)=601, got %v", right.Rect.Position.X)
	}
}

func TestLayout_UnknownRegion(t *testing.T) {
	if _, ok := Layout(RegionNone, desk); ok {
		t.Fatalf("expected no layout for empty region")
	}
}

func TestParseRegion(t *testing.T) {
	if r, err := ParseRegion("Top-Left"); err != nil || r != RegionTopLeft {
		t.Fatalf("ParseRegion = %q, %v", r, err)
	}
	if _, err := ParseRegion("bottom"); err == nil {
		t.Fatalf("expected bottom to be rejected")
	}
}
