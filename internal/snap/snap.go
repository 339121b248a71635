// Package snap detects snap regions near viewport edges and resolves them to
// target layouts. Everything here is pure and safe to call on every pointer
// move.
package snap

import (
	"fmt"
	"math"
	"strings"

	"github.com/1broseidon/winstate/internal/geom"
)

// DefaultThreshold is the edge proximity, in pixels, that arms a region.
const DefaultThreshold = 20

// Region names a snap zone.
type Region string

const (
	RegionNone        Region = ""
	RegionTop         Region = "top"
	RegionLeft        Region = "left"
	RegionRight       Region = "right"
	RegionTopLeft     Region = "top-left"
	RegionTopRight    Region = "top-right"
	RegionBottomLeft  Region = "bottom-left"
	RegionBottomRight Region = "bottom-right"
)

// Regions lists every region in resolution order.
var Regions = []Region{
	RegionTopLeft,
	RegionTopRight,
	RegionBottomLeft,
	RegionBottomRight,
	RegionTop,
	RegionLeft,
	RegionRight,
}

// ParseRegion validates a region name.
func ParseRegion(s string) (Region, error) {
	r := Region(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Regions {
		if r == known {
			return r, nil
		}
	}
	return RegionNone, fmt.Errorf("unknown snap region %q", s)
}

// proximity holds the four edge tests for one window geometry.
type proximity struct {
	left, right, top, bottom bool
}

type regionRule struct {
	region Region
	match  func(p proximity) bool
}

// First match wins. There is intentionally no standalone bottom region.
var rules = []regionRule{
	{RegionTopLeft, func(p proximity) bool { return p.top && p.left }},
	{RegionTopRight, func(p proximity) bool { return p.top && p.right }},
	{RegionBottomLeft, func(p proximity) bool { return p.bottom && p.left }},
	{RegionBottomRight, func(p proximity) bool { return p.bottom && p.right }},
	{RegionTop, func(p proximity) bool { return p.top }},
	{RegionLeft, func(p proximity) bool { return p.left }},
	{RegionRight, func(p proximity) bool { return p.right }},
}

// DetectRegion returns the snap region for a window at pos with size, or
// RegionNone.
func DetectRegion(pos geom.Point, size geom.Size, vp geom.Viewport, threshold float64) Region {
	x, y := geom.Sanitize(pos.X), geom.Sanitize(pos.Y)
	w, h := geom.Sanitize(size.W), geom.Sanitize(size.H)
	threshold = geom.Sanitize(threshold)
	width := geom.Sanitize(vp.Width)
	usableHeight := vp.UsableHeight()

	p := proximity{
		left:   x <= threshold,
		right:  x+w >= width-threshold,
		top:    y <= threshold,
		bottom: y+h >= usableHeight-threshold,
	}
	for _, rule := range rules {
		if rule.match(p) {
			return rule.region
		}
	}
	return RegionNone
}

// Target is the layout a region resolves to.
type Target struct {
	Region   Region    `json:"region"`
	Rect     geom.Rect `json:"rect"`
	Maximize bool      `json:"maximize,omitempty"`
}

// splits returns the floor/ceil halves of v such that first+second == v.
func splits(v float64) (first, second float64) {
	first = math.Ceil(v / 2)
	return first, v - first
}

// Layout resolves a region to its target geometry in the usable viewport.
// Halves and quarters use a ceil/floor split per axis so neighbours tile the
// usable rect without gaps or overlap, even for odd sizes.
func Layout(region Region, vp geom.Viewport) (Target, bool) {
	usable := vp.Usable()
	w, h := math.Floor(usable.Size.W), math.Floor(usable.Size.H)
	leftW, rightW := splits(w)
	topH, bottomH := splits(h)

	var r geom.Rect
	switch region {
	case RegionTop:
		return Target{Region: region, Rect: geom.R(0, 0, w, h), Maximize: true}, true
	case RegionLeft:
		r = geom.R(0, 0, leftW, h)
	case RegionRight:
		r = geom.R(leftW, 0, rightW, h)
	case RegionTopLeft:
		r = geom.R(0, 0, leftW, topH)
	case RegionTopRight:
		r = geom.R(leftW, 0, rightW, topH)
	case RegionBottomLeft:
		r = geom.R(0, topH, leftW, bottomH)
	case RegionBottomRight:
		r = geom.R(leftW, topH, rightW, bottomH)
	default:
		return Target{}, false
	}
	return Target{Region: region, Rect: r}, true
}

// Preview combines detection and layout for live feedback. It returns false
// when the geometry is not inside any region.
func Preview(pos geom.Point, size geom.Size, vp geom.Viewport, threshold float64) (Target, bool) {
	region := DetectRegion(pos, size, vp, threshold)
	if region == RegionNone {
		return Target{}, false
	}
	return Layout(region, vp)
}
