package geom

import "math"

// Viewport describes the host surface windows live on. ChromeHeight is the
// vertical space reserved for persistent UI such as a taskbar.
type Viewport struct {
	Width        float64 `json:"width" yaml:"width"`
	Height       float64 `json:"height" yaml:"height"`
	ChromeHeight float64 `json:"chrome_height" yaml:"chrome_height"`
}

// UsableHeight returns Height minus ChromeHeight, never negative.
func (v Viewport) UsableHeight() float64 {
	return math.Max(0, Sanitize(v.Height)-Sanitize(v.ChromeHeight))
}

// Usable returns the rect windows may be maximized or snapped into.
func (v Viewport) Usable() Rect {
	return R(0, 0, math.Max(0, Sanitize(v.Width)), v.UsableHeight())
}

// Constraints bounds a window's size. A zero Max component is unbounded.
type Constraints struct {
	Min Size `json:"min" yaml:"min"`
	Max Size `json:"max" yaml:"max"`
}

// Or returns c with zero components filled from fallback.
func (c Constraints) Or(fallback Constraints) Constraints {
	if c.Min.W <= 0 {
		c.Min.W = fallback.Min.W
	}
	if c.Min.H <= 0 {
		c.Min.H = fallback.Min.H
	}
	if c.Max.W <= 0 {
		c.Max.W = fallback.Max.W
	}
	if c.Max.H <= 0 {
		c.Max.H = fallback.Max.H
	}
	return c
}

// ClampSize clamps s into [Min, Max] per axis. Max wins when Min > Max.
func (c Constraints) ClampSize(s Size) Size {
	return Size{
		W: clampAxis(Sanitize(s.W), c.Min.W, c.Max.W),
		H: clampAxis(Sanitize(s.H), c.Min.H, c.Max.H),
	}
}

func clampAxis(v, lo, hi float64) float64 {
	if lo > 0 && v < lo {
		v = lo
	}
	if hi > 0 && v > hi {
		v = hi
	}
	if v < 0 {
		v = 0
	}
	return v
}

// ClampPosition keeps a position on-screen at the near edges only; the far
// bound is not enforced.
func ClampPosition(p Point) Point {
	return Point{
		X: math.Max(0, Sanitize(p.X)),
		Y: math.Max(0, Sanitize(p.Y)),
	}
}

// Clamp applies ClampSize and ClampPosition to r.
func (c Constraints) Clamp(r Rect) Rect {
	return Rect{Position: ClampPosition(r.Position), Size: c.ClampSize(r.Size)}
}
