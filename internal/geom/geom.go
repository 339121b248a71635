package geom

import "math"

// Point is a position in viewport coordinates.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Size is a width/height pair.
type Size struct {
	W float64 `json:"w" yaml:"w"`
	H float64 `json:"h" yaml:"h"`
}

// Rect represents a window position and size
type Rect struct {
	Position Point `json:"position" yaml:"position"`
	Size     Size  `json:"size" yaml:"size"`
}

// R is shorthand for building a Rect from its four components.
func R(x, y, w, h float64) Rect {
	return Rect{Position: Point{X: x, Y: y}, Size: Size{W: w, H: h}}
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.Position.X + r.Size.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Position.Y + r.Size.H }

// Area returns the rectangle area.
func (r Rect) Area() float64 { return r.Size.W * r.Size.H }

// Contains reports whether p lies inside r (right/bottom edges exclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Position.X && p.X < r.Right() &&
		p.Y >= r.Position.Y && p.Y < r.Bottom()
}

// Intersect returns the overlapping region of r and o, or a zero Rect.
func (r Rect) Intersect(o Rect) Rect {
	x1 := math.Max(r.Position.X, o.Position.X)
	y1 := math.Max(r.Position.Y, o.Position.Y)
	x2 := math.Min(r.Right(), o.Right())
	y2 := math.Min(r.Bottom(), o.Bottom())
	if x2 <= x1 || y2 <= y1 {
		return Rect{}
	}
	return R(x1, y1, x2-x1, y2-y1)
}

// Overlaps reports whether r and o share a region of positive area.
func (r Rect) Overlaps(o Rect) bool {
	return r.Intersect(o).Area() > 0
}

// Union returns the axis-aligned bounding box of all rects.
// It returns a zero Rect and false when rects is empty.
func Union(rects ...Rect) (Rect, bool) {
	if len(rects) == 0 {
		return Rect{}, false
	}
	minX, minY := rects[0].Position.X, rects[0].Position.Y
	maxX, maxY := rects[0].Right(), rects[0].Bottom()
	for _, r := range rects[1:] {
		minX = math.Min(minX, r.Position.X)
		minY = math.Min(minY, r.Position.Y)
		maxX = math.Max(maxX, r.Right())
		maxY = math.Max(maxY, r.Bottom())
	}
	return R(minX, minY, maxX-minX, maxY-minY), true
}

// Expand grows r by margin on every side.
func (r Rect) Expand(margin float64) Rect {
	return R(r.Position.X-margin, r.Position.Y-margin, r.Size.W+2*margin, r.Size.H+2*margin)
}

// Sanitize maps NaN and ±Inf to 0 so downstream math stays finite.
func Sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Sanitized returns r with every component passed through Sanitize.
func (r Rect) Sanitized() Rect {
	return R(
		Sanitize(r.Position.X),
		Sanitize(r.Position.Y),
		Sanitize(r.Size.W),
		Sanitize(r.Size.H),
	)
}
