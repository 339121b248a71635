package resize

import (
	"fmt"

	"github.com/1broseidon/winstate/internal/geom"
)

// Calculate returns the geometry produced by dragging the dir handle of a
// window that started at start by (dx, dy).
//
// Width and height are clamped to c; position is clamped to >= 0 on each
// axis. The far screen edge is not enforced. Non-finite inputs are treated
// as zero. An invalid direction returns start unchanged with
// ErrInvalidDirection; any internal fault also yields start unchanged.
func Calculate(dir Direction, dx, dy float64, start geom.Rect, c geom.Constraints) (out geom.Rect, err error) {
	e, ok := directionEdges[dir]
	if !ok {
		return start, fmt.Errorf("%w: %d", ErrInvalidDirection, int(dir))
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = start, nil
		}
	}()

	dx = geom.Sanitize(dx)
	dy = geom.Sanitize(dy)
	base := start.Sanitized()

	w, h := base.Size.W, base.Size.H
	x, y := base.Position.X, base.Position.Y

	if e.right {
		w += dx
	}
	if e.left {
		w -= dx
		x += dx
	}
	if e.bottom {
		h += dy
	}
	if e.top {
		h -= dy
		y += dy
	}

	return c.Clamp(geom.R(x, y, w, h)), nil
}

// Session tracks one in-progress resize drag. It never mutates anything
// outside itself; Cancel hands back the exact start geometry.
type Session struct {
	Direction    Direction
	StartPointer geom.Point
	Start        geom.Rect
	Current      geom.Rect
	Constraints  geom.Constraints
	Active       bool
}

// NewSession starts a resize session. It fails for invalid directions.
func NewSession(dir Direction, pointer geom.Point, start geom.Rect, c geom.Constraints) (*Session, error) {
	if !dir.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDirection, int(dir))
	}
	return &Session{
		Direction:    dir,
		StartPointer: pointer,
		Start:        start,
		Current:      start,
		Constraints:  c,
		Active:       true,
	}, nil
}

// Update recomputes the candidate geometry from the latest pointer position.
// Deltas are always measured from the start pointer so event order is the
// only thing that matters: the last update wins.
func (s *Session) Update(pointer geom.Point) geom.Rect {
	if s == nil || !s.Active {
		return geom.Rect{}
	}
	dx := pointer.X - s.StartPointer.X
	dy := pointer.Y - s.StartPointer.Y
	next, err := Calculate(s.Direction, dx, dy, s.Start, s.Constraints)
	if err == nil {
		s.Current = next
	}
	return s.Current
}

// End deactivates the session and returns the final candidate geometry.
func (s *Session) End() geom.Rect {
	s.Active = false
	return s.Current
}

// Cancel deactivates the session and returns the start geometry.
func (s *Session) Cancel() geom.Rect {
	s.Active = false
	s.Current = s.Start
	return s.Start
}
