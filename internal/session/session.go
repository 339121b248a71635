// Package session drives interactive drag and resize gestures. Pointer moves
// only update a transient candidate; the registry is written once, on
// pointer-up.
package session

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/1broseidon/winstate/internal/geom"
	"github.com/1broseidon/winstate/internal/resize"
	"github.com/1broseidon/winstate/internal/snap"
	"github.com/1broseidon/winstate/internal/wm"
)

// DefaultDragThreshold is the Manhattan pointer travel below which a drag is
// treated as a click.
const DefaultDragThreshold = 5

var (
	// ErrSessionActive is returned when a gesture starts while another one
	// is in progress.
	ErrSessionActive = errors.New("session already active")
	// ErrNoSession is returned for pointer events without a gesture.
	ErrNoSession = errors.New("no active session")
	// ErrWindowUnavailable is returned when a gesture targets a window that
	// does not exist or is minimized.
	ErrWindowUnavailable = errors.New("window unavailable")
)

// ViewportSource supplies the current viewport. It is consulted on every
// pointer event.
type ViewportSource interface {
	Viewport() (geom.Viewport, error)
}

// Mode is the controller phase.
type Mode int

const (
	// ModeIdle means no gesture is in progress
	ModeIdle Mode = iota
	// ModeDragging means a window is being moved
	ModeDragging
	// ModeResizing means a window edge or corner is being dragged
	ModeResizing
)

// String returns the string representation of the mode
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeDragging:
		return "dragging"
	case ModeResizing:
		return "resizing"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle", "":
		*m = ModeIdle
	case "dragging":
		*m = ModeDragging
	case "resizing":
		*m = ModeResizing
	default:
		return fmt.Errorf("unknown session mode %q", string(b))
	}
	return nil
}

// Preview is the transient feedback for the gesture in progress.
type Preview struct {
	WindowID  string           `json:"window_id,omitempty"`
	Mode      Mode             `json:"mode"`
	Direction resize.Direction `json:"direction,omitempty"`
	Geometry  geom.Rect        `json:"geometry"`
	Snap      *snap.Target     `json:"snap,omitempty"`
}

// Outcome reports what pointer-up committed.
type Outcome struct {
	WindowID  string      `json:"window_id"`
	Mode      Mode        `json:"mode"`
	Committed bool        `json:"committed"`
	Command   string      `json:"command,omitempty"`
	Geometry  geom.Rect   `json:"geometry"`
	Region    snap.Region `json:"region,omitempty"`
}

type drag struct {
	windowID     string
	startPointer geom.Point
	start        geom.Rect
	size         geom.Size
	restore      bool
	grabOffset   geom.Point
	current      geom.Point
	preview      *snap.Target
	travel       float64
}

// Controller owns at most one gesture at a time.
type Controller struct {
	reg      *wm.Registry
	viewport ViewportSource
	logger   zerolog.Logger

	mu            sync.Mutex
	threshold     float64
	dragThreshold float64
	lastViewport  geom.Viewport

	mode     Mode
	drag     *drag
	resizing *resize.Session
	resizeID string
}

// Option configures a Controller.
type Option func(*Controller)

// WithSnapThreshold sets the edge proximity that arms a snap region.
func WithSnapThreshold(px float64) Option {
	return func(c *Controller) { c.threshold = px }
}

// WithDragThreshold sets the minimum drag travel that commits a move.
func WithDragThreshold(px float64) Option {
	return func(c *Controller) { c.dragThreshold = px }
}

// WithLogger sets the controller logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController returns an idle controller.
func NewController(reg *wm.Registry, vp ViewportSource, opts ...Option) *Controller {
	c := &Controller{
		reg:           reg,
		viewport:      vp,
		logger:        zerolog.Nop(),
		threshold:     snap.DefaultThreshold,
		dragThreshold: DefaultDragThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetThresholds updates snap and drag thresholds for the next gesture.
func (c *Controller) SetThresholds(snapPx, dragPx float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.threshold = snapPx
	c.dragThreshold = dragPx
}

// currentViewport asks the source for a fresh viewport. On failure the last
// good one is reused.
func (c *Controller) currentViewport() geom.Viewport {
	if c.viewport == nil {
		return c.lastViewport
	}
	vp, err := c.viewport.Viewport()
	if err != nil {
		c.logger.Warn().Err(err).Msg("viewport unavailable, reusing last known")
		return c.lastViewport
	}
	c.lastViewport = vp
	return vp
}

func (c *Controller) target(id string) (wm.Window, error) {
	w, ok := c.reg.Window(id)
	if !ok || w.State == wm.StateMinimized {
		return wm.Window{}, fmt.Errorf("window %q: %w", id, ErrWindowUnavailable)
	}
	return w, nil
}

// StartDrag begins moving window id from pointer.
func (c *Controller) StartDrag(id string, pointer geom.Point) (Preview, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeIdle {
		return Preview{}, ErrSessionActive
	}
	w, err := c.target(id)
	if err != nil {
		return Preview{}, err
	}
	pointer = sanitizePoint(pointer)
	d := &drag{
		windowID:     id,
		startPointer: pointer,
		start:        w.Geometry,
		size:         w.Geometry.Size,
		grabOffset:   geom.Point{X: pointer.X - w.Geometry.Position.X, Y: pointer.Y - w.Geometry.Position.Y},
		current:      w.Geometry.Position,
	}
	if w.State == wm.StateMaximized && w.PreMaximize != nil {
		// A maximized window is carried at its restored size, keeping the
		// pointer at the same relative spot along the title bar.
		d.restore = true
		d.size = w.PreMaximize.Size
		if w.Geometry.Size.W > 0 {
			d.grabOffset.X = d.grabOffset.X / w.Geometry.Size.W * d.size.W
		}
		d.grabOffset.Y = math.Min(d.grabOffset.Y, d.size.H)
		d.current = geom.Point{X: pointer.X - d.grabOffset.X, Y: pointer.Y - d.grabOffset.Y}
	}
	c.drag = d
	c.mode = ModeDragging
	c.logger.Debug().Str("window", id).Msg("drag started")
	return c.previewLocked(), nil
}

// StartResize begins resizing window id by its dir handle.
func (c *Controller) StartResize(id string, dir resize.Direction, pointer geom.Point) (Preview, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeIdle {
		return Preview{}, ErrSessionActive
	}
	w, err := c.target(id)
	if err != nil {
		return Preview{}, err
	}
	constraints := c.reg.Snapshot().EffectiveConstraints(w)
	s, err := resize.NewSession(dir, sanitizePoint(pointer), w.Geometry, constraints)
	if err != nil {
		return Preview{}, fmt.Errorf("failed to start resize: %w", err)
	}
	c.resizing = s
	c.resizeID = id
	c.mode = ModeResizing
	c.logger.Debug().Str("window", id).Stringer("direction", dir).Msg("resize started")
	return c.previewLocked(), nil
}

// OnPointerMove updates the candidate geometry. Nothing is committed.
func (c *Controller) OnPointerMove(pointer geom.Point) (Preview, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == ModeIdle {
		return Preview{}, ErrNoSession
	}
	c.updateLocked(sanitizePoint(pointer))
	return c.previewLocked(), nil
}

func (c *Controller) updateLocked(pointer geom.Point) {
	switch c.mode {
	case ModeDragging:
		d := c.drag
		d.current = geom.Point{X: pointer.X - d.grabOffset.X, Y: pointer.Y - d.grabOffset.Y}
		d.travel = math.Abs(pointer.X-d.startPointer.X) + math.Abs(pointer.Y-d.startPointer.Y)
		d.preview = nil
		if d.travel >= c.dragThreshold {
			vp := c.currentViewport()
			if target, ok := snap.Preview(d.current, d.size, vp, c.threshold); ok {
				d.preview = &target
			}
		}
	case ModeResizing:
		c.resizing.Update(pointer)
	}
}

func (c *Controller) previewLocked() Preview {
	switch c.mode {
	case ModeDragging:
		d := c.drag
		p := Preview{
			WindowID: d.windowID,
			Mode:     ModeDragging,
			Geometry: geom.Rect{Position: d.current, Size: d.size},
		}
		if d.preview != nil {
			t := *d.preview
			p.Snap = &t
		}
		return p
	case ModeResizing:
		return Preview{
			WindowID:  c.resizeID,
			Mode:      ModeResizing,
			Direction: c.resizing.Direction,
			Geometry:  c.resizing.Current,
		}
	default:
		return Preview{Mode: ModeIdle}
	}
}

// Current returns the gesture in progress, if any.
func (c *Controller) Current() (Preview, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.previewLocked(), c.mode != ModeIdle
}

// OnPointerUp finishes the gesture and commits its result. A drag ending in
// a snap region commits Snap, or Maximize for the top region; other drags
// commit Move. A committed gesture focuses its window. Drags shorter than
// the drag threshold commit nothing.
func (c *Controller) OnPointerUp(pointer geom.Point) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == ModeIdle {
		return Outcome{}, ErrNoSession
	}
	c.updateLocked(sanitizePoint(pointer))
	defer c.resetLocked()

	switch c.mode {
	case ModeDragging:
		return c.commitDragLocked(), nil
	case ModeResizing:
		return c.commitResizeLocked(), nil
	}
	return Outcome{}, ErrNoSession
}

func (c *Controller) commitDragLocked() Outcome {
	d := c.drag
	out := Outcome{
		WindowID: d.windowID,
		Mode:     ModeDragging,
		Geometry: d.start,
	}
	if d.travel < c.dragThreshold {
		return out
	}

	// Re-resolve against the viewport as it is now.
	vp := c.currentViewport()
	if target, ok := snap.Preview(d.current, d.size, vp, c.threshold); ok {
		out.Region = target.Region
		if target.Maximize {
			out.Command = wm.Maximize{}.Name()
			out.Committed = c.reg.Dispatch(wm.Maximize{ID: d.windowID, Viewport: vp})
		} else {
			out.Command = wm.Snap{}.Name()
			out.Committed = c.reg.Dispatch(wm.Snap{ID: d.windowID, Geometry: target.Rect})
		}
	} else {
		if d.restore {
			c.reg.Dispatch(wm.Unmaximize{ID: d.windowID})
		}
		out.Command = wm.Move{}.Name()
		out.Committed = c.reg.Dispatch(wm.Move{ID: d.windowID, Position: d.current})
	}
	if out.Committed {
		c.reg.Dispatch(wm.Focus{ID: d.windowID})
	}
	if w, ok := c.reg.Window(d.windowID); ok && out.Committed {
		out.Geometry = w.Geometry
	}
	c.logger.Debug().
		Str("window", d.windowID).
		Str("command", out.Command).
		Bool("committed", out.Committed).
		Msg("drag finished")
	return out
}

func (c *Controller) commitResizeLocked() Outcome {
	s := c.resizing
	final := s.End()
	out := Outcome{
		WindowID: c.resizeID,
		Mode:     ModeResizing,
		Geometry: s.Start,
	}
	if final == s.Start {
		return out
	}
	out.Command = wm.Resize{}.Name()
	out.Committed = c.reg.Dispatch(wm.Resize{ID: c.resizeID, Geometry: final})
	if out.Committed {
		c.reg.Dispatch(wm.Focus{ID: c.resizeID})
	}
	if w, ok := c.reg.Window(c.resizeID); ok && out.Committed {
		out.Geometry = w.Geometry
	}
	c.logger.Debug().
		Str("window", c.resizeID).
		Bool("committed", out.Committed).
		Msg("resize finished")
	return out
}

// Cancel abandons the gesture. The returned preview carries the exact start
// geometry; the registry was never written.
func (c *Controller) Cancel() Preview {
	c.mu.Lock()
	defer c.mu.Unlock()

	var p Preview
	switch c.mode {
	case ModeDragging:
		p = Preview{WindowID: c.drag.windowID, Mode: ModeDragging, Geometry: c.drag.start}
	case ModeResizing:
		p = Preview{
			WindowID:  c.resizeID,
			Mode:      ModeResizing,
			Direction: c.resizing.Direction,
			Geometry:  c.resizing.Cancel(),
		}
	default:
		return Preview{Mode: ModeIdle}
	}
	c.resetLocked()
	c.logger.Debug().Str("window", p.WindowID).Msg("session cancelled")
	return p
}

func (c *Controller) resetLocked() {
	c.mode = ModeIdle
	c.drag = nil
	c.resizing = nil
	c.resizeID = ""
}

func sanitizePoint(p geom.Point) geom.Point {
	return geom.Point{X: geom.Sanitize(p.X), Y: geom.Sanitize(p.Y)}
}
