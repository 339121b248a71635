package wm

import (
	"github.com/1broseidon/winstate/internal/geom"
)

// Command is a registry mutation. The set is closed: only this package can
// implement it. apply mutates a private clone and reports whether anything
// changed; commands addressing unknown ids are no-ops.
type Command interface {
	Name() string
	apply(s *State) bool
}

// Apply returns the state produced by cmd. It is total: invalid commands
// return s unchanged.
func Apply(s State, cmd Command) State {
	next, _ := applyCommand(s, cmd)
	return next
}

func applyCommand(s State, cmd Command) (State, bool) {
	if cmd == nil {
		return s, false
	}
	next := s.Clone()
	if next.Windows == nil {
		next.Windows = make(map[string]Window)
	}
	if next.Groups == nil {
		next.Groups = make(map[string]Group)
	}
	if !cmd.apply(&next) {
		return s, false
	}
	return next, true
}

// Open inserts a window, or refocuses it when the id already exists.
type Open struct {
	Window Descriptor
}

func (Open) Name() string { return "open" }

func (c Open) apply(s *State) bool {
	d := c.Window
	if d.ID == "" {
		return false
	}
	if _, ok := s.Windows[d.ID]; ok {
		return focus(s, d.ID)
	}
	kind := d.Kind
	if kind == "" {
		kind = KindApp
	}
	w := Window{
		ID:           d.ID,
		DisplayName:  d.DisplayName,
		Icon:         d.Icon,
		ComponentKey: d.ComponentKey,
		Kind:         kind,
		Geometry:     d.Geometry.Sanitized(),
		State:        StateNormal,
		AlwaysOnTop:  d.AlwaysOnTop,
		Constraints:  d.Constraints,
	}
	if kind != KindTabManager {
		w.Geometry = s.EffectiveConstraints(w).Clamp(w.Geometry)
	}
	w.ZIndex = s.NextZIndex
	s.NextZIndex++
	s.Windows[w.ID] = w
	s.ActiveID = w.ID
	return true
}

// Focus brings a window to the front, makes it active and un-minimizes it.
type Focus struct {
	ID string
}

func (Focus) Name() string { return "focus" }

func (c Focus) apply(s *State) bool { return focus(s, c.ID) }

func focus(s *State, id string) bool {
	w, ok := s.Windows[id]
	if !ok {
		return false
	}
	if w.State == StateMinimized {
		w.State = unminimizedState(w)
	}
	w.ZIndex = s.NextZIndex
	s.NextZIndex++
	s.Windows[id] = w
	s.ActiveID = id
	return true
}

// unminimizedState is the state a minimized window returns to.
func unminimizedState(w Window) WindowState {
	if w.PreMaximize != nil {
		return StateMaximized
	}
	return StateNormal
}

// Close removes a window. Grouped windows are detached from their group
// first; closing a group's tab manager dissolves the group. The active
// window is cleared, never promoted.
type Close struct {
	ID string
}

func (Close) Name() string { return "close" }

func (c Close) apply(s *State) bool {
	w, ok := s.Windows[c.ID]
	if !ok {
		return false
	}
	if gid, grouped := s.GroupOf(c.ID); grouped {
		if w.Kind == KindTabManager {
			dissolve(s, gid)
		} else {
			removeMember(s, gid, c.ID)
		}
	}
	deleteWindow(s, c.ID)
	return true
}

func deleteWindow(s *State, id string) {
	delete(s.Windows, id)
	if s.ActiveID == id {
		s.ActiveID = ""
	}
}

// Minimize hides a window. Minimizing the active window clears active.
type Minimize struct {
	ID string
}

func (Minimize) Name() string { return "minimize" }

func (c Minimize) apply(s *State) bool { return minimize(s, c.ID) }

func minimize(s *State, id string) bool {
	w, ok := s.Windows[id]
	if !ok || w.State == StateMinimized {
		return false
	}
	w.State = StateMinimized
	s.Windows[id] = w
	if s.ActiveID == id {
		s.ActiveID = ""
	}
	return true
}

// Restore un-minimizes a window and focuses it.
type Restore struct {
	ID string
}

func (Restore) Name() string { return "restore" }

func (c Restore) apply(s *State) bool {
	w, ok := s.Windows[c.ID]
	if !ok || w.State != StateMinimized {
		return false
	}
	return focus(s, c.ID)
}

// ToggleFocusOrMinimize models a taskbar click: minimize the active window,
// otherwise focus.
type ToggleFocusOrMinimize struct {
	ID string
}

func (ToggleFocusOrMinimize) Name() string { return "toggle-focus-or-minimize" }

func (c ToggleFocusOrMinimize) apply(s *State) bool {
	w, ok := s.Windows[c.ID]
	if !ok {
		return false
	}
	if s.ActiveID == c.ID && w.State != StateMinimized {
		return minimize(s, c.ID)
	}
	return focus(s, c.ID)
}

// ToggleMaximize maximizes a normal window into the usable viewport, or
// restores a maximized one to its exact pre-maximize geometry. A minimized
// window is restored and focused first.
type ToggleMaximize struct {
	ID       string
	Viewport geom.Viewport
}

func (ToggleMaximize) Name() string { return "toggle-maximize" }

func (c ToggleMaximize) apply(s *State) bool {
	w, ok := s.Windows[c.ID]
	if !ok {
		return false
	}
	if w.State == StateMinimized {
		focus(s, c.ID)
		w = s.Windows[c.ID]
	}
	if w.State == StateMaximized {
		return unmaximize(s, c.ID)
	}
	return maximize(s, c.ID, c.Viewport)
}

// Maximize is the one-way form of ToggleMaximize.
type Maximize struct {
	ID       string
	Viewport geom.Viewport
}

func (Maximize) Name() string { return "maximize" }

func (c Maximize) apply(s *State) bool { return maximize(s, c.ID, c.Viewport) }

func maximize(s *State, id string, vp geom.Viewport) bool {
	w, ok := s.Windows[id]
	if !ok || w.State == StateMinimized {
		return false
	}
	if w.State != StateMaximized || w.PreMaximize == nil {
		snapshot := w.Geometry
		w.PreMaximize = &snapshot
	}
	w.Geometry = vp.Usable()
	w.State = StateMaximized
	s.Windows[id] = w
	return true
}

// Unmaximize restores a maximized window to its pre-maximize geometry.
type Unmaximize struct {
	ID string
}

func (Unmaximize) Name() string { return "unmaximize" }

func (c Unmaximize) apply(s *State) bool { return unmaximize(s, c.ID) }

func unmaximize(s *State, id string) bool {
	w, ok := s.Windows[id]
	if !ok || w.State != StateMaximized {
		return false
	}
	if w.PreMaximize != nil {
		w.Geometry = *w.PreMaximize
	}
	w.PreMaximize = nil
	w.State = StateNormal
	s.Windows[id] = w
	return true
}

// clearMaximized drops the Maximized classification without touching
// geometry.
func clearMaximized(w Window) Window {
	if w.State == StateMaximized {
		w.State = StateNormal
	}
	w.PreMaximize = nil
	return w
}

// Move sets a window's position. Moving a maximized window un-maximizes it
// in place.
type Move struct {
	ID       string
	Position geom.Point
}

func (Move) Name() string { return "move" }

func (c Move) apply(s *State) bool {
	w, ok := s.Windows[c.ID]
	if !ok {
		return false
	}
	w = clearMaximized(w)
	w.Geometry.Position = geom.Point{X: geom.Sanitize(c.Position.X), Y: geom.Sanitize(c.Position.Y)}
	s.Windows[c.ID] = w
	return true
}

// Resize sets a window's geometry, clamped to its constraints.
type Resize struct {
	ID       string
	Geometry geom.Rect
}

func (Resize) Name() string { return "resize" }

func (c Resize) apply(s *State) bool {
	w, ok := s.Windows[c.ID]
	if !ok {
		return false
	}
	w = clearMaximized(w)
	w.Geometry = s.EffectiveConstraints(w).Clamp(c.Geometry)
	s.Windows[c.ID] = w
	return true
}

// Snap commits a snap layout. A maximized window loses its Maximized
// classification first.
type Snap struct {
	ID       string
	Geometry geom.Rect
}

func (Snap) Name() string { return "snap" }

func (c Snap) apply(s *State) bool {
	w, ok := s.Windows[c.ID]
	if !ok || w.State == StateMinimized {
		return false
	}
	w = clearMaximized(w)
	w.Geometry = s.EffectiveConstraints(w).Clamp(c.Geometry)
	s.Windows[c.ID] = w
	return true
}

// ToggleAlwaysOnTop flips the pin flag. Renderers sort by (AlwaysOnTop,
// ZIndex); see State.Stack.
type ToggleAlwaysOnTop struct {
	ID string
}

func (ToggleAlwaysOnTop) Name() string { return "toggle-always-on-top" }

func (c ToggleAlwaysOnTop) apply(s *State) bool {
	w, ok := s.Windows[c.ID]
	if !ok {
		return false
	}
	w.AlwaysOnTop = !w.AlwaysOnTop
	s.Windows[c.ID] = w
	return true
}

// FocusNext cycles focus to the visible window lowest in the stack, which
// walks through every visible window on repeated use.
type FocusNext struct{}

func (FocusNext) Name() string { return "focus-next" }

func (FocusNext) apply(s *State) bool {
	var next *Window
	for _, w := range s.Stack() {
		if !w.Visible() || w.ID == s.ActiveID {
			continue
		}
		w := w
		next = &w
		break
	}
	if next == nil {
		return false
	}
	return focus(s, next.ID)
}

// Rehydrate replaces the whole state with a persisted snapshot after
// normalizing it.
type Rehydrate struct {
	State State
}

func (Rehydrate) Name() string { return "rehydrate" }

func (c Rehydrate) apply(s *State) bool {
	*s = Normalize(c.State)
	return true
}
