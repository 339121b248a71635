package wm

import (
	"fmt"
	"sort"
	"time"

	"github.com/1broseidon/winstate/internal/geom"
)

// WindowState is the lifecycle classification of a window.
type WindowState int

const (
	// StateNormal is a regular, visible window.
	StateNormal WindowState = iota
	// StateMinimized windows are hidden and never active.
	StateMinimized
	// StateMaximized windows fill the usable viewport.
	StateMaximized
)

// String returns a string representation of the window state.
func (s WindowState) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateMinimized:
		return "minimized"
	case StateMaximized:
		return "maximized"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s WindowState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *WindowState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "normal", "":
		*s = StateNormal
	case "minimized":
		*s = StateMinimized
	case "maximized":
		*s = StateMaximized
	default:
		return fmt.Errorf("unknown window state %q", string(b))
	}
	return nil
}

// Kind distinguishes application windows from synthetic ones.
type Kind string

const (
	KindApp        Kind = "app"
	KindTabManager Kind = "tab-manager"
)

// TabManagerComponent is the component key of synthetic group windows.
const TabManagerComponent = "tab-manager"

// Descriptor is the input to Open.
type Descriptor struct {
	ID           string           `json:"id"`
	DisplayName  string           `json:"display_name"`
	Icon         string           `json:"icon,omitempty"`
	ComponentKey string           `json:"component_key,omitempty"`
	Geometry     geom.Rect        `json:"geometry"`
	Constraints  geom.Constraints `json:"constraints"`
	AlwaysOnTop  bool             `json:"always_on_top,omitempty"`
	Kind         Kind             `json:"kind,omitempty"`
}

// Window is one managed surface.
type Window struct {
	ID           string           `json:"id"`
	DisplayName  string           `json:"display_name"`
	Icon         string           `json:"icon,omitempty"`
	ComponentKey string           `json:"component_key,omitempty"`
	Kind         Kind             `json:"kind"`
	Geometry     geom.Rect        `json:"geometry"`
	ZIndex       int64            `json:"z_index"`
	State        WindowState      `json:"state"`
	AlwaysOnTop  bool             `json:"always_on_top,omitempty"`
	PreMaximize  *geom.Rect       `json:"pre_maximize,omitempty"`
	Constraints  geom.Constraints `json:"constraints"`
}

// Visible reports whether the window is not minimized.
func (w Window) Visible() bool { return w.State != StateMinimized }

// Group aggregates windows that move and present as one unit. The same
// membership list backs the tabbed presentation (see TabGroup).
type Group struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Members      []string  `json:"members"`
	ActiveMember string    `json:"active_member"`
	ManagerID    string    `json:"manager_id"`
	Bounds       geom.Rect `json:"bounds"`
	CreatedAt    time.Time `json:"created_at"`
}

// TabGroup is the tabbed view of a group.
type TabGroup struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Members        []string  `json:"members"`
	ActiveWindowID string    `json:"active_window_id"`
	Bounds         geom.Rect `json:"bounds"`
}

// TabGroup returns the tab view of g. It shares g's id.
func (g Group) TabGroup() TabGroup {
	return TabGroup{
		ID:             g.ID,
		Name:           g.Name,
		Members:        append([]string(nil), g.Members...),
		ActiveWindowID: g.ActiveMember,
		Bounds:         g.Bounds,
	}
}

// HasMember reports whether id is in the group.
func (g Group) HasMember(id string) bool {
	return indexOf(g.Members, id) >= 0
}

// State is the complete registry state. Values are treated as immutable:
// commands operate on a clone and never write through shared slices or
// pointers.
type State struct {
	Windows     map[string]Window `json:"windows"`
	Groups      map[string]Group  `json:"groups"`
	ActiveID    string            `json:"active_id,omitempty"`
	NextZIndex  int64             `json:"next_z_index"`
	Constraints geom.Constraints  `json:"constraints"`
}

// DefaultZIndexBase is the first zIndex handed out by an empty registry.
const DefaultZIndexBase = 1000

// NewState returns an empty state whose first zIndex is base.
func NewState(base int64, c geom.Constraints) State {
	return State{
		Windows:     make(map[string]Window),
		Groups:      make(map[string]Group),
		NextZIndex:  base,
		Constraints: c,
	}
}

// Clone returns a copy that can be mutated without affecting s.
func (s State) Clone() State {
	out := s
	out.Windows = make(map[string]Window, len(s.Windows))
	for id, w := range s.Windows {
		out.Windows[id] = w
	}
	out.Groups = make(map[string]Group, len(s.Groups))
	for id, g := range s.Groups {
		out.Groups[id] = g
	}
	return out
}

// GroupOf returns the id of the group containing windowID, if any. Groups
// own membership; windows never store a back reference.
func (s State) GroupOf(windowID string) (string, bool) {
	for id, g := range s.Groups {
		if g.HasMember(windowID) || g.ManagerID == windowID {
			return id, true
		}
	}
	return "", false
}

// Active returns the active window, if any.
func (s State) Active() (Window, bool) {
	if s.ActiveID == "" {
		return Window{}, false
	}
	w, ok := s.Windows[s.ActiveID]
	return w, ok
}

// Stack returns windows in render order: back to front, sorted by
// (AlwaysOnTop, ZIndex).
func (s State) Stack() []Window {
	out := make([]Window, 0, len(s.Windows))
	for _, w := range s.Windows {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AlwaysOnTop != out[j].AlwaysOnTop {
			return !out[i].AlwaysOnTop
		}
		if out[i].ZIndex != out[j].ZIndex {
			return out[i].ZIndex < out[j].ZIndex
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SortedGroups returns groups ordered by creation time then id.
func (s State) SortedGroups() []Group {
	out := make([]Group, 0, len(s.Groups))
	for _, g := range s.Groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// EffectiveConstraints resolves the constraints that apply to w. Tab-manager
// windows are unconstrained.
func (s State) EffectiveConstraints(w Window) geom.Constraints {
	if w.Kind == KindTabManager {
		return geom.Constraints{}
	}
	return w.Constraints.Or(s.Constraints)
}

func indexOf(list []string, id string) int {
	for i, v := range list {
		if v == id {
			return i
		}
	}
	return -1
}

func without(list []string, id string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
