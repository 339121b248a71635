package wm

import (
	"sort"

	"github.com/1broseidon/winstate/internal/geom"
)

// CreateGroup registers a group over existing, ungrouped application
// windows and opens its tab-manager window. Anything invalid leaves the
// state untouched.
type CreateGroup struct {
	Group   Group
	Manager Descriptor
}

func (CreateGroup) Name() string { return "create-group" }

func (c CreateGroup) apply(s *State) bool {
	g := c.Group
	if g.ID == "" || c.Manager.ID == "" {
		return false
	}
	if _, exists := s.Groups[g.ID]; exists {
		return false
	}
	if _, exists := s.Windows[c.Manager.ID]; exists {
		return false
	}
	if !CanGroup(*s, g.Members) {
		return false
	}

	g.Members = append([]string(nil), g.Members...)
	if !g.HasMember(g.ActiveMember) {
		g.ActiveMember = g.Members[0]
	}
	g.ManagerID = c.Manager.ID
	s.Groups[g.ID] = g

	manager := c.Manager
	manager.Kind = KindTabManager
	if manager.ComponentKey == "" {
		manager.ComponentKey = TabManagerComponent
	}
	if manager.Geometry == (geom.Rect{}) {
		manager.Geometry = g.Bounds
	}
	return Open{Window: manager}.apply(s)
}

// CanGroup reports whether ids name at least two distinct, existing,
// ungrouped application windows.
func CanGroup(s State, ids []string) bool {
	if len(ids) < 2 {
		return false
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return false
		}
		seen[id] = struct{}{}
		if !Groupable(s, id) {
			return false
		}
	}
	return true
}

// Groupable reports whether id is an existing application window that is
// not yet in a group.
func Groupable(s State, id string) bool {
	w, ok := s.Windows[id]
	if !ok || w.Kind == KindTabManager {
		return false
	}
	_, grouped := s.GroupOf(id)
	return !grouped
}

// AddGroupMember appends an ungrouped window to a group.
type AddGroupMember struct {
	GroupID  string
	WindowID string
}

func (AddGroupMember) Name() string { return "add-group-member" }

func (c AddGroupMember) apply(s *State) bool {
	g, ok := s.Groups[c.GroupID]
	if !ok || !Groupable(*s, c.WindowID) {
		return false
	}
	members := make([]string, 0, len(g.Members)+1)
	members = append(members, g.Members...)
	g.Members = append(members, c.WindowID)
	s.Groups[c.GroupID] = g
	return true
}

// RemoveGroupMember detaches a window from its group. If the active tab is
// removed the first remaining member becomes active; below two members the
// group dissolves.
type RemoveGroupMember struct {
	GroupID  string
	WindowID string
}

func (RemoveGroupMember) Name() string { return "remove-group-member" }

func (c RemoveGroupMember) apply(s *State) bool {
	g, ok := s.Groups[c.GroupID]
	if !ok || !g.HasMember(c.WindowID) {
		return false
	}
	removeMember(s, c.GroupID, c.WindowID)
	return true
}

func removeMember(s *State, groupID, windowID string) {
	g := s.Groups[groupID]
	g.Members = without(g.Members, windowID)
	if g.ActiveMember == windowID {
		g.ActiveMember = ""
		if len(g.Members) > 0 {
			g.ActiveMember = g.Members[0]
		}
	}
	s.Groups[groupID] = g
	if len(g.Members) < 2 {
		dissolve(s, groupID)
	}
}

// dissolve removes a group and its tab-manager window. Members stay open.
func dissolve(s *State, groupID string) {
	g, ok := s.Groups[groupID]
	if !ok {
		return
	}
	delete(s.Groups, groupID)
	if g.ManagerID != "" {
		deleteWindow(s, g.ManagerID)
	}
}

// SwitchTab selects the active tab of a group.
type SwitchTab struct {
	GroupID  string
	WindowID string
}

func (SwitchTab) Name() string { return "switch-tab" }

func (c SwitchTab) apply(s *State) bool {
	g, ok := s.Groups[c.GroupID]
	if !ok || !g.HasMember(c.WindowID) || g.ActiveMember == c.WindowID {
		return false
	}
	g.ActiveMember = c.WindowID
	s.Groups[c.GroupID] = g
	return true
}

// DestroyGroup dissolves a group together with its tab view and manager
// window.
type DestroyGroup struct {
	GroupID string
}

func (DestroyGroup) Name() string { return "destroy-group" }

func (c DestroyGroup) apply(s *State) bool {
	if _, ok := s.Groups[c.GroupID]; !ok {
		return false
	}
	dissolve(s, c.GroupID)
	return true
}

// Normalize repairs a state loaded from outside the reducer: it fills nil
// maps, drops groups whose references dangle, discards a pre-maximize rect
// on a normal window, keeps NextZIndex above every
// assigned zIndex, and clears an active id that is missing or minimized.
func Normalize(in State) State {
	s := in.Clone()
	if s.Windows == nil {
		s.Windows = make(map[string]Window)
	}
	if s.Groups == nil {
		s.Groups = make(map[string]Group)
	}

	for id, w := range s.Windows {
		if w.ID != id {
			w.ID = id
		}
		if w.Kind == "" {
			w.Kind = KindApp
		}
		switch {
		case w.State == StateMaximized && w.PreMaximize == nil:
			w.State = StateNormal
		case w.State == StateNormal:
			w.PreMaximize = nil
		}
		s.Windows[id] = w
		if w.ZIndex >= s.NextZIndex {
			s.NextZIndex = w.ZIndex + 1
		}
	}

	claimed := make(map[string]string)
	groupIDs := make([]string, 0, len(s.Groups))
	for id := range s.Groups {
		groupIDs = append(groupIDs, id)
	}
	sort.Strings(groupIDs)
	for _, id := range groupIDs {
		g := s.Groups[id]
		g.ID = id
		var members []string
		for _, m := range g.Members {
			w, ok := s.Windows[m]
			if !ok || w.Kind == KindTabManager {
				continue
			}
			if _, taken := claimed[m]; taken {
				continue
			}
			members = append(members, m)
		}
		if len(members) < 2 {
			delete(s.Groups, id)
			if g.ManagerID != "" {
				delete(s.Windows, g.ManagerID)
			}
			continue
		}
		for _, m := range members {
			claimed[m] = id
		}
		g.Members = members
		if !g.HasMember(g.ActiveMember) {
			g.ActiveMember = members[0]
		}
		if _, ok := s.Windows[g.ManagerID]; !ok {
			g.ManagerID = ""
		}
		s.Groups[id] = g
	}

	// Tab managers whose group vanished are orphans.
	for id, w := range s.Windows {
		if w.Kind != KindTabManager {
			continue
		}
		if _, owned := s.GroupOf(id); !owned {
			delete(s.Windows, id)
		}
	}

	if w, ok := s.Windows[s.ActiveID]; !ok || w.State == StateMinimized {
		s.ActiveID = ""
	}
	return s
}
