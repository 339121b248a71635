// Package grouping layers group and tab semantics over the window registry.
// It validates requests, computes bounding layouts and arrangement
// formations, and commits everything through registry commands.
package grouping

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/1broseidon/winstate/internal/geom"
	"github.com/1broseidon/winstate/internal/tiling"
	"github.com/1broseidon/winstate/internal/wm"
)

// DefaultOffset is the margin added around member geometry.
const DefaultOffset = 10

var (
	// ErrInvalidGroupMembership is returned for fewer than two windows,
	// unknown or duplicate ids, tab-manager windows, or windows that already
	// belong to a group.
	ErrInvalidGroupMembership = errors.New("invalid group membership")
	// ErrUnknownGroup is returned when a group id does not exist.
	ErrUnknownGroup = errors.New("unknown group")
)

// Engine issues group commands against a registry.
type Engine struct {
	reg     *wm.Registry
	offset  float64
	arrange tiling.Options
	now     func() time.Time
	newID   func() string
	logger  zerolog.Logger

	mu      sync.Mutex
	created int
}

// Option configures an Engine.
type Option func(*Engine)

// WithOffset sets the bounding margin.
func WithOffset(offset float64) Option {
	return func(e *Engine) { e.offset = offset }
}

// WithArrangeOptions sets the formation defaults used by Arrange.
func WithArrangeOptions(opts tiling.Options) Option {
	return func(e *Engine) { e.arrange = opts }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides uuid generation for group and manager ids.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an engine bound to reg.
func New(reg *wm.Registry, opts ...Option) *Engine {
	e := &Engine{
		reg:     reg,
		offset:  DefaultOffset,
		arrange: tiling.DefaultOptions(),
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetOffset changes the bounding margin for subsequent groups.
func (e *Engine) SetOffset(offset float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.offset = offset
}

// SetArrangeOptions changes the formation defaults.
func (e *Engine) SetArrangeOptions(opts tiling.Options) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.arrange = opts
}

// CreateGroup groups ids under name, opening a tab-manager window sized at
// the bounding layout. An empty name becomes "Group N".
func (e *Engine) CreateGroup(ids []string, name string) (wm.Group, error) {
	state := e.reg.Snapshot()
	if err := validateMembers(state, ids); err != nil {
		return wm.Group{}, err
	}

	e.mu.Lock()
	e.created++
	if name == "" {
		name = fmt.Sprintf("Group %d", e.created)
	}
	offset := e.offset
	e.mu.Unlock()

	bounds, _ := boundsOf(state, ids, offset)
	g := wm.Group{
		ID:           e.newID(),
		Name:         name,
		Members:      append([]string(nil), ids...),
		ActiveMember: ids[0],
		Bounds:       bounds,
		CreatedAt:    e.now(),
	}
	manager := wm.Descriptor{
		ID:           e.newID(),
		DisplayName:  name,
		ComponentKey: wm.TabManagerComponent,
		Geometry:     bounds,
		Kind:         wm.KindTabManager,
	}
	if !e.reg.Dispatch(wm.CreateGroup{Group: g, Manager: manager}) {
		// Membership changed between validation and dispatch.
		return wm.Group{}, fmt.Errorf("failed to create group: %w", ErrInvalidGroupMembership)
	}

	created, _ := e.reg.Group(g.ID)
	e.logger.Info().
		Str("group", created.ID).
		Str("name", created.Name).
		Strs("members", created.Members).
		Msg("group created")
	return created, nil
}

func validateMembers(s wm.State, ids []string) error {
	if len(ids) < 2 {
		return fmt.Errorf("need at least 2 windows, got %d: %w", len(ids), ErrInvalidGroupMembership)
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("window %q listed twice: %w", id, ErrInvalidGroupMembership)
		}
		seen[id] = struct{}{}
		if err := checkGroupable(s, id); err != nil {
			return err
		}
	}
	return nil
}

func checkGroupable(s wm.State, id string) error {
	w, ok := s.Windows[id]
	if !ok {
		return fmt.Errorf("window %q not found: %w", id, ErrInvalidGroupMembership)
	}
	if w.Kind == wm.KindTabManager {
		return fmt.Errorf("window %q is a tab manager: %w", id, ErrInvalidGroupMembership)
	}
	if gid, grouped := s.GroupOf(id); grouped {
		return fmt.Errorf("window %q already in group %q: %w", id, gid, ErrInvalidGroupMembership)
	}
	return nil
}

func (e *Engine) group(id string) (wm.Group, error) {
	g, ok := e.reg.Group(id)
	if !ok {
		return wm.Group{}, fmt.Errorf("group %q: %w", id, ErrUnknownGroup)
	}
	return g, nil
}

// AddWindow appends an ungrouped window to a group.
func (e *Engine) AddWindow(groupID, windowID string) error {
	if _, err := e.group(groupID); err != nil {
		return err
	}
	if err := checkGroupable(e.reg.Snapshot(), windowID); err != nil {
		return err
	}
	if !e.reg.Dispatch(wm.AddGroupMember{GroupID: groupID, WindowID: windowID}) {
		return fmt.Errorf("failed to add %q to %q: %w", windowID, groupID, ErrInvalidGroupMembership)
	}
	return nil
}

// RemoveWindow detaches a member. Removing the active tab activates the
// first remaining member; fewer than two members dissolve the group.
func (e *Engine) RemoveWindow(groupID, windowID string) error {
	g, err := e.group(groupID)
	if err != nil {
		return err
	}
	if !g.HasMember(windowID) {
		return fmt.Errorf("window %q not in group %q: %w", windowID, groupID, ErrInvalidGroupMembership)
	}
	e.reg.Dispatch(wm.RemoveGroupMember{GroupID: groupID, WindowID: windowID})
	if _, alive := e.reg.Group(groupID); !alive {
		e.logger.Info().Str("group", groupID).Msg("group dissolved")
	}
	return nil
}

// SwitchTab makes windowID the active tab.
func (e *Engine) SwitchTab(groupID, windowID string) error {
	g, err := e.group(groupID)
	if err != nil {
		return err
	}
	if !g.HasMember(windowID) {
		return fmt.Errorf("window %q not in group %q: %w", windowID, groupID, ErrInvalidGroupMembership)
	}
	e.reg.Dispatch(wm.SwitchTab{GroupID: groupID, WindowID: windowID})
	return nil
}

// DestroyGroup dissolves a group and closes its tab-manager window. Members
// stay open.
func (e *Engine) DestroyGroup(groupID string) error {
	if _, err := e.group(groupID); err != nil {
		return err
	}
	e.reg.Dispatch(wm.DestroyGroup{GroupID: groupID})
	e.logger.Info().Str("group", groupID).Msg("group destroyed")
	return nil
}

// GroupBounds returns the bounding layout of the given windows expanded by
// the configured offset. Unknown ids are ignored.
func (e *Engine) GroupBounds(ids []string) (geom.Rect, bool) {
	e.mu.Lock()
	offset := e.offset
	e.mu.Unlock()
	return boundsOf(e.reg.Snapshot(), ids, offset)
}

func boundsOf(s wm.State, ids []string, offset float64) (geom.Rect, bool) {
	rects := make([]geom.Rect, 0, len(ids))
	for _, id := range ids {
		if w, ok := s.Windows[id]; ok {
			rects = append(rects, w.Geometry)
		}
	}
	union, ok := geom.Union(rects...)
	if !ok {
		return geom.Rect{}, false
	}
	return union.Expand(offset), true
}

// Arrange computes a formation for the given windows with the engine's
// defaults. It does not change state. Unknown ids are skipped.
func (e *Engine) Arrange(ids []string, f tiling.Formation) ([]tiling.Placement, error) {
	e.mu.Lock()
	opts := e.arrange
	e.mu.Unlock()
	return e.ArrangeWith(ids, f, opts)
}

// ArrangeWith is Arrange with explicit options.
func (e *Engine) ArrangeWith(ids []string, f tiling.Formation, opts tiling.Options) ([]tiling.Placement, error) {
	state := e.reg.Snapshot()
	items := make([]tiling.Item, 0, len(ids))
	for _, id := range ids {
		w, ok := state.Windows[id]
		if !ok {
			continue
		}
		items = append(items, tiling.Item{ID: id, Size: w.Geometry.Size})
	}
	placements, err := tiling.Arrange(items, f, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to arrange windows: %w", err)
	}
	return placements, nil
}

// ApplyArrangement commits placements as Resize commands and returns how
// many windows changed.
func (e *Engine) ApplyArrangement(placements []tiling.Placement) int {
	changed := 0
	for _, p := range placements {
		if e.reg.Dispatch(wm.Resize{ID: p.ID, Geometry: p.Rect}) {
			changed++
		}
	}
	return changed
}
