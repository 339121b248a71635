package mcp

import (
	"github.com/1broseidon/winstate/internal/geom"
	"github.com/1broseidon/winstate/internal/ipc"
	"github.com/1broseidon/winstate/internal/session"
	"github.com/1broseidon/winstate/internal/snap"
	"github.com/1broseidon/winstate/internal/snapshot"
	"github.com/1broseidon/winstate/internal/tiling"
	"github.com/1broseidon/winstate/internal/wm"
)

// EmptyInput is used by tools that take no arguments.
type EmptyInput struct{}

// WindowInput names a single window.
type WindowInput struct {
	ID string `json:"id" jsonschema:"Window id"`
}

// ChangedOutput reports whether the command changed window state.
type ChangedOutput struct {
	Changed bool `json:"changed"`
}

// GetStateOutput is the output for the get_state tool.
type GetStateOutput struct {
	// Windows are listed back to front
	Windows  []wm.Window   `json:"windows"`
	Groups   []wm.Group    `json:"groups"`
	ActiveID string        `json:"active_id,omitempty"`
	Viewport geom.Viewport `json:"viewport"`
}

// GetStatusOutput is the output for the get_status tool.
type GetStatusOutput struct {
	ipc.StatusData
}

// OpenWindowInput is the input for the open_window tool.
type OpenWindowInput struct {
	ID           string     `json:"id,omitempty" jsonschema:"Window id; generated when empty. Opening an existing id focuses it."`
	DisplayName  string     `json:"display_name,omitempty" jsonschema:"Title shown in the taskbar"`
	Icon         string     `json:"icon,omitempty" jsonschema:"Icon reference"`
	ComponentKey string     `json:"component_key,omitempty" jsonschema:"Content component rendered inside the window"`
	AlwaysOnTop  bool       `json:"always_on_top,omitempty" jsonschema:"Pin the window above unpinned windows"`
	Geometry     *geom.Rect `json:"geometry,omitempty" jsonschema:"Initial geometry; 400x300 at 40,40 when omitted"`
}

// OpenWindowOutput is the output for the open_window tool.
type OpenWindowOutput struct {
	ID string `json:"id"`
}

// MoveWindowInput is the input for the move_window tool.
type MoveWindowInput struct {
	ID string  `json:"id" jsonschema:"Window id"`
	X  float64 `json:"x" jsonschema:"New left edge"`
	Y  float64 `json:"y" jsonschema:"New top edge"`
}

// ResizeWindowInput is the input for the resize_window tool.
type ResizeWindowInput struct {
	ID       string    `json:"id" jsonschema:"Window id"`
	Geometry geom.Rect `json:"geometry" jsonschema:"Requested geometry; size is clamped to constraints"`
}

// SnapWindowInput is the input for the snap_window tool.
type SnapWindowInput struct {
	ID     string `json:"id" jsonschema:"Window id"`
	Region string `json:"region" jsonschema:"Snap region: left, right, top, top-left, top-right, bottom-left, bottom-right"`
}

// SnapWindowOutput is the output for the snap_window tool.
type SnapWindowOutput struct {
	Target  snap.Target `json:"target"`
	Changed bool        `json:"changed"`
}

// DragWindowInput is the input for the drag_window tool.
type DragWindowInput struct {
	ID   string     `json:"id" jsonschema:"Window id"`
	From geom.Point `json:"from" jsonschema:"Pointer position where the drag starts"`
	To   geom.Point `json:"to" jsonschema:"Pointer position where the drag ends"`
}

// ResizeByHandleInput is the input for the resize_by_handle tool.
type ResizeByHandleInput struct {
	ID        string     `json:"id" jsonschema:"Window id"`
	Direction string     `json:"direction" jsonschema:"Handle: n, s, e, w, ne, nw, se, sw"`
	From      geom.Point `json:"from" jsonschema:"Pointer position where the resize starts"`
	To        geom.Point `json:"to" jsonschema:"Pointer position where the resize ends"`
}

// GestureOutput reports what a simulated gesture committed.
type GestureOutput struct {
	Preview session.Preview `json:"preview"`
	Outcome session.Outcome `json:"outcome"`
}

// ArrangeInput is the input for the arrange_windows tool.
type ArrangeInput struct {
	IDs       []string `json:"ids,omitempty" jsonschema:"Windows to arrange; all visible application windows when empty"`
	Formation string   `json:"formation" jsonschema:"cascade, tile or stack"`
}

// ArrangeOutput is the output for the arrange_windows tool.
type ArrangeOutput struct {
	Placements []tiling.Placement `json:"placements"`
}

// CreateGroupInput is the input for the create_group tool.
type CreateGroupInput struct {
	IDs  []string `json:"ids" jsonschema:"At least two window ids to group"`
	Name string   `json:"name,omitempty" jsonschema:"Group name"`
}

// GroupMemberInput names a group and one window.
type GroupMemberInput struct {
	GroupID  string `json:"group_id" jsonschema:"Group id"`
	WindowID string `json:"window_id" jsonschema:"Window id"`
}

// GroupInput names a group.
type GroupInput struct {
	GroupID string `json:"group_id" jsonschema:"Group id"`
}

// GroupOutput wraps a group.
type GroupOutput struct {
	Group wm.Group `json:"group"`
}

// OKOutput is returned by commands with no data.
type OKOutput struct {
	OK bool `json:"ok"`
}

// SnapshotInput names a snapshot.
type SnapshotInput struct {
	Name string `json:"name" jsonschema:"Snapshot name"`
}

// SnapshotOutput describes one snapshot.
type SnapshotOutput struct {
	Snapshot snapshot.Info `json:"snapshot"`
}

// ListSnapshotsOutput is the output for the list_snapshots tool.
type ListSnapshotsOutput struct {
	Snapshots []snapshot.Info `json:"snapshots"`
}
