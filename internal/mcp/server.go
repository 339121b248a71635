// Package mcp exposes the winstate daemon to MCP clients over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/1broseidon/winstate/internal/geom"
	"github.com/1broseidon/winstate/internal/ipc"
	"github.com/1broseidon/winstate/internal/resize"
	"github.com/1broseidon/winstate/internal/session"
	"github.com/1broseidon/winstate/internal/snap"
	"github.com/1broseidon/winstate/internal/snapshot"
	"github.com/1broseidon/winstate/internal/tiling"
	"github.com/1broseidon/winstate/internal/wm"
)

const (
	ServerName    = "winstate"
	ServerVersion = "0.1.0"
)

// Backend is the daemon surface the tools drive. *ipc.Client implements it.
type Backend interface {
	GetStatus() (*ipc.StatusData, error)
	GetState() (*ipc.StateData, error)
	Open(d wm.Descriptor) (string, error)
	WindowCommand(cmd ipc.CommandType, id string) (bool, error)
	FocusNext() (bool, error)
	Move(id string, pos geom.Point) (bool, error)
	Resize(id string, r geom.Rect) (bool, error)
	Snap(id string, region snap.Region) (*ipc.SnapData, error)
	Arrange(ids []string, formation string) ([]tiling.Placement, error)

	CreateGroup(ids []string, name string) (*wm.Group, error)
	GroupMember(cmd ipc.CommandType, groupID, windowID string) error
	DestroyGroup(groupID string) error

	StartDrag(id string, pointer geom.Point) (*session.Preview, error)
	StartResize(id string, dir resize.Direction, pointer geom.Point) (*session.Preview, error)
	PointerMove(pointer geom.Point) (*session.Preview, error)
	PointerUp(pointer geom.Point) (*session.Outcome, error)
	Cancel() (*session.Preview, error)

	SaveSnapshot(name string) (*snapshot.Info, error)
	LoadSnapshot(name string) (*snapshot.Info, error)
	ListSnapshots() ([]snapshot.Info, error)
	DeleteSnapshot(name string) error
}

var _ Backend = (*ipc.Client)(nil)

// Server is the MCP server for window state inspection and control.
type Server struct {
	mcpServer *mcpsdk.Server
	backend   Backend
	logger    zerolog.Logger
}

// NewServer creates an MCP server that forwards tool calls to backend.
func NewServer(backend Backend, logger zerolog.Logger) *Server {
	s := &Server{
		backend: backend,
		logger:  logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// jsonResult renders v as indented JSON text content. It is used for results
// carrying enum or timestamp fields whose JSON form differs from their Go
// type, which an inferred output schema would reject.
func jsonResult(v any) (*mcpsdk.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, nil, nil
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_state",
		Description: "Return every window in render order (back to front) with geometry, z-index, state and pins, plus groups, the active window id and the current viewport.",
	}, s.handleGetState)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Return daemon status: window, visible and group counts, the active window, viewport, backend, any gesture in progress and whether unsaved changes exist.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "open_window",
		Description: "Open a window. Opening an id that already exists focuses it instead. Returns the window id.",
	}, s.handleOpenWindow)

	s.addWindowTool("close_window", "Close a window. Closing a group member removes it from its group.", ipc.CommandClose)
	s.addWindowTool("focus_window", "Raise a window to the top of its layer and make it active. Minimized windows are restored.", ipc.CommandFocus)
	s.addWindowTool("minimize_window", "Minimize a window. Focus moves to the next visible window.", ipc.CommandMinimize)
	s.addWindowTool("restore_window", "Restore a minimized window and focus it.", ipc.CommandRestore)
	s.addWindowTool("toggle_focus_minimize", "Taskbar click: focus the window, or minimize it when it is already the active window.", ipc.CommandToggleFocusOrMinimize)
	s.addWindowTool("toggle_maximize", "Maximize a window to the usable viewport, or restore its exact previous geometry.", ipc.CommandToggleMaximize)
	s.addWindowTool("maximize_window", "Maximize a window to the usable viewport.", ipc.CommandMaximize)
	s.addWindowTool("unmaximize_window", "Restore the geometry a window had before it was maximized.", ipc.CommandUnmaximize)
	s.addWindowTool("toggle_always_on_top", "Pin or unpin a window above all unpinned windows.", ipc.CommandToggleAlwaysOnTop)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "focus_next",
		Description: "Cycle focus to the next visible window, like Alt+Tab.",
	}, s.handleFocusNext)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_window",
		Description: "Move a window so its top-left corner is at x,y. Size is unchanged.",
	}, s.handleMoveWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "resize_window",
		Description: "Set a window's geometry. Width and height are clamped to the window's min/max constraints.",
	}, s.handleResizeWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "snap_window",
		Description: "Snap a window to a screen region: left or right half, a quadrant, or top (maximize).",
	}, s.handleSnapWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "drag_window",
		Description: "Simulate a title-bar drag from one pointer position to another. Ending near a screen edge snaps the window; short drags commit nothing.",
	}, s.handleDragWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "resize_by_handle",
		Description: "Simulate dragging a resize handle (n, s, e, w, ne, nw, se, sw) from one pointer position to another. The opposite edges stay fixed.",
	}, s.handleResizeByHandle)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "arrange_windows",
		Description: "Arrange windows in a cascade, tile or stack formation. With no ids every visible application window is arranged.",
	}, s.handleArrange)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "create_group",
		Description: "Group two or more windows. A tab-manager window is opened at the group's bounding layout.",
	}, s.handleCreateGroup)

	s.addGroupMemberTool("group_add", "Add a window to a group.", ipc.CommandGroupAdd)
	s.addGroupMemberTool("group_remove", "Remove a window from a group. A group left with fewer than two members is dissolved.", ipc.CommandGroupRemove)
	s.addGroupMemberTool("switch_tab", "Make a group member the active tab and focus it.", ipc.CommandGroupSwitchTab)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "destroy_group",
		Description: "Dissolve a group and close its tab-manager window. Members stay open.",
	}, s.handleDestroyGroup)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "save_snapshot",
		Description: "Save the full window state under a name.",
	}, s.handleSaveSnapshot)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "load_snapshot",
		Description: "Replace the window state with a saved snapshot. Any gesture in progress is cancelled.",
	}, s.handleLoadSnapshot)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_snapshots",
		Description: "List saved snapshots with window and group counts.",
	}, s.handleListSnapshots)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "delete_snapshot",
		Description: "Delete a saved snapshot.",
	}, s.handleDeleteSnapshot)
}

func (s *Server) addWindowTool(name, description string, cmd ipc.CommandType) {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        name,
		Description: description,
	}, s.windowHandler(cmd))
}

func (s *Server) addGroupMemberTool(name, description string, cmd ipc.CommandType) {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        name,
		Description: description,
	}, s.groupMemberHandler(cmd))
}
