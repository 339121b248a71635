package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/winstate/internal/desktop"
	"github.com/1broseidon/winstate/internal/geom"
	"github.com/1broseidon/winstate/internal/resize"
	"github.com/1broseidon/winstate/internal/snap"
	"github.com/1broseidon/winstate/internal/wm"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload    CommandType = "RELOAD"
	CommandGetStatus CommandType = "GET_STATUS"
	CommandGetState  CommandType = "GET_STATE"

	CommandOpen                  CommandType = "OPEN"
	CommandClose                 CommandType = "CLOSE"
	CommandFocus                 CommandType = "FOCUS"
	CommandFocusNext             CommandType = "FOCUS_NEXT"
	CommandMinimize              CommandType = "MINIMIZE"
	CommandRestore               CommandType = "RESTORE"
	CommandToggleFocusOrMinimize CommandType = "TOGGLE_FOCUS_MINIMIZE"
	CommandToggleMaximize        CommandType = "TOGGLE_MAXIMIZE"
	CommandMaximize              CommandType = "MAXIMIZE"
	CommandUnmaximize            CommandType = "UNMAXIMIZE"
	CommandToggleAlwaysOnTop     CommandType = "TOGGLE_ALWAYS_ON_TOP"
	CommandMove                  CommandType = "MOVE"
	CommandResize                CommandType = "RESIZE"
	CommandSnap                  CommandType = "SNAP"
	CommandArrange               CommandType = "ARRANGE"

	CommandGroupCreate    CommandType = "GROUP_CREATE"
	CommandGroupAdd       CommandType = "GROUP_ADD"
	CommandGroupRemove    CommandType = "GROUP_REMOVE"
	CommandGroupSwitchTab CommandType = "GROUP_SWITCH_TAB"
	CommandGroupDestroy   CommandType = "GROUP_DESTROY"

	CommandDragStart   CommandType = "DRAG_START"
	CommandResizeStart CommandType = "RESIZE_START"
	CommandPointerMove CommandType = "POINTER_MOVE"
	CommandPointerUp   CommandType = "POINTER_UP"
	CommandCancel      CommandType = "CANCEL"

	CommandSnapshotSave   CommandType = "SNAPSHOT_SAVE"
	CommandSnapshotLoad   CommandType = "SNAPSHOT_LOAD"
	CommandSnapshotList   CommandType = "SNAPSHOT_LIST"
	CommandSnapshotDelete CommandType = "SNAPSHOT_DELETE"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	desktop.Status
	UptimeSeconds int64 `json:"uptime_seconds"`
	DaemonRunning bool  `json:"daemon_running"`
}

// StateData is the render-facing view returned by GET_STATE.
type StateData struct {
	// Stack lists windows back to front.
	Stack    []wm.Window   `json:"stack"`
	Groups   []wm.Group    `json:"groups"`
	ActiveID string        `json:"active_id,omitempty"`
	Viewport geom.Viewport `json:"viewport"`
}

// ChangedData reports whether a command changed registry state.
type ChangedData struct {
	Changed bool `json:"changed"`
}

type OpenData struct {
	ID string `json:"id"`
}

type SnapData struct {
	Target  snap.Target `json:"target"`
	Changed bool        `json:"changed"`
}

// OpenPayload describes the window to open.
type OpenPayload = wm.Descriptor

type WindowPayload struct {
	ID string `json:"id"`
}

type MovePayload struct {
	ID       string     `json:"id"`
	Position geom.Point `json:"position"`
}

type ResizePayload struct {
	ID       string    `json:"id"`
	Geometry geom.Rect `json:"geometry"`
}

type SnapPayload struct {
	ID     string      `json:"id"`
	Region snap.Region `json:"region"`
}

type ArrangePayload struct {
	IDs       []string `json:"ids,omitempty"`
	Formation string   `json:"formation"`
}

type GroupCreatePayload struct {
	IDs  []string `json:"ids"`
	Name string   `json:"name,omitempty"`
}

type GroupMemberPayload struct {
	GroupID  string `json:"group_id"`
	WindowID string `json:"window_id"`
}

type GroupPayload struct {
	GroupID string `json:"group_id"`
}

type DragStartPayload struct {
	ID      string     `json:"id"`
	Pointer geom.Point `json:"pointer"`
}

type ResizeStartPayload struct {
	ID        string           `json:"id"`
	Direction resize.Direction `json:"direction"`
	Pointer   geom.Point       `json:"pointer"`
}

type PointerPayload struct {
	Pointer geom.Point `json:"pointer"`
}

type SnapshotPayload struct {
	Name string `json:"name"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("failed to parse request: command is required")
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
