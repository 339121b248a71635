package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/winstate/internal/geom"
	"github.com/1broseidon/winstate/internal/resize"
	"github.com/1broseidon/winstate/internal/runtimepath"
	"github.com/1broseidon/winstate/internal/session"
	"github.com/1broseidon/winstate/internal/snap"
	"github.com/1broseidon/winstate/internal/snapshot"
	"github.com/1broseidon/winstate/internal/tiling"
	"github.com/1broseidon/winstate/internal/wm"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the default socket path.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientForSocket(socketPath)
}

// NewClientForSocket creates a client for an explicit socket path.
func NewClientForSocket(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return &resp, nil
}

// call sends cmd with payload and decodes the response data into out when
// out is non-nil.
func (c *Client) call(cmd CommandType, payload any, out any) error {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = data
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

func (c *Client) changed(cmd CommandType, payload any) (bool, error) {
	var data ChangedData
	err := c.call(cmd, payload, &data)
	return data.Changed, err
}

// Reload asks the daemon to reload its config file.
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetState retrieves the render-order window stack and groups.
func (c *Client) GetState() (*StateData, error) {
	var state StateData
	if err := c.call(CommandGetState, nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}

// Open opens a window and returns its id.
func (c *Client) Open(d wm.Descriptor) (string, error) {
	var data OpenData
	if err := c.call(CommandOpen, d, &data); err != nil {
		return "", err
	}
	return data.ID, nil
}

// WindowCommand sends one of the single-window commands (CLOSE, FOCUS,
// MINIMIZE, RESTORE, TOGGLE_FOCUS_MINIMIZE, TOGGLE_MAXIMIZE, MAXIMIZE,
// UNMAXIMIZE, TOGGLE_ALWAYS_ON_TOP).
func (c *Client) WindowCommand(cmd CommandType, id string) (bool, error) {
	return c.changed(cmd, WindowPayload{ID: id})
}

func (c *Client) FocusNext() (bool, error) {
	return c.changed(CommandFocusNext, nil)
}

func (c *Client) Move(id string, pos geom.Point) (bool, error) {
	return c.changed(CommandMove, MovePayload{ID: id, Position: pos})
}

func (c *Client) Resize(id string, r geom.Rect) (bool, error) {
	return c.changed(CommandResize, ResizePayload{ID: id, Geometry: r})
}

// Snap applies a snap region layout to id.
func (c *Client) Snap(id string, region snap.Region) (*SnapData, error) {
	var data SnapData
	if err := c.call(CommandSnap, SnapPayload{ID: id, Region: region}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Arrange lays out ids (all visible windows when empty) in formation.
func (c *Client) Arrange(ids []string, formation string) ([]tiling.Placement, error) {
	var placements []tiling.Placement
	err := c.call(CommandArrange, ArrangePayload{IDs: ids, Formation: formation}, &placements)
	return placements, err
}

func (c *Client) CreateGroup(ids []string, name string) (*wm.Group, error) {
	var g wm.Group
	if err := c.call(CommandGroupCreate, GroupCreatePayload{IDs: ids, Name: name}, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// GroupMember sends GROUP_ADD, GROUP_REMOVE or GROUP_SWITCH_TAB.
func (c *Client) GroupMember(cmd CommandType, groupID, windowID string) error {
	return c.call(cmd, GroupMemberPayload{GroupID: groupID, WindowID: windowID}, nil)
}

func (c *Client) DestroyGroup(groupID string) error {
	return c.call(CommandGroupDestroy, GroupPayload{GroupID: groupID}, nil)
}

func (c *Client) StartDrag(id string, pointer geom.Point) (*session.Preview, error) {
	var p session.Preview
	if err := c.call(CommandDragStart, DragStartPayload{ID: id, Pointer: pointer}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) StartResize(id string, dir resize.Direction, pointer geom.Point) (*session.Preview, error) {
	var p session.Preview
	if err := c.call(CommandResizeStart, ResizeStartPayload{ID: id, Direction: dir, Pointer: pointer}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) PointerMove(pointer geom.Point) (*session.Preview, error) {
	var p session.Preview
	if err := c.call(CommandPointerMove, PointerPayload{Pointer: pointer}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) PointerUp(pointer geom.Point) (*session.Outcome, error) {
	var out session.Outcome
	if err := c.call(CommandPointerUp, PointerPayload{Pointer: pointer}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Cancel() (*session.Preview, error) {
	var p session.Preview
	if err := c.call(CommandCancel, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) SaveSnapshot(name string) (*snapshot.Info, error) {
	var info snapshot.Info
	if err := c.call(CommandSnapshotSave, SnapshotPayload{Name: name}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) LoadSnapshot(name string) (*snapshot.Info, error) {
	var info snapshot.Info
	if err := c.call(CommandSnapshotLoad, SnapshotPayload{Name: name}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) ListSnapshots() ([]snapshot.Info, error) {
	var infos []snapshot.Info
	err := c.call(CommandSnapshotList, nil, &infos)
	return infos, err
}

func (c *Client) DeleteSnapshot(name string) error {
	return c.call(CommandSnapshotDelete, SnapshotPayload{Name: name}, nil)
}
