package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/1broseidon/winstate/internal/desktop"
	"github.com/1broseidon/winstate/internal/tiling"
)

// ReloadFunc reloads configuration from disk and applies it.
type ReloadFunc func() error

// Server handles IPC requests from clients
type Server struct {
	socketPath string
	listener   net.Listener
	desk       *desktop.Desktop
	reload     ReloadFunc
	logger     zerolog.Logger
	startTime  time.Time

	conns        sync.WaitGroup
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithReload sets the handler for RELOAD.
func WithReload(fn ReloadFunc) ServerOption {
	return func(s *Server) { s.reload = fn }
}

// WithLogger sets the server logger.
func WithLogger(l zerolog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a server for socketPath. Any stale socket is removed.
func NewServer(socketPath string, desk *desktop.Desktop, opts ...ServerOption) *Server {
	os.Remove(socketPath)

	s := &Server{
		socketPath: socketPath,
		desk:       desk,
		logger:     zerolog.Nop(),
		startTime:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info().Str("socket", s.socketPath).Msg("IPC server listening")

	s.conns.Add(1)
	go func() {
		defer s.conns.Done()
		s.acceptLoop()
	}()
	return nil
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			done := s.shuttingDown
			s.shutdownMu.Unlock()
			if done || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn().Err(err).Msg("IPC accept error")
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection serves one request per connection.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn().Err(err).Msg("IPC read error")
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal response")
		return
	}
	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn().Err(err).Msg("failed to send response")
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	s.logger.Debug().Str("command", string(req.Command)).Msg("IPC request")

	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandGetState:
		return s.handleGetState()

	case CommandOpen:
		return s.handleOpen(req.Payload)
	case CommandClose:
		return s.windowCommand(req.Payload, s.desk.CloseWindow)
	case CommandFocus:
		return s.windowCommand(req.Payload, s.desk.Focus)
	case CommandFocusNext:
		return ok(ChangedData{Changed: s.desk.FocusNext()})
	case CommandMinimize:
		return s.windowCommand(req.Payload, s.desk.Minimize)
	case CommandRestore:
		return s.windowCommand(req.Payload, s.desk.Restore)
	case CommandToggleFocusOrMinimize:
		return s.windowCommand(req.Payload, s.desk.ToggleFocusOrMinimize)
	case CommandToggleAlwaysOnTop:
		return s.windowCommand(req.Payload, s.desk.ToggleAlwaysOnTop)
	case CommandUnmaximize:
		return s.windowCommand(req.Payload, s.desk.Unmaximize)
	case CommandToggleMaximize:
		return s.viewportCommand(req.Payload, s.desk.ToggleMaximize)
	case CommandMaximize:
		return s.viewportCommand(req.Payload, s.desk.Maximize)
	case CommandMove:
		return s.handleMove(req.Payload)
	case CommandResize:
		return s.handleResize(req.Payload)
	case CommandSnap:
		return s.handleSnap(req.Payload)
	case CommandArrange:
		return s.handleArrange(req.Payload)

	case CommandGroupCreate:
		return s.handleGroupCreate(req.Payload)
	case CommandGroupAdd:
		return s.groupMemberCommand(req.Payload, s.desk.Grouping().AddWindow)
	case CommandGroupRemove:
		return s.groupMemberCommand(req.Payload, s.desk.Grouping().RemoveWindow)
	case CommandGroupSwitchTab:
		return s.groupMemberCommand(req.Payload, s.desk.Grouping().SwitchTab)
	case CommandGroupDestroy:
		return s.handleGroupDestroy(req.Payload)

	case CommandDragStart:
		return s.handleDragStart(req.Payload)
	case CommandResizeStart:
		return s.handleResizeStart(req.Payload)
	case CommandPointerMove:
		return s.handlePointerMove(req.Payload)
	case CommandPointerUp:
		return s.handlePointerUp(req.Payload)
	case CommandCancel:
		return ok(s.desk.Sessions().Cancel())

	case CommandSnapshotSave:
		return s.snapshotCommand(req.Payload, func(name string) (any, error) { return s.desk.SaveSnapshot(name) })
	case CommandSnapshotLoad:
		return s.snapshotCommand(req.Payload, func(name string) (any, error) { return s.desk.LoadSnapshot(name) })
	case CommandSnapshotDelete:
		return s.snapshotCommand(req.Payload, func(name string) (any, error) { return nil, s.desk.DeleteSnapshot(name) })
	case CommandSnapshotList:
		infos, err := s.desk.ListSnapshots()
		if err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to list snapshots: %v", err))
		}
		return ok(infos)

	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func ok(data any) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func decode(payload json.RawMessage, out any) error {
	if len(payload) == 0 {
		return fmt.Errorf("payload is required")
	}
	return json.Unmarshal(payload, out)
}

func (s *Server) handleReload() *Response {
	if s.reload == nil {
		return NewErrorResponse("reload is not supported")
	}
	if err := s.reload(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	s.logger.Info().Msg("config reloaded via IPC")
	return ok(nil)
}

func (s *Server) handleGetStatus() *Response {
	return ok(StatusData{
		Status:        s.desk.Status(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	})
}

func (s *Server) handleGetState() *Response {
	state := s.desk.Registry().Snapshot()
	data := StateData{
		Stack:    state.Stack(),
		Groups:   state.SortedGroups(),
		ActiveID: state.ActiveID,
	}
	if vp, err := s.desk.Viewport(); err == nil {
		data.Viewport = vp
	}
	return ok(data)
}

func (s *Server) handleOpen(payload json.RawMessage) *Response {
	var req OpenPayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid open payload: %v", err))
	}
	return ok(OpenData{ID: s.desk.Open(req)})
}

func (s *Server) windowCommand(payload json.RawMessage, fn func(id string) bool) *Response {
	var req WindowPayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid window payload: %v", err))
	}
	return ok(ChangedData{Changed: fn(req.ID)})
}

func (s *Server) viewportCommand(payload json.RawMessage, fn func(id string) (bool, error)) *Response {
	var req WindowPayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid window payload: %v", err))
	}
	changed, err := fn(req.ID)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(ChangedData{Changed: changed})
}

func (s *Server) handleMove(payload json.RawMessage) *Response {
	var req MovePayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid move payload: %v", err))
	}
	return ok(ChangedData{Changed: s.desk.Move(req.ID, req.Position)})
}

func (s *Server) handleResize(payload json.RawMessage) *Response {
	var req ResizePayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid resize payload: %v", err))
	}
	return ok(ChangedData{Changed: s.desk.Resize(req.ID, req.Geometry)})
}

func (s *Server) handleSnap(payload json.RawMessage) *Response {
	var req SnapPayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid snap payload: %v", err))
	}
	target, changed, err := s.desk.SnapWindow(req.ID, req.Region)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(SnapData{Target: target, Changed: changed})
}

func (s *Server) handleArrange(payload json.RawMessage) *Response {
	var req ArrangePayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid arrange payload: %v", err))
	}
	f, err := tiling.ParseFormation(req.Formation)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	placements, err := s.desk.Arrange(req.IDs, f)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(placements)
}

func (s *Server) handleGroupCreate(payload json.RawMessage) *Response {
	var req GroupCreatePayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid group payload: %v", err))
	}
	g, err := s.desk.Grouping().CreateGroup(req.IDs, req.Name)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(g)
}

func (s *Server) groupMemberCommand(payload json.RawMessage, fn func(groupID, windowID string) error) *Response {
	var req GroupMemberPayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid group payload: %v", err))
	}
	if err := fn(req.GroupID, req.WindowID); err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(nil)
}

func (s *Server) handleGroupDestroy(payload json.RawMessage) *Response {
	var req GroupPayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid group payload: %v", err))
	}
	if err := s.desk.Grouping().DestroyGroup(req.GroupID); err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(nil)
}

func (s *Server) handleDragStart(payload json.RawMessage) *Response {
	var req DragStartPayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid drag payload: %v", err))
	}
	p, err := s.desk.Sessions().StartDrag(req.ID, req.Pointer)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(p)
}

func (s *Server) handleResizeStart(payload json.RawMessage) *Response {
	var req ResizeStartPayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid resize payload: %v", err))
	}
	p, err := s.desk.Sessions().StartResize(req.ID, req.Direction, req.Pointer)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(p)
}

func (s *Server) handlePointerMove(payload json.RawMessage) *Response {
	var req PointerPayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid pointer payload: %v", err))
	}
	p, err := s.desk.Sessions().OnPointerMove(req.Pointer)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(p)
}

func (s *Server) handlePointerUp(payload json.RawMessage) *Response {
	var req PointerPayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid pointer payload: %v", err))
	}
	out, err := s.desk.Sessions().OnPointerUp(req.Pointer)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(out)
}

func (s *Server) snapshotCommand(payload json.RawMessage, fn func(name string) (any, error)) *Response {
	var req SnapshotPayload
	if err := decode(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid snapshot payload: %v", err))
	}
	data, err := fn(req.Name)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(data)
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	data, _ := NewErrorResponse(errMsg).Marshal()
	conn.Write(append(data, '\n'))
}

// Stop closes the listener, waits for in-flight requests and removes the
// socket.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return
	}
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.conns.Wait()
	os.Remove(s.socketPath)
	s.logger.Info().Msg("IPC server stopped")
}
