package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/winstate/internal/geom"
	"github.com/1broseidon/winstate/internal/ipc"
	"github.com/1broseidon/winstate/internal/resize"
	"github.com/1broseidon/winstate/internal/snap"
	"github.com/1broseidon/winstate/internal/wm"
)

var defaultOpenGeometry = geom.R(40, 40, 400, 300)

func requireID(tool, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%s: id is required", tool)
	}
	return nil
}

func (s *Server) handleGetState(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, any, error) {
	state, err := s.backend.GetState()
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(GetStateOutput{
		Windows:  state.Stack,
		Groups:   state.Groups,
		ActiveID: state.ActiveID,
		Viewport: state.Viewport,
	})
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, any, error) {
	status, err := s.backend.GetStatus()
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(GetStatusOutput{StatusData: *status})
}

func (s *Server) handleOpenWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args OpenWindowInput) (*mcpsdk.CallToolResult, OpenWindowOutput, error) {
	geometry := defaultOpenGeometry
	if args.Geometry != nil {
		geometry = *args.Geometry
	}
	id, err := s.backend.Open(wm.Descriptor{
		ID:           args.ID,
		DisplayName:  args.DisplayName,
		Icon:         args.Icon,
		ComponentKey: args.ComponentKey,
		AlwaysOnTop:  args.AlwaysOnTop,
		Geometry:     geometry,
	})
	if err != nil {
		return nil, OpenWindowOutput{}, err
	}
	s.logger.Info().Str("tool", "open_window").Str("window", id).Msg("window opened")
	return nil, OpenWindowOutput{ID: id}, nil
}

func (s *Server) windowHandler(cmd ipc.CommandType) mcpsdk.ToolHandlerFor[WindowInput, ChangedOutput] {
	return func(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, ChangedOutput, error) {
		if err := requireID(string(cmd), args.ID); err != nil {
			return nil, ChangedOutput{}, err
		}
		changed, err := s.backend.WindowCommand(cmd, args.ID)
		if err != nil {
			return nil, ChangedOutput{}, err
		}
		s.logger.Debug().Str("command", string(cmd)).Str("window", args.ID).Bool("changed", changed).Msg("window command")
		return nil, ChangedOutput{Changed: changed}, nil
	}
}

func (s *Server) handleFocusNext(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ChangedOutput, error) {
	changed, err := s.backend.FocusNext()
	if err != nil {
		return nil, ChangedOutput{}, err
	}
	return nil, ChangedOutput{Changed: changed}, nil
}

func (s *Server) handleMoveWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveWindowInput) (*mcpsdk.CallToolResult, ChangedOutput, error) {
	if err := requireID("move_window", args.ID); err != nil {
		return nil, ChangedOutput{}, err
	}
	changed, err := s.backend.Move(args.ID, geom.Point{X: args.X, Y: args.Y})
	if err != nil {
		return nil, ChangedOutput{}, err
	}
	return nil, ChangedOutput{Changed: changed}, nil
}

func (s *Server) handleResizeWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args ResizeWindowInput) (*mcpsdk.CallToolResult, ChangedOutput, error) {
	if err := requireID("resize_window", args.ID); err != nil {
		return nil, ChangedOutput{}, err
	}
	changed, err := s.backend.Resize(args.ID, args.Geometry)
	if err != nil {
		return nil, ChangedOutput{}, err
	}
	return nil, ChangedOutput{Changed: changed}, nil
}

func (s *Server) handleSnapWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args SnapWindowInput) (*mcpsdk.CallToolResult, SnapWindowOutput, error) {
	if err := requireID("snap_window", args.ID); err != nil {
		return nil, SnapWindowOutput{}, err
	}
	region, err := snap.ParseRegion(args.Region)
	if err != nil {
		return nil, SnapWindowOutput{}, err
	}
	data, err := s.backend.Snap(args.ID, region)
	if err != nil {
		return nil, SnapWindowOutput{}, err
	}
	return nil, SnapWindowOutput{Target: data.Target, Changed: data.Changed}, nil
}

// finishGesture moves the pointer to `to` and releases it. A failed move
// cancels the gesture so the daemon is left idle.
func (s *Server) finishGesture(to geom.Point) (*mcpsdk.CallToolResult, any, error) {
	preview, err := s.backend.PointerMove(to)
	if err != nil {
		s.backend.Cancel()
		return nil, nil, err
	}
	outcome, err := s.backend.PointerUp(to)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(GestureOutput{Preview: *preview, Outcome: *outcome})
}

func (s *Server) handleDragWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args DragWindowInput) (*mcpsdk.CallToolResult, any, error) {
	if err := requireID("drag_window", args.ID); err != nil {
		return nil, nil, err
	}
	if _, err := s.backend.StartDrag(args.ID, args.From); err != nil {
		return nil, nil, err
	}
	return s.finishGesture(args.To)
}

func (s *Server) handleResizeByHandle(_ context.Context, _ *mcpsdk.CallToolRequest, args ResizeByHandleInput) (*mcpsdk.CallToolResult, any, error) {
	if err := requireID("resize_by_handle", args.ID); err != nil {
		return nil, nil, err
	}
	dir, err := resize.Parse(args.Direction)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.backend.StartResize(args.ID, dir, args.From); err != nil {
		return nil, nil, err
	}
	return s.finishGesture(args.To)
}

func (s *Server) handleArrange(_ context.Context, _ *mcpsdk.CallToolRequest, args ArrangeInput) (*mcpsdk.CallToolResult, ArrangeOutput, error) {
	placements, err := s.backend.Arrange(args.IDs, args.Formation)
	if err != nil {
		return nil, ArrangeOutput{}, err
	}
	return nil, ArrangeOutput{Placements: placements}, nil
}

func (s *Server) handleCreateGroup(_ context.Context, _ *mcpsdk.CallToolRequest, args CreateGroupInput) (*mcpsdk.CallToolResult, any, error) {
	g, err := s.backend.CreateGroup(args.IDs, args.Name)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info().Str("tool", "create_group").Str("group", g.ID).Int("members", len(g.Members)).Msg("group created")
	return jsonResult(GroupOutput{Group: *g})
}

func (s *Server) groupMemberHandler(cmd ipc.CommandType) mcpsdk.ToolHandlerFor[GroupMemberInput, OKOutput] {
	return func(_ context.Context, _ *mcpsdk.CallToolRequest, args GroupMemberInput) (*mcpsdk.CallToolResult, OKOutput, error) {
		if err := s.backend.GroupMember(cmd, args.GroupID, args.WindowID); err != nil {
			return nil, OKOutput{}, err
		}
		return nil, OKOutput{OK: true}, nil
	}
}

func (s *Server) handleDestroyGroup(_ context.Context, _ *mcpsdk.CallToolRequest, args GroupInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	if err := s.backend.DestroyGroup(args.GroupID); err != nil {
		return nil, OKOutput{}, err
	}
	return nil, OKOutput{OK: true}, nil
}

func (s *Server) handleSaveSnapshot(_ context.Context, _ *mcpsdk.CallToolRequest, args SnapshotInput) (*mcpsdk.CallToolResult, any, error) {
	info, err := s.backend.SaveSnapshot(args.Name)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(SnapshotOutput{Snapshot: *info})
}

func (s *Server) handleLoadSnapshot(_ context.Context, _ *mcpsdk.CallToolRequest, args SnapshotInput) (*mcpsdk.CallToolResult, any, error) {
	info, err := s.backend.LoadSnapshot(args.Name)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(SnapshotOutput{Snapshot: *info})
}

func (s *Server) handleListSnapshots(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, any, error) {
	infos, err := s.backend.ListSnapshots()
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(ListSnapshotsOutput{Snapshots: infos})
}

func (s *Server) handleDeleteSnapshot(_ context.Context, _ *mcpsdk.CallToolRequest, args SnapshotInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	if err := s.backend.DeleteSnapshot(args.Name); err != nil {
		return nil, OKOutput{}, err
	}
	return nil, OKOutput{OK: true}, nil
}
