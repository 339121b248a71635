// Package tui is an interactive inspector for a running winstate daemon.
package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/winstate/internal/ipc"
	"github.com/1broseidon/winstate/internal/snap"
	"github.com/1broseidon/winstate/internal/snapshot"
	"github.com/1broseidon/winstate/internal/tiling"
)

// Backend is the daemon surface the inspector drives.
type Backend interface {
	GetStatus() (*ipc.StatusData, error)
	GetState() (*ipc.StateData, error)
	WindowCommand(cmd ipc.CommandType, id string) (bool, error)
	FocusNext() (bool, error)
	Snap(id string, region snap.Region) (*ipc.SnapData, error)
	Arrange(ids []string, formation string) ([]tiling.Placement, error)
	GroupMember(cmd ipc.CommandType, groupID, windowID string) error
	DestroyGroup(groupID string) error
	ListSnapshots() ([]snapshot.Info, error)
	SaveSnapshot(name string) (*snapshot.Info, error)
	LoadSnapshot(name string) (*snapshot.Info, error)
	DeleteSnapshot(name string) error
}

var _ Backend = (*ipc.Client)(nil)

// Run starts the inspector and blocks until the user quits.
func Run(backend Backend) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}
	if _, err := backend.GetStatus(); err != nil {
		return fmt.Errorf("daemon not reachable: %w", err)
	}

	p := tea.NewProgram(newModel(backend), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui failed: %w", err)
	}
	return nil
}
