package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/winstate/internal/ipc"
	"github.com/1broseidon/winstate/internal/snap"
	"github.com/1broseidon/winstate/internal/tiling"
	"github.com/1broseidon/winstate/internal/wm"
)

type windowItem struct {
	win    wm.Window
	num    int
	active bool
}

func (i windowItem) Title() string {
	name := i.win.DisplayName
	if name == "" {
		name = i.win.ID
	}
	var flags []string
	if i.active {
		flags = append(flags, "active")
	}
	if i.win.State != wm.StateNormal {
		flags = append(flags, i.win.State.String())
	}
	if i.win.AlwaysOnTop {
		flags = append(flags, "pinned")
	}
	if i.win.Kind == wm.KindTabManager {
		flags = append(flags, "tabs")
	}
	title := fmt.Sprintf("%d. %s", i.num, name)
	if len(flags) > 0 {
		title += " [" + strings.Join(flags, ",") + "]"
	}
	return title
}

func (i windowItem) Description() string {
	g := i.win.Geometry
	return fmt.Sprintf("%s  %.0f,%.0f %.0fx%.0f  z=%d", i.win.ID, g.Position.X, g.Position.Y, g.Size.W, g.Size.H, i.win.ZIndex)
}

func (i windowItem) FilterValue() string { return i.win.ID + " " + i.win.DisplayName }

// WindowsTab lists windows top of stack first beside a scaled preview.
type WindowsTab struct {
	list    list.Model
	backend Backend
	state   *ipc.StateData
	width   int
	height  int
}

func NewWindowsTab(backend Backend) WindowsTab {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Windows"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	return WindowsTab{list: l, backend: backend}
}

// SelectedID returns the id of the highlighted window, if any.
func (t WindowsTab) SelectedID() string {
	item, ok := t.list.SelectedItem().(windowItem)
	if !ok {
		return ""
	}
	return item.win.ID
}

// SetState replaces the list contents, keeping the selection on the same
// window when it still exists.
func (t *WindowsTab) SetState(state *ipc.StateData) tea.Cmd {
	if state == nil {
		return nil
	}
	selected := t.SelectedID()
	t.state = state

	items := make([]list.Item, 0, len(state.Stack))
	for i := len(state.Stack) - 1; i >= 0; i-- {
		w := state.Stack[i]
		items = append(items, windowItem{win: w, num: len(state.Stack) - i, active: w.ID == state.ActiveID})
	}
	cmd := t.list.SetItems(items)
	for i, item := range items {
		if item.(windowItem).win.ID == selected {
			t.list.Select(i)
			break
		}
	}
	return cmd
}

func (t WindowsTab) listWidth() int {
	w := t.width * 2 / 5
	if w < 24 {
		w = 24
	}
	return w
}

func (t WindowsTab) Update(msg tea.Msg) (WindowsTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		t.width = msg.Width
		t.height = msg.Height
		t.list.SetSize(t.listWidth(), msg.Height)
		return t, nil

	case tea.KeyMsg:
		id := t.SelectedID()
		switch msg.String() {
		case "enter", "f":
			return t, windowCommand(t.backend, ipc.CommandFocus, id)
		case "m":
			return t, windowCommand(t.backend, ipc.CommandToggleFocusOrMinimize, id)
		case "r":
			return t, windowCommand(t.backend, ipc.CommandRestore, id)
		case "z":
			return t, windowCommand(t.backend, ipc.CommandToggleMaximize, id)
		case "p":
			return t, windowCommand(t.backend, ipc.CommandToggleAlwaysOnTop, id)
		case "x", "delete":
			return t, windowCommand(t.backend, ipc.CommandClose, id)
		case "[":
			return t, snapCommand(t.backend, id, snap.RegionLeft)
		case "]":
			return t, snapCommand(t.backend, id, snap.RegionRight)
		case "c":
			return t, arrangeCommand(t.backend, tiling.FormationCascade)
		case "t":
			return t, arrangeCommand(t.backend, tiling.FormationTile)
		case "s":
			return t, arrangeCommand(t.backend, tiling.FormationStack)
		case "n":
			return t, focusNextCommand(t.backend)
		}
	}

	var cmd tea.Cmd
	t.list, cmd = t.list.Update(msg)
	return t, cmd
}

func (t WindowsTab) View() string {
	if t.state == nil || len(t.state.Stack) == 0 {
		return renderEmpty("no windows open", t.width, t.height)
	}
	previewW := t.width - t.listWidth() - 2
	previewH := t.height - 2
	lines := renderViewport(t.state.Stack, t.state.Viewport, t.SelectedID(), previewW, previewH)

	header := headerStyle.Render(fmt.Sprintf("Viewport %.0fx%.0f (usable %.0f)",
		t.state.Viewport.Width, t.state.Viewport.Height, t.state.Viewport.UsableHeight()))
	preview := lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(lines, "\n"))
	return lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(t.listWidth()).Render(t.list.View()),
		"  ",
		preview,
	)
}

func windowCommand(b Backend, cmd ipc.CommandType, id string) tea.Cmd {
	if id == "" {
		return nil
	}
	return func() tea.Msg {
		changed, err := b.WindowCommand(cmd, id)
		if err != nil {
			return actionMsg{err: err}
		}
		text := strings.ToLower(string(cmd)) + " " + id
		if !changed {
			text += " (no change)"
		}
		return actionMsg{text: text}
	}
}

func snapCommand(b Backend, id string, region snap.Region) tea.Cmd {
	if id == "" {
		return nil
	}
	return func() tea.Msg {
		data, err := b.Snap(id, region)
		if err != nil {
			return actionMsg{err: err}
		}
		r := data.Target.Rect
		return actionMsg{text: fmt.Sprintf("snapped %s %s to %.0f,%.0f %.0fx%.0f", id, region, r.Position.X, r.Position.Y, r.Size.W, r.Size.H)}
	}
}

func arrangeCommand(b Backend, f tiling.Formation) tea.Cmd {
	return func() tea.Msg {
		placements, err := b.Arrange(nil, string(f))
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: fmt.Sprintf("%s: arranged %d windows", f, len(placements))}
	}
}

func focusNextCommand(b Backend) tea.Cmd {
	return func() tea.Msg {
		changed, err := b.FocusNext()
		if err != nil {
			return actionMsg{err: err}
		}
		if !changed {
			return actionMsg{text: "no other visible window"}
		}
		return actionMsg{text: "focused next window"}
	}
}
