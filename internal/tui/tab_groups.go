package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/winstate/internal/ipc"
	"github.com/1broseidon/winstate/internal/wm"
)

type groupItem struct {
	group wm.Group
}

func (i groupItem) Title() string {
	name := i.group.Name
	if name == "" {
		name = i.group.ID
	}
	return fmt.Sprintf("%s (%d tabs)", name, len(i.group.Members))
}

func (i groupItem) Description() string {
	return "active: " + i.group.ActiveMember
}

func (i groupItem) FilterValue() string { return i.group.Name }

// nextMember returns the member after the active one, wrapping around.
func nextMember(g wm.Group) string {
	if len(g.Members) == 0 {
		return ""
	}
	for i, id := range g.Members {
		if id == g.ActiveMember {
			return g.Members[(i+1)%len(g.Members)]
		}
	}
	return g.Members[0]
}

// GroupsTab lists window groups and the members of the selected one.
type GroupsTab struct {
	list    list.Model
	backend Backend
	names   map[string]string
	width   int
	height  int
}

func NewGroupsTab(backend Backend) GroupsTab {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Groups"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	return GroupsTab{list: l, backend: backend}
}

func (t GroupsTab) selected() (wm.Group, bool) {
	item, ok := t.list.SelectedItem().(groupItem)
	return item.group, ok
}

func (t *GroupsTab) SetState(state *ipc.StateData) tea.Cmd {
	if state == nil {
		return nil
	}
	prev, _ := t.selected()

	t.names = make(map[string]string, len(state.Stack))
	for _, w := range state.Stack {
		t.names[w.ID] = w.DisplayName
	}

	items := make([]list.Item, 0, len(state.Groups))
	for _, g := range state.Groups {
		items = append(items, groupItem{group: g})
	}
	cmd := t.list.SetItems(items)
	for i, g := range state.Groups {
		if g.ID == prev.ID {
			t.list.Select(i)
			break
		}
	}
	return cmd
}

func (t GroupsTab) Update(msg tea.Msg) (GroupsTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		t.width = msg.Width
		t.height = msg.Height
		t.list.SetSize(t.width/2, msg.Height)
		return t, nil

	case tea.KeyMsg:
		g, ok := t.selected()
		switch msg.String() {
		case "n", "enter":
			if !ok {
				return t, nil
			}
			return t, groupMemberCommand(t.backend, ipc.CommandGroupSwitchTab, g.ID, nextMember(g))
		case "x":
			if !ok {
				return t, nil
			}
			return t, groupMemberCommand(t.backend, ipc.CommandGroupRemove, g.ID, g.ActiveMember)
		case "D":
			if !ok {
				return t, nil
			}
			return t, destroyGroupCommand(t.backend, g.ID)
		}
	}

	var cmd tea.Cmd
	t.list, cmd = t.list.Update(msg)
	return t, cmd
}

func (t GroupsTab) View() string {
	g, ok := t.selected()
	if !ok {
		return renderEmpty("no groups", t.width, t.height)
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Members"))
	b.WriteString("\n")
	for _, id := range g.Members {
		marker := "  "
		if id == g.ActiveMember {
			marker = "▸ "
		}
		line := marker + id
		if name := t.names[id]; name != "" && name != id {
			line += dimStyle.Render("  " + name)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
	r := g.Bounds
	b.WriteString(dimStyle.Render(fmt.Sprintf("bounds %.0f,%.0f %.0fx%.0f", r.Position.X, r.Position.Y, r.Size.W, r.Size.H)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("manager " + g.ManagerID))

	return lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(t.width/2).Render(t.list.View()),
		"  ",
		b.String(),
	)
}

func groupMemberCommand(b Backend, cmd ipc.CommandType, groupID, windowID string) tea.Cmd {
	if windowID == "" {
		return nil
	}
	return func() tea.Msg {
		if err := b.GroupMember(cmd, groupID, windowID); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: fmt.Sprintf("%s %s in %s", strings.ToLower(string(cmd)), windowID, groupID)}
	}
}

func destroyGroupCommand(b Backend, groupID string) tea.Cmd {
	return func() tea.Msg {
		if err := b.DestroyGroup(groupID); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: "destroyed group " + groupID}
	}
}
