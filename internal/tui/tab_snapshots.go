package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/winstate/internal/snapshot"
)

type snapshotItem struct {
	info snapshot.Info
}

func (i snapshotItem) Title() string { return i.info.Name }

func (i snapshotItem) Description() string {
	return fmt.Sprintf("%s  %d windows  %d groups", i.info.SavedAt.Local().Format("2006-01-02 15:04:05"), i.info.Windows, i.info.Groups)
}

func (i snapshotItem) FilterValue() string { return i.info.Name }

// SnapshotsTab lists saved snapshots and saves new ones.
type SnapshotsTab struct {
	list    list.Model
	input   textinput.Model
	backend Backend
	naming  bool
	width   int
	height  int
}

func NewSnapshotsTab(backend Backend) SnapshotsTab {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Snapshots"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)

	ti := textinput.New()
	ti.Placeholder = "snapshot name"
	ti.CharLimit = 64

	return SnapshotsTab{list: l, input: ti, backend: backend}
}

func (t *SnapshotsTab) SetSnapshots(infos []snapshot.Info) tea.Cmd {
	selected := t.selectedName()
	items := make([]list.Item, 0, len(infos))
	for _, info := range infos {
		items = append(items, snapshotItem{info: info})
	}
	cmd := t.list.SetItems(items)
	for i, info := range infos {
		if info.Name == selected {
			t.list.Select(i)
			break
		}
	}
	return cmd
}

func (t SnapshotsTab) selectedName() string {
	item, ok := t.list.SelectedItem().(snapshotItem)
	if !ok {
		return ""
	}
	return item.info.Name
}

func (t SnapshotsTab) Update(msg tea.Msg) (SnapshotsTab, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		t.width = size.Width
		t.height = size.Height
		t.list.SetSize(size.Width, size.Height-2)
		return t, nil
	}

	if t.naming {
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.String() {
			case "enter":
				name := strings.TrimSpace(t.input.Value())
				t.naming = false
				t.input.Blur()
				t.input.SetValue("")
				if name == "" {
					return t, nil
				}
				return t, saveSnapshotCommand(t.backend, name)
			case "esc":
				t.naming = false
				t.input.Blur()
				t.input.SetValue("")
				return t, nil
			}
		}
		var cmd tea.Cmd
		t.input, cmd = t.input.Update(msg)
		return t, cmd
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		name := t.selectedName()
		switch key.String() {
		case "s":
			t.naming = true
			return t, t.input.Focus()
		case "enter":
			if name == "" {
				return t, nil
			}
			return t, loadSnapshotCommand(t.backend, name)
		case "x", "delete":
			if name == "" {
				return t, nil
			}
			return t, deleteSnapshotCommand(t.backend, name)
		case "r":
			return t, loadSnapshotsCmd(t.backend)
		}
	}

	var cmd tea.Cmd
	t.list, cmd = t.list.Update(msg)
	return t, cmd
}

func (t SnapshotsTab) View() string {
	var footer string
	if t.naming {
		footer = "Save as: " + t.input.View()
	}
	if len(t.list.Items()) == 0 {
		return renderEmpty("no snapshots saved", t.width, t.height-2) + "\n" + footer
	}
	return t.list.View() + "\n" + footer
}

func saveSnapshotCommand(b Backend, name string) tea.Cmd {
	return func() tea.Msg {
		info, err := b.SaveSnapshot(name)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: fmt.Sprintf("saved %q (%d windows)", info.Name, info.Windows)}
	}
}

func loadSnapshotCommand(b Backend, name string) tea.Cmd {
	return func() tea.Msg {
		info, err := b.LoadSnapshot(name)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: fmt.Sprintf("loaded %q (%d windows)", info.Name, info.Windows)}
	}
}

func deleteSnapshotCommand(b Backend, name string) tea.Cmd {
	return func() tea.Msg {
		if err := b.DeleteSnapshot(name); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: fmt.Sprintf("deleted %q", name)}
	}
}
