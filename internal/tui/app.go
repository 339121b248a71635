package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/winstate/internal/ipc"
	"github.com/1broseidon/winstate/internal/snapshot"
)

const refreshInterval = time.Second

type stateMsg struct {
	state  *ipc.StateData
	status *ipc.StatusData
	err    error
}

type snapshotsMsg struct {
	infos []snapshot.Info
	err   error
}

// actionMsg is the result of a command sent to the daemon.
type actionMsg struct {
	text string
	err  error
}

type tickMsg time.Time

type clearStatusMsg struct{ seq int }

func refreshCmd(b Backend) tea.Cmd {
	return func() tea.Msg {
		state, err := b.GetState()
		if err != nil {
			return stateMsg{err: err}
		}
		status, err := b.GetStatus()
		return stateMsg{state: state, status: status, err: err}
	}
}

func loadSnapshotsCmd(b Backend) tea.Cmd {
	return func() tea.Msg {
		infos, err := b.ListSnapshots()
		return snapshotsMsg{infos: infos, err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// model is the root bubbletea model for the TUI.
type model struct {
	backend Backend

	activeTab Tab

	windowsTab   WindowsTab
	groupsTab    GroupsTab
	snapshotsTab SnapshotsTab

	// Daemon state
	connected bool
	status    *ipc.StatusData

	// Transient feedback line
	statusText string
	statusErr  bool
	statusSeq  int

	width  int
	height int
}

func newModel(backend Backend) model {
	return model{
		backend:      backend,
		activeTab:    TabWindows,
		windowsTab:   NewWindowsTab(backend),
		groupsTab:    NewGroupsTab(backend),
		snapshotsTab: NewSnapshotsTab(backend),
	}
}

// contentHeight returns the height available for tab content: status bar,
// tab bar with margin, feedback line and help bar take five lines.
func (m model) contentHeight() int {
	h := m.height - 5
	if h < 1 {
		h = 1
	}
	return h
}

func (m *model) setStatus(text string, isErr bool) tea.Cmd {
	m.statusSeq++
	seq := m.statusSeq
	m.statusText = text
	m.statusErr = isErr
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

func (m *model) resize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	sub := tea.WindowSizeMsg{Width: m.width, Height: m.contentHeight()}
	m.windowsTab, _ = m.windowsTab.Update(sub)
	m.groupsTab, _ = m.groupsTab.Update(sub)
	m.snapshotsTab, _ = m.snapshotsTab.Update(sub)
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(refreshCmd(m.backend), loadSnapshotsCmd(m.backend), tickCmd())
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		if msg.err != nil {
			m.connected = false
			m.status = nil
			return m, nil
		}
		m.connected = true
		m.status = msg.status
		return m, tea.Batch(m.windowsTab.SetState(msg.state), m.groupsTab.SetState(msg.state))

	case snapshotsMsg:
		if msg.err != nil {
			return m, m.setStatus(msg.err.Error(), true)
		}
		return m, m.snapshotsTab.SetSnapshots(msg.infos)

	case tickMsg:
		return m, tea.Batch(refreshCmd(m.backend), tickCmd())

	case actionMsg:
		var cmd tea.Cmd
		if msg.err != nil {
			cmd = m.setStatus(msg.err.Error(), true)
		} else {
			cmd = m.setStatus(msg.text, false)
		}
		return m, tea.Batch(cmd, refreshCmd(m.backend), loadSnapshotsCmd(m.backend))

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.statusText = ""
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.resize(msg)
		return m, nil

	case tea.KeyMsg:
		// The snapshot name input consumes keys; only ctrl+c escapes.
		if m.activeTab == TabSnapshots && m.snapshotsTab.naming {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.snapshotsTab, cmd = m.snapshotsTab.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
			return m, nil
		case "1":
			m.activeTab = TabWindows
			return m, nil
		case "2":
			m.activeTab = TabGroups
			return m, nil
		case "3":
			m.activeTab = TabSnapshots
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.activeTab {
	case TabWindows:
		m.windowsTab, cmd = m.windowsTab.Update(msg)
	case TabGroups:
		m.groupsTab, cmd = m.groupsTab.Update(msg)
	case TabSnapshots:
		m.snapshotsTab, cmd = m.snapshotsTab.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.status, m.connected, m.width)
	tabBar := renderTabBar(m.activeTab, m.width)
	helpBar := renderHelpBar(m.activeTab, m.width)

	var content string
	switch m.activeTab {
	case TabWindows:
		content = m.windowsTab.View()
	case TabGroups:
		content = m.groupsTab.View()
	case TabSnapshots:
		content = m.snapshotsTab.View()
	}
	content = lipgloss.NewStyle().Height(m.contentHeight()).MaxHeight(m.contentHeight()).Render(content)

	feedback := " "
	if m.statusText != "" {
		if m.statusErr {
			feedback = errorStyle.Render(m.statusText)
		} else {
			feedback = okStyle.Render(m.statusText)
		}
	}
	feedback = lipgloss.NewStyle().Width(m.width).Padding(0, 1).Render(feedback)

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		tabBar,
		content,
		feedback,
		helpBar,
	)
}
