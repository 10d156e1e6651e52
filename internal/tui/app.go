package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/docktile/internal/ipc"
	"github.com/1broseidon/docktile/internal/layout"
)

// Client is the daemon surface the inspector drives. *ipc.Client implements
// it.
type Client interface {
	GetStatus() (*ipc.StatusData, error)
	GetLayout(width, height float64) (*ipc.LayoutData, error)
	ActivateTab(viewID string) error
	CloseTab(viewID string) error
	ToggleTabLock(viewID string) error
	ToggleMaximize(groupID string) error
	Menu(scope ipc.MenuScope, target string) ([]layout.MenuItem, error)
	InvokeMenu(scope ipc.MenuScope, target, action string) error
}

var _ Client = (*ipc.Client)(nil)

// refreshInterval is how often the inspector re-reads the layout to pick up
// changes made by other clients.
const refreshInterval = 2 * time.Second

// menuItem implements list.Item for the context menu.
type menuItem struct {
	item layout.MenuItem
}

func (i menuItem) Title() string {
	if i.item.Disabled {
		return i.item.Label + " (unavailable)"
	}
	return i.item.Label
}

func (i menuItem) Description() string { return "" }
func (i menuItem) FilterValue() string { return i.item.Label }

// layoutMsg carries a fresh layout read.
type layoutMsg struct {
	status *ipc.StatusData
	data   *ipc.LayoutData
	err    error
}

// actionMsg reports the outcome of a mutation.
type actionMsg struct {
	text string
	err  error
}

// menuMsg carries the items of a context menu.
type menuMsg struct {
	scope  ipc.MenuScope
	target string
	items  []layout.MenuItem
	err    error
}

type tickMsg struct{}

// model is the root bubbletea model of the inspector.
type model struct {
	client Client

	status *ipc.StatusData
	data   *ipc.LayoutData
	groups []groupInfo
	focus  string

	menu       list.Model
	menuOpen   bool
	menuScope  ipc.MenuScope
	menuTarget string

	message string
	isErr   bool

	width  int
	height int
}

func newModel(client Client) model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 0, 0)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return model{client: client, menu: l}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m model) refresh() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		st, err := client.GetStatus()
		if err != nil {
			return layoutMsg{err: err}
		}
		data, err := client.GetLayout(0, 0)
		return layoutMsg{status: st, data: data, err: err}
	}
}

// act runs a mutation and reports it as an actionMsg.
func (m model) act(label string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		err := fn()
		if errors.Is(err, ipc.ErrNotApplied) {
			return actionMsg{text: label + ": not applied (locked or no effect)"}
		}
		return actionMsg{text: label, err: err}
	}
}

func (m model) openMenu(scope ipc.MenuScope, target string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		items, err := client.Menu(scope, target)
		return menuMsg{scope: scope, target: target, items: items, err: err}
	}
}

// focused returns the focused group, if any.
func (m model) focused() (groupInfo, bool) {
	for _, g := range m.groups {
		if g.id == m.focus {
			return g, true
		}
	}
	return groupInfo{}, false
}

// moveFocus cycles focus through the visible groups in tree order.
func (m *model) moveFocus(delta int) {
	visible := m.visibleGroups()
	if len(visible) == 0 {
		return
	}
	idx := 0
	for i, g := range visible {
		if g.id == m.focus {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(visible)) % len(visible)
	m.focus = visible[idx].id
}

func (m *model) focusToward(dir layout.Position) {
	if m.data == nil {
		return
	}
	m.focus = layout.Neighbor(m.data.Boxes, m.focus, dir)
}

// visibleGroups drops groups hidden by a maximized sibling.
func (m model) visibleGroups() []groupInfo {
	if m.data == nil {
		return nil
	}
	out := make([]groupInfo, 0, len(m.groups))
	for _, g := range m.groups {
		if _, ok := m.data.Boxes[g.id]; ok {
			out = append(out, g)
		}
	}
	return out
}

// applyLayout installs a fresh read and keeps focus stable when possible.
func (m *model) applyLayout(st *ipc.StatusData, data *ipc.LayoutData) {
	m.status, m.data = st, data
	m.groups = collectGroups(data.Snapshot.Root, nil)
	if _, ok := data.Boxes[m.focus]; ok {
		return
	}
	m.focus = ""
	if _, ok := data.Boxes[data.Snapshot.ActiveGroupID]; ok {
		m.focus = data.Snapshot.ActiveGroupID
		return
	}
	if visible := m.visibleGroups(); len(visible) > 0 {
		m.focus = visible[0].id
	}
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.menu.SetSize(menuWidth, max(m.height-4, 3))
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refresh(), tick())

	case layoutMsg:
		if msg.err != nil {
			m.status = nil
			m.message, m.isErr = msg.err.Error(), true
			return m, nil
		}
		m.applyLayout(msg.status, msg.data)
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.message, m.isErr = msg.err.Error(), true
		} else {
			m.message, m.isErr = msg.text, false
		}
		return m, m.refresh()

	case menuMsg:
		if msg.err != nil {
			m.message, m.isErr = msg.err.Error(), true
			return m, nil
		}
		items := make([]list.Item, 0, len(msg.items))
		for _, it := range msg.items {
			items = append(items, menuItem{item: it})
		}
		m.menu.Title = menuTitle(msg.scope, msg.target)
		m.menu.Select(0)
		m.menuOpen, m.menuScope, m.menuTarget = true, msg.scope, msg.target
		return m, m.menu.SetItems(items)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.menuOpen {
			return m.updateMenu(msg)
		}
		return m.updateLayout(msg)
	}
	return m, nil
}

func (m model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.menuOpen = false
		return m, nil
	case "enter":
		sel, ok := m.menu.SelectedItem().(menuItem)
		if !ok {
			return m, nil
		}
		if sel.item.Disabled {
			m.message, m.isErr = sel.item.Label+" is unavailable", true
			return m, nil
		}
		m.menuOpen = false
		client, scope, target, action := m.client, m.menuScope, m.menuTarget, sel.item.Action
		return m, m.act(sel.item.Label, func() error {
			return client.InvokeMenu(scope, target, action)
		})
	}
	var cmd tea.Cmd
	m.menu, cmd = m.menu.Update(msg)
	return m, cmd
}

func (m model) updateLayout(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	g, hasFocus := m.focused()
	view := g.activeView()

	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "r":
		return m, m.refresh()
	case "tab":
		m.moveFocus(1)
		return m, nil
	case "shift+tab":
		m.moveFocus(-1)
		return m, nil
	case "h", "left":
		m.focusToward(layout.Left)
		return m, nil
	case "l", "right":
		m.focusToward(layout.Right)
		return m, nil
	case "k", "up":
		m.focusToward(layout.Top)
		return m, nil
	case "j", "down":
		m.focusToward(layout.Bottom)
		return m, nil
	case "w":
		return m, m.openMenu(ipc.MenuLayout, "")
	}

	if !hasFocus {
		return m, nil
	}
	client := m.client
	switch msg.String() {
	case "m":
		return m, m.act("maximize "+g.id, func() error { return client.ToggleMaximize(g.id) })
	case "g":
		return m, m.openMenu(ipc.MenuGroup, g.id)
	case "]", "[":
		next := cycleTab(g, msg.String() == "]")
		if next == "" || next == view {
			return m, nil
		}
		return m, m.act("activate "+next, func() error { return client.ActivateTab(next) })
	}

	if view == "" {
		return m, nil
	}
	switch msg.String() {
	case "x":
		return m, m.act("close "+view, func() error { return client.CloseTab(view) })
	case "L":
		return m, m.act("lock "+view, func() error { return client.ToggleTabLock(view) })
	case "enter":
		return m, m.openMenu(ipc.MenuTab, view)
	}
	return m, nil
}

// cycleTab returns the tab after (or before) the active one, wrapping.
func cycleTab(g groupInfo, forward bool) string {
	n := len(g.views)
	if n == 0 {
		return ""
	}
	active := g.activeView()
	idx := 0
	for i, v := range g.views {
		if v.ID == active {
			idx = i
			break
		}
	}
	if forward {
		idx = (idx + 1) % n
	} else {
		idx = (idx - 1 + n) % n
	}
	return g.views[idx].ID
}

func menuTitle(scope ipc.MenuScope, target string) string {
	if target == "" {
		return strings.ToUpper(string(scope[:1])) + string(scope[1:])
	}
	return fmt.Sprintf("%s %s", scope, target)
}

const menuWidth = 32

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	statusBar := renderStatusBar(m.status, m.focus, m.width)
	helpBar := renderHelpBar(m.menuOpen, m.width)
	message := renderMessage(m.message, m.isErr, m.width)

	contentHeight := max(m.height-lipgloss.Height(statusBar)-lipgloss.Height(helpBar)-lipgloss.Height(message), 1)
	canvasWidth := m.width
	if m.menuOpen {
		canvasWidth = max(m.width-menuWidth-4, 5)
	}

	var lines []string
	if m.data != nil {
		lines = renderLayout(m.data.Boxes, m.data.Canvas, m.groups, m.focus, canvasWidth, contentHeight)
	} else {
		lines = emptyCanvas(canvasWidth, contentHeight)
	}
	content := strings.Join(lines, "\n")
	if m.menuOpen {
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, menuStyle.Render(m.menu.View()))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		content,
		message,
		helpBar,
	)
}
