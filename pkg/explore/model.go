// Package explore is an interactive terminal browser for node trees: an
// expandable outline beside a hex dump that highlights the selected node.
package explore

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/praetorian-inc/kstree/pkg/tree"
)

// focusedPane tracks which pane has keyboard focus.
type focusedPane int

const (
	paneTree focusedPane = iota
	paneHex
)

// overlay tracks which modal overlay is active.
type overlay int

const (
	overlayNone overlay = iota
	overlayHelp
)

// Options configures the browser.
type Options struct {
	// Title is shown in the window title, usually the file name.
	Title string
	// HexWidth is the number of bytes per hex dump row.
	HexWidth int
	// ExpandDepth is the number of levels expanded initially.
	ExpandDepth int
}

// Model is the root Bubble Tea model for the explore TUI.
type Model struct {
	tree  treePane
	hex   hexPane
	title string

	focus         focusedPane
	activeOverlay overlay

	// Help state
	helpContent string
	helpOffset  int

	width  int
	height int
}

// New creates a browser over the tree under root. data holds the bytes the
// tree was parsed from.
func New(root tree.Node, data []byte, opts Options) Model {
	if opts.HexWidth <= 0 {
		opts.HexWidth = 16
	}

	m := Model{
		tree:  newTreePane(newOutline(root, opts.ExpandDepth)),
		hex:   newHexPane(data, opts.HexWidth),
		title: opts.Title,
		focus: paneTree,
	}

	// Set initial focus
	m.tree.focused = true
	m.syncHex()

	return m
}

// JumpTo selects the deepest node covering offset.
func (m *Model) JumpTo(offset int64) bool {
	n, ok := tree.Locate(m.tree.outline.root, offset)
	if !ok || !m.tree.jump(n) {
		return false
	}
	m.syncHex()
	return true
}

func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle(strings.TrimSpace("kstree explore " + m.title))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil

	case tea.MouseMsg:
		if m.activeOverlay != overlayNone {
			return m, nil
		}
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		m.handleMouseClick(msg.X, msg.Y)
		return m, nil

	case tea.KeyMsg:
		// Handle overlays first
		if m.activeOverlay != overlayNone {
			return m.updateOverlay(msg)
		}

		// Global keys (work regardless of focus)
		switch {
		case keyMatches(msg, defaultKeys.ForceQuit):
			return m, tea.Quit
		case keyMatches(msg, defaultKeys.Quit):
			return m, tea.Quit
		case keyMatches(msg, defaultKeys.ToggleHelp):
			m.activeOverlay = overlayHelp
			m.helpOffset = 0
			m.helpContent = renderHelp()
			return m, nil
		case keyMatches(msg, defaultKeys.SwitchPane):
			if m.focus == paneTree {
				m.setFocus(paneHex)
			} else {
				m.setFocus(paneTree)
			}
			return m, nil
		}

		// Delegate to focused pane
		switch m.focus {
		case paneTree:
			var cmd tea.Cmd
			m.tree, cmd = m.tree.Update(msg)
			m.syncHex()
			return m, cmd
		case paneHex:
			switch {
			case keyMatches(msg, defaultKeys.Down):
				m.hex.scroll(1)
			case keyMatches(msg, defaultKeys.Up):
				m.hex.scroll(-1)
			case keyMatches(msg, defaultKeys.PageDown):
				m.hex.scroll(m.hex.visibleRows())
			case keyMatches(msg, defaultKeys.PageUp):
				m.hex.scroll(-m.hex.visibleRows())
			}
			return m, nil
		}
	}

	return m, nil
}

func (m *Model) updateOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keyMatches(msg, defaultKeys.Quit),
		keyMatches(msg, defaultKeys.ForceQuit),
		keyMatches(msg, defaultKeys.ToggleHelp):
		m.activeOverlay = overlayNone
	case keyMatches(msg, defaultKeys.Down):
		m.helpOffset++
	case keyMatches(msg, defaultKeys.Up):
		if m.helpOffset > 0 {
			m.helpOffset--
		}
	case keyMatches(msg, defaultKeys.PageDown):
		m.helpOffset += m.height / 2
	case keyMatches(msg, defaultKeys.PageUp):
		m.helpOffset = max(0, m.helpOffset-m.height/2)
	}
	return m, nil
}

// syncHex points the hex pane at the selected node's span.
func (m *Model) syncHex() {
	r, ok := m.tree.selected()
	if !ok || r.node == nil {
		m.hex.setSpan(m.hex.span, false)
		return
	}
	m.hex.setSpan(r.node.Span())
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// Render overlays
	if m.activeOverlay != overlayNone {
		return m.renderOverlay()
	}

	// Status bar (bottom)
	statusBar := m.renderStatusBar()

	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, m.tree.View(), m.hex.View())
	return lipgloss.JoinVertical(lipgloss.Left, mainContent, statusBar)
}

func (m *Model) updateLayout() {
	contentHeight := m.height - 2 // status bar + padding
	treeWidth, hexWidth := m.paneWidths()

	m.tree.setSize(treeWidth, contentHeight)
	m.hex.setSize(hexWidth, contentHeight)
}

// paneWidths gives the hex pane room for one full dump row when it can.
func (m *Model) paneWidths() (treeWidth, hexWidth int) {
	hexWidth = min(m.hex.perRow*4+18, m.width/2)
	return m.width - hexWidth, hexWidth
}

func (m *Model) renderStatusBar() string {
	status := ""
	if r, ok := m.tree.selected(); ok && r.node != nil {
		status = tree.PathString(r.node)
		if span, ok := r.node.Span(); ok {
			status += fmt.Sprintf("  %s", span)
		}
	}
	left := statusBarStyle.Render(" " + status)

	right := fmt.Sprintf("%s:%s  %s:%s  %s:%s  %s:%s  %s:%s",
		helpKeyStyle.Render("j/k"), helpDescStyle.Render("nav"),
		helpKeyStyle.Render("h/l"), helpDescStyle.Render("collapse/expand"),
		helpKeyStyle.Render("tab"), helpDescStyle.Render("pane"),
		helpKeyStyle.Render("?"), helpDescStyle.Render("help"),
		helpKeyStyle.Render("q"), helpDescStyle.Render("quit"),
	)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) renderOverlay() string {
	overlayWidth := m.width * 80 / 100
	overlayHeight := m.height * 80 / 100

	title := " Help (q to close) "
	content := m.renderHelpContent(overlayHeight - 4)

	box := modalStyle.
		Width(overlayWidth - 4).
		Height(overlayHeight - 2).
		Render(content)

	titleRendered := titleStyle.Render(title)

	overlayView := lipgloss.JoinVertical(lipgloss.Left, titleRendered, box)

	// Center on screen
	hPad := (m.width - lipgloss.Width(overlayView)) / 2
	vPad := (m.height - lipgloss.Height(overlayView)) / 2

	return strings.Repeat("\n", max(0, vPad)) +
		lipgloss.NewStyle().PaddingLeft(max(0, hPad)).Render(overlayView)
}

func (m *Model) renderHelpContent(height int) string {
	lines := strings.Split(m.helpContent, "\n")
	if m.helpOffset >= len(lines) {
		m.helpOffset = max(0, len(lines)-1)
	}
	end := min(m.helpOffset+max(1, height), len(lines))
	visible := lines[m.helpOffset:end]
	return strings.Join(visible, "\n")
}

func (m *Model) setFocus(p focusedPane) {
	m.tree.focused = p == paneTree
	m.hex.focused = p == paneHex
	m.focus = p
}

func (m *Model) handleMouseClick(x, y int) {
	treeWidth, _ := m.paneWidths()
	if x >= treeWidth {
		m.setFocus(paneHex)
		return
	}

	m.setFocus(paneTree)
	row := y - 2 // title + border top
	if row < 0 {
		return
	}
	idx := row + m.tree.offset
	if idx >= 0 && idx < len(m.tree.outline.rows) {
		m.tree.cursor = idx
		m.syncHex()
	}
}

// renderHelp generates help text.
func renderHelp() string {
	return `kstree explore - Structure Browser

NAVIGATION
  j/k or Up/Down    Move cursor up/down
  Ctrl+f/Ctrl+b     Page down/up
  g/G               Jump to top/bottom

TREE
  l or Right        Expand node, or step into it when open
  h or Left         Collapse node, or go to its parent
  Enter or Space    Toggle node

PANES
  Tab               Switch between tree and bytes

ROWS
  ▸ / ▾             Collapsed / expanded node
  !                 Child that could not be built, with the reason

QUIT
  q                 Quit
  Ctrl+c            Force quit
`
}
