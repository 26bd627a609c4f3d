package explore

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/praetorian-inc/kstree/pkg/tree"
)

// treePane is the left-hand node outline.
type treePane struct {
	outline *outline
	cursor  int
	offset  int
	width   int
	height  int
	focused bool
}

func newTreePane(o *outline) treePane {
	return treePane{outline: o}
}

func (tp treePane) selected() (row, bool) {
	if tp.cursor < 0 || tp.cursor >= len(tp.outline.rows) {
		return row{}, false
	}
	return tp.outline.rows[tp.cursor], true
}

func (tp treePane) Update(msg tea.Msg) (treePane, tea.Cmd) {
	if !tp.focused {
		return tp, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		rows := len(tp.outline.rows)
		switch {
		case keyMatches(msg, defaultKeys.Up):
			if tp.cursor > 0 {
				tp.cursor--
			}
		case keyMatches(msg, defaultKeys.Down):
			if tp.cursor < rows-1 {
				tp.cursor++
			}
		case keyMatches(msg, defaultKeys.Home):
			tp.cursor = 0
			tp.offset = 0
		case keyMatches(msg, defaultKeys.End):
			tp.cursor = max(0, rows-1)
		case keyMatches(msg, defaultKeys.PageDown):
			tp.cursor = min(tp.cursor+tp.visibleRows(), rows-1)
		case keyMatches(msg, defaultKeys.PageUp):
			tp.cursor = max(tp.cursor-tp.visibleRows(), 0)
		case keyMatches(msg, defaultKeys.Expand):
			if !tp.outline.setExpanded(tp.cursor, true) {
				// Already open: step into the first child
				if r, ok := tp.selected(); ok && tp.outline.isExpanded(r) && tp.cursor < rows-1 {
					tp.cursor++
				}
			}
		case keyMatches(msg, defaultKeys.Collapse):
			if !tp.outline.setExpanded(tp.cursor, false) {
				if p := tp.outline.parentRow(tp.cursor); p >= 0 {
					tp.cursor = p
				}
			}
		case keyMatches(msg, defaultKeys.Toggle):
			tp.outline.toggle(tp.cursor)
		}
		tp.ensureVisible()
	}

	return tp, nil
}

// jump moves the cursor to n, expanding its ancestors.
func (tp *treePane) jump(n tree.Node) bool {
	i := tp.outline.reveal(n)
	if i < 0 {
		return false
	}
	tp.cursor = i
	tp.ensureVisible()
	return true
}

// renderRow renders a row without styling.
func (tp treePane) renderRow(r row) string {
	indent := strings.Repeat("  ", r.depth)
	if r.node == nil {
		return fmt.Sprintf("%s! [%d] %v", indent, r.index, r.err)
	}

	marker := "  "
	if r.expandable() {
		marker = "▸ "
		if tp.outline.isExpanded(r) {
			marker = "▾ "
		}
	}
	return indent + marker + r.node.String()
}

func (tp treePane) View() string {
	if tp.width <= 0 || tp.height <= 0 {
		return ""
	}
	contentWidth := tp.width - 4

	var b strings.Builder
	rows := tp.outline.rows
	visibleEnd := min(tp.offset+tp.visibleRows(), len(rows))
	for i := tp.offset; i < visibleEnd; i++ {
		r := rows[i]
		line := truncateString(tp.renderRow(r), contentWidth)

		switch {
		case i == tp.cursor && tp.focused:
			line = selectedRowStyle.Width(contentWidth).Render(line)
		case r.node == nil:
			line = errorRowStyle.Render(line)
		case r.node.Kind() == tree.KindGroup:
			line = groupRowStyle.Render(line)
		}

		b.WriteString(padRight(line, contentWidth))
		if i < visibleEnd-1 {
			b.WriteString("\n")
		}
	}

	title := titleStyle.Render(fmt.Sprintf(" Tree (%d/%d) ", tp.cursor+1, len(rows)))

	borderStyle := inactiveBorderStyle
	if tp.focused {
		borderStyle = activeBorderStyle
	}

	content := borderStyle.
		Width(tp.width - 2).
		Height(tp.height - 3).
		Render(b.String())

	return lipgloss.JoinVertical(lipgloss.Left, title, content)
}

func (tp treePane) visibleRows() int {
	return max(1, tp.height-4) // title + border
}

func (tp *treePane) ensureVisible() {
	if tp.cursor < tp.offset {
		tp.offset = tp.cursor
	}
	if tp.cursor >= tp.offset+tp.visibleRows() {
		tp.offset = tp.cursor - tp.visibleRows() + 1
	}
}

func (tp *treePane) setSize(w, h int) {
	tp.width = w
	tp.height = h
	tp.ensureVisible()
}

// Helper functions

func keyMatches(msg tea.KeyMsg, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if msg.String() == k {
			return true
		}
	}
	return false
}

func truncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

func padRight(s string, width int) string {
	visLen := lipgloss.Width(s)
	if visLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visLen)
}
