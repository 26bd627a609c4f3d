package explore

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/praetorian-inc/kstree/pkg/types"
)

// hexPane shows the input bytes and highlights the selected node's span.
type hexPane struct {
	data     []byte
	perRow   int
	span     types.Span
	hasSpan  bool
	offset   int // first visible line
	width    int
	height   int
	focused  bool
	rendered func(string) string
}

func newHexPane(data []byte, perRow int) hexPane {
	return hexPane{
		data:     data,
		perRow:   max(1, perRow),
		rendered: func(s string) string { return hexHighlightStyle.Render(s) },
	}
}

func (hp *hexPane) lines() int {
	return (len(hp.data) + hp.perRow - 1) / hp.perRow
}

// setSpan highlights span and scrolls so that its first byte is visible.
func (hp *hexPane) setSpan(span types.Span, ok bool) {
	hp.span, hp.hasSpan = span, ok
	if !ok {
		return
	}
	line := int(span.Start) / hp.perRow
	if line < hp.offset || line >= hp.offset+hp.visibleRows() {
		hp.offset = line
	}
	hp.clamp()
}

func (hp *hexPane) scroll(delta int) {
	hp.offset += delta
	hp.clamp()
}

func (hp *hexPane) clamp() {
	hp.offset = min(hp.offset, max(0, hp.lines()-hp.visibleRows()))
	hp.offset = max(0, hp.offset)
}

func (hp hexPane) highlighted(off int) bool {
	return hp.hasSpan && hp.span.Contains(int64(off))
}

// renderLine renders one dump line: offset, hex bytes, then printable ASCII.
func (hp hexPane) renderLine(line int) string {
	start := line * hp.perRow
	end := min(start+hp.perRow, len(hp.data))

	var hexPart, asciiPart strings.Builder
	for off := start; off < start+hp.perRow; off++ {
		if off > start {
			hexPart.WriteByte(' ')
		}
		if off >= end {
			hexPart.WriteString("  ")
			continue
		}

		b := hp.data[off]
		h := fmt.Sprintf("%02x", b)
		c := "."
		if b >= 0x20 && b < 0x7f {
			c = string(rune(b))
		}
		if hp.highlighted(off) {
			h, c = hp.rendered(h), hp.rendered(c)
		}
		hexPart.WriteString(h)
		asciiPart.WriteString(c)
	}

	return fmt.Sprintf("%08x  %s  |%s|", start, hexPart.String(), asciiPart.String())
}

func (hp hexPane) View() string {
	if hp.width <= 0 || hp.height <= 0 {
		return ""
	}
	contentWidth := hp.width - 4

	var b strings.Builder
	visibleEnd := min(hp.offset+hp.visibleRows(), hp.lines())
	for line := hp.offset; line < visibleEnd; line++ {
		b.WriteString(padRight(hp.renderLine(line), contentWidth))
		if line < visibleEnd-1 {
			b.WriteString("\n")
		}
	}

	label := " Bytes "
	if hp.hasSpan {
		label = fmt.Sprintf(" Bytes %s (%d) ", hp.span, hp.span.Size())
	}
	title := titleStyle.Render(label)

	borderStyle := inactiveBorderStyle
	if hp.focused {
		borderStyle = activeBorderStyle
	}

	content := borderStyle.
		Width(hp.width - 2).
		Height(hp.height - 3).
		Render(b.String())

	return lipgloss.JoinVertical(lipgloss.Left, title, content)
}

func (hp hexPane) visibleRows() int {
	return max(1, hp.height-4) // title + border
}

func (hp *hexPane) setSize(w, h int) {
	hp.width = w
	hp.height = h
	hp.clamp()
}
