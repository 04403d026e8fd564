package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// EnabledIcon returns a colored enabled/disabled indicator.
func EnabledIcon(enabled bool) string {
	if enabled {
		return StyleSuccess.Render("[✓]")
	}
	return StyleMuted.Render("[ ]")
}

// Table renders rows as an aligned, styled table.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render produces a styled table string with aligned columns.
func (t Table) Render() string {
	if len(t.Headers) == 0 {
		return ""
	}

	// Column widths account for ANSI sequences in cells.
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorMuted)

	b.WriteString("  ")
	for i, h := range t.Headers {
		b.WriteString(headerStyle.Render(h))
		if i < len(t.Headers)-1 {
			b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(h)+2))
		}
	}
	b.WriteString("\n")

	for _, row := range t.Rows {
		b.WriteString("  ")
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			b.WriteString(cell)
			if i < len(row)-1 {
				pad := widths[i] - lipgloss.Width(cell) + 2
				if pad < 1 {
					pad = 1
				}
				b.WriteString(strings.Repeat(" ", pad))
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}
