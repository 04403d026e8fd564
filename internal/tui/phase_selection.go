package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/SonnyTaylor/techbench/internal/task"
)

type SelectionModel struct {
	bundles []task.Bundle
	cursor  int
}

func NewSelectionModel(bundles []task.Bundle) SelectionModel {
	return SelectionModel{bundles: bundles}
}

// Current returns the bundle under the cursor.
func (m SelectionModel) Current() (task.Bundle, bool) {
	if m.cursor < 0 || m.cursor >= len(m.bundles) {
		return task.Bundle{}, false
	}
	return m.bundles[m.cursor], true
}

func (m SelectionModel) Update(msg tea.Msg) SelectionModel {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, Keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, Keys.Down):
			if m.cursor < len(m.bundles)-1 {
				m.cursor++
			}
		}
	}
	return m
}

func (m SelectionModel) View() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("  %s\n\n", StyleTitle.Render("Select a Service Bundle")))

	for i, bundle := range m.bundles {
		cursor := "  "
		name := bundle.Name
		if i == m.cursor {
			cursor = StylePrimary.Render("> ")
			name = StyleBold.Render(name)
		}
		count := StyleMuted.Render(fmt.Sprintf("(%d tasks)", len(bundle.Tasks)))
		b.WriteString(fmt.Sprintf("  %s%s %s\n", cursor, name, count))
		b.WriteString(fmt.Sprintf("      %s\n", StyleMuted.Render(bundle.Description)))
	}

	b.WriteString(fmt.Sprintf("\n  %s\n",
		StyleMuted.Render("↑/↓:move  enter:select  ctrl+c:quit")))

	return b.String()
}
