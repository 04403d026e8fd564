package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/SonnyTaylor/techbench/internal/orchestrator"
	"github.com/SonnyTaylor/techbench/internal/queue"
	"github.com/SonnyTaylor/techbench/internal/task"
)

// QueueModel holds only cursor state; the queue itself lives in the
// orchestrator store.
type QueueModel struct {
	Cursor   int
	OptIndex int
}

func (m QueueModel) Update(msg tea.Msg, snap orchestrator.Snapshot, catalog map[string]task.Definition) QueueModel {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m
	}
	switch {
	case key.Matches(keyMsg, Keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
			m.OptIndex = 0
		}
	case key.Matches(keyMsg, Keys.Down):
		if m.Cursor < len(snap.Entries)-1 {
			m.Cursor++
			m.OptIndex = 0
		}
	case key.Matches(keyMsg, Keys.NextOption):
		if m.Cursor < len(snap.Entries) {
			if def, ok := catalog[snap.Entries[m.Cursor].TaskID]; ok && len(def.Options) > 0 {
				m.OptIndex = (m.OptIndex + 1) % len(def.Options)
			}
		}
	}
	return m
}

func (m QueueModel) View(snap orchestrator.Snapshot, catalog map[string]task.Definition) string {
	var b strings.Builder

	title := "Edit Queue"
	if snap.Bundle != nil {
		title = "Edit Queue: " + snap.Bundle.Name
	}
	b.WriteString(fmt.Sprintf("  %s\n\n", StyleTitle.Render(title)))

	for i, entry := range snap.Entries {
		cursor := "  "
		if i == m.Cursor {
			cursor = StylePrimary.Render("> ")
		}

		def, known := catalog[entry.TaskID]
		name := entry.TaskID
		if known {
			name = def.Name
		}
		if i == m.Cursor {
			name = StyleBold.Render(name)
		}
		if !entry.Enabled {
			name = StyleMuted.Render(name)
		}

		b.WriteString(fmt.Sprintf("  %s%s %s", cursor, EnabledIcon(entry.Enabled), name))
		if known && def.Estimate > 0 {
			b.WriteString("  " + StyleMuted.Render("~"+def.Estimate.String()))
		}
		b.WriteString("\n")

		if known && len(def.Options) > 0 {
			b.WriteString("        " + m.renderOptions(i, def, entry) + "\n")
		}
	}

	enabled := queue.EnabledCount(snap.Entries)
	b.WriteString(fmt.Sprintf("\n  %s enabled", StyleMuted.Render(fmt.Sprintf("%d/%d", enabled, len(snap.Entries)))))
	if snap.InlineErr != "" {
		b.WriteString("\n  " + StyleError.Render("✗ "+snap.InlineErr))
	}
	b.WriteString(fmt.Sprintf("\n  %s\n",
		StyleMuted.Render("space:toggle  K/J:reorder  tab:option  ←/→:adjust  enter:start  esc:back")))

	return b.String()
}

func (m QueueModel) renderOptions(row int, def task.Definition, entry queue.Entry) string {
	parts := make([]string, 0, len(def.Options))
	for j, spec := range def.Options {
		val := fmt.Sprintf("%v", entry.Options[spec.Key])
		cell := fmt.Sprintf("%s=%s", spec.Key, val)
		if row == m.Cursor && j == m.OptIndex%len(def.Options) {
			cell = StylePrimary.Render(cell)
		} else {
			cell = StyleMuted.Render(cell)
		}
		parts = append(parts, cell)
	}
	return strings.Join(parts, "  ")
}
