package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"

	"github.com/SonnyTaylor/techbench/internal/orchestrator"
	"github.com/SonnyTaylor/techbench/internal/queue"
	"github.com/SonnyTaylor/techbench/internal/task"
)

const logTailLines = 12

type RunningModel struct {
	Spinner spinner.Model
}

func NewRunningModel() RunningModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StylePrimary
	return RunningModel{Spinner: s}
}

func (m RunningModel) View(snap orchestrator.Snapshot, catalog map[string]task.Definition) string {
	var b strings.Builder

	title := StyleTitle.Render("Running")
	if snap.Report != nil {
		elapsed := time.Since(snap.Report.StartedAt).Round(time.Second)
		b.WriteString(fmt.Sprintf("  %s  %s\n\n", title, StyleMuted.Render(elapsed.String())))
	} else {
		b.WriteString(fmt.Sprintf("  %s\n\n", title))
	}

	idx := snap.CurTask
	var enabled []queue.Entry
	done := 0
	if snap.Report != nil {
		enabled = queue.Enabled(snap.Report.Queue)
		done = len(snap.Report.Results)
	} else {
		enabled = queue.Enabled(snap.Entries)
	}
	if len(enabled) > 0 {
		for i, entry := range enabled {
			name := entry.TaskID
			if def, ok := catalog[entry.TaskID]; ok {
				name = def.Name
			}
			switch {
			case i < idx || i < done:
				b.WriteString(fmt.Sprintf("  %s %s\n", IconSuccess, StyleMuted.Render(name)))
			case i == idx:
				b.WriteString(fmt.Sprintf("  %s %s\n", m.Spinner.View(), StyleBold.Render(name)))
			default:
				b.WriteString(fmt.Sprintf("  %s %s\n", IconPending, StyleMuted.Render(name)))
			}
		}
		b.WriteString(fmt.Sprintf("\n  %s\n",
			StyleMuted.Render(fmt.Sprintf("task %d/%d", min(idx+1, len(enabled)), len(enabled)))))
	} else if snap.TotalTasks > 0 {
		b.WriteString(fmt.Sprintf("  %s %s\n", m.Spinner.View(),
			StyleMuted.Render(fmt.Sprintf("task %d/%d", min(idx+1, snap.TotalTasks), snap.TotalTasks))))
	}

	if len(snap.Logs) > 0 {
		b.WriteString("\n")
		tail := snap.Logs
		if len(tail) > logTailLines {
			tail = tail[len(tail)-logTailLines:]
		}
		for _, line := range tail {
			b.WriteString("  " + StyleMuted.Render(line) + "\n")
		}
	}

	b.WriteString(fmt.Sprintf("\n  %s\n", StyleMuted.Render("c:cancel  ctrl+c:quit (run continues)")))

	return b.String()
}
