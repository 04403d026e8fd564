package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/SonnyTaylor/techbench/internal/orchestrator"
	"github.com/SonnyTaylor/techbench/internal/report"
	"github.com/SonnyTaylor/techbench/internal/task"
)

type ResultsModel struct{}

func (m ResultsModel) View(snap orchestrator.Snapshot, catalog map[string]task.Definition) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("  %s\n\n", StyleTitle.Render("Results")))

	r := snap.Report
	if r == nil {
		b.WriteString("  " + StyleMuted.Render("no report") + "\n")
		return b.String()
	}

	status := string(r.Status)
	switch r.Status {
	case report.StatusCompleted:
		status = StyleSuccess.Render(status)
	case report.StatusFailed:
		status = StyleError.Render(status)
	case report.StatusCancelled:
		status = StyleMuted.Render(status)
	}
	b.WriteString(fmt.Sprintf("  %s  %s\n\n", status, StyleMuted.Render(r.Duration.Round(time.Millisecond).String())))

	var rows [][]string
	for _, res := range r.Results {
		icon := IconSuccess
		outcome := StyleSuccess.Render("ok")
		if !res.Success {
			icon = IconError
			outcome = StyleError.Render("failed")
		}
		name := res.TaskID
		if def, ok := catalog[res.TaskID]; ok {
			name = def.Name
		}
		dur := (time.Duration(res.DurationMs) * time.Millisecond).Round(time.Millisecond)
		rows = append(rows, []string{
			icon,
			name,
			outcome,
			StyleMuted.Render(dur.String()),
			StyleMuted.Render(fmt.Sprintf("%d findings", len(res.Findings))),
		})
	}
	t := Table{
		Headers: []string{"", "TASK", "STATUS", "DURATION", "FINDINGS"},
		Rows:    rows,
	}
	b.WriteString(t.Render())

	for _, res := range r.Results {
		for _, f := range res.Findings {
			b.WriteString(fmt.Sprintf("\n  %s %s", SeverityIcon(f.Severity), StyleBold.Render(f.Title)))
			if f.Description != "" {
				b.WriteString("\n    " + StyleMuted.Render(f.Description))
			}
			if f.Recommendation != "" {
				b.WriteString("\n    " + StyleWarning.Render("→ "+f.Recommendation))
			}
		}
	}

	b.WriteString(fmt.Sprintf("\n\n  %s\n", StyleMuted.Render("n:new run  q:quit")))

	return b.String()
}
