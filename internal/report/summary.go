package report

import (
	"fmt"
	"strings"
	"time"
)

// Summary renders a plain-text account of a report, suitable for
// piping or printing. Styling lives in the TUI, not here.
func Summary(r *RunReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run %s  [%s]\n", r.ID, r.Status)
	fmt.Fprintf(&b, "Started:  %s\n", r.StartedAt.Format(time.RFC3339))
	if r.CompletedAt != nil {
		fmt.Fprintf(&b, "Finished: %s  (%s)\n", r.CompletedAt.Format(time.RFC3339), r.Duration.Round(time.Millisecond))
	}
	if r.Error != "" {
		fmt.Fprintf(&b, "Error:    %s\n", r.Error)
	}
	b.WriteString("\n")

	for _, res := range r.Results {
		mark := "ok"
		if !res.Success {
			mark = "FAILED"
		}
		fmt.Fprintf(&b, "  %-16s %-7s %s\n", res.TaskID, mark,
			(time.Duration(res.DurationMs) * time.Millisecond).Round(time.Millisecond))
		if res.Error != "" {
			fmt.Fprintf(&b, "    error: %s\n", res.Error)
		}
		for _, f := range res.Findings {
			fmt.Fprintf(&b, "    [%s] %s", f.Severity, f.Title)
			if f.Description != "" {
				fmt.Fprintf(&b, ": %s", f.Description)
			}
			b.WriteString("\n")
			if f.Recommendation != "" {
				fmt.Fprintf(&b, "      recommend: %s\n", f.Recommendation)
			}
		}
	}

	counts := r.CountBySeverity()
	if len(counts) > 0 {
		b.WriteString("\nFindings:")
		for _, sev := range []Severity{SeverityCritical, SeverityError, SeverityWarning, SeveritySuccess, SeverityInfo} {
			if n := counts[sev]; n > 0 {
				fmt.Fprintf(&b, " %d %s", n, sev)
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}
