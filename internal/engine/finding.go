package engine

import (
	"strings"

	"github.com/SonnyTaylor/techbench/internal/report"
)

// Tasks report structured observations on stdout as
//
//	FINDING|severity|title|description|recommendation
//
// with trailing fields optional. Anything else is an ordinary log line.
func parseFinding(line string) (report.Finding, bool) {
	const prefix = "FINDING|"
	if !strings.HasPrefix(line, prefix) {
		return report.Finding{}, false
	}
	parts := strings.Split(line[len(prefix):], "|")
	if len(parts) < 2 {
		return report.Finding{}, false
	}

	sev := report.Severity(strings.ToLower(strings.TrimSpace(parts[0])))
	switch sev {
	case report.SeverityInfo, report.SeveritySuccess, report.SeverityWarning,
		report.SeverityError, report.SeverityCritical:
	default:
		sev = report.SeverityInfo
	}

	f := report.Finding{Severity: sev, Title: strings.TrimSpace(parts[1])}
	if len(parts) > 2 {
		f.Description = strings.TrimSpace(parts[2])
	}
	if len(parts) > 3 {
		f.Recommendation = strings.TrimSpace(parts[3])
	}
	return f, f.Title != ""
}
