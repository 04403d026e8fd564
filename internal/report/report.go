// Package report defines the run report record: the authoritative
// result of one queue execution, immutable once terminal.
package report

import (
	"time"

	"github.com/SonnyTaylor/techbench/internal/queue"
)

// Status is the lifecycle state of a run report.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is a final one.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Severity grades a finding.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeveritySuccess  Severity = "success"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Finding is one observation produced by a completed task.
type Finding struct {
	Severity       Severity `json:"severity"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
	Payload        any      `json:"payload,omitempty"`
}

// TaskResult records the outcome of one executed task.
type TaskResult struct {
	TaskID     string    `json:"taskId"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"durationMs"`
	Findings   []Finding `json:"findings,omitempty"`
	Logs       []string  `json:"logs,omitempty"`
}

// RunReport is the record of one execution. Results are append-only, one
// per completed task, in execution order. CurrentIndex is meaningful only
// while Status is running.
type RunReport struct {
	ID           string        `json:"id"`
	StartedAt    time.Time     `json:"startedAt"`
	CompletedAt  *time.Time    `json:"completedAt,omitempty"`
	Status       Status        `json:"status"`
	Duration     time.Duration `json:"duration,omitempty"` // set once terminal
	Queue        []queue.Entry `json:"queue"`
	Results      []TaskResult  `json:"results"`
	CurrentIndex int           `json:"currentIndex"`
	Error        string        `json:"error,omitempty"`
}

// Terminal reports whether the report has reached a final status.
func (r *RunReport) Terminal() bool {
	return r != nil && r.Status.Terminal()
}

// Clone deep-copies the report so callers can hand out snapshots without
// sharing mutable slices.
func (r *RunReport) Clone() *RunReport {
	if r == nil {
		return nil
	}
	out := *r
	out.Queue = queue.Clone(r.Queue)
	out.Results = make([]TaskResult, len(r.Results))
	for i, tr := range r.Results {
		tr.Findings = append([]Finding(nil), tr.Findings...)
		tr.Logs = append([]string(nil), tr.Logs...)
		out.Results[i] = tr
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}

// CountBySeverity tallies findings across all results.
func (r *RunReport) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int)
	if r == nil {
		return counts
	}
	for _, res := range r.Results {
		for _, f := range res.Findings {
			counts[f.Severity]++
		}
	}
	return counts
}
