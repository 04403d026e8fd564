package engine

import "github.com/SonnyTaylor/techbench/internal/report"

// RunState is the engine's authoritative answer to "is anything running,
// and what is the latest report". Consumers reconcile against this rather
// than trusting their own local phase.
type RunState struct {
	IsRunning     bool
	CurrentReport *report.RunReport
}

// Event is the tagged union delivered to subscribers during a run.
// Delivery order between kinds is not guaranteed and events may be
// redelivered; consumers must de-duplicate.
type Event interface {
	isEvent()
}

// LogEvent carries one output line from the currently running task.
type LogEvent struct {
	TaskID string
	Line   string
}

// ProgressEvent reports the index of the task now executing, out of the
// total number of enabled tasks.
type ProgressEvent struct {
	Current int
	Total   int
}

// CompletedEvent carries the canonical final report. Terminal.
type CompletedEvent struct {
	Report *report.RunReport
}

// StateChangedEvent carries a full run-state snapshot. A payload with
// IsRunning false and a report is equivalent to completion.
type StateChangedEvent struct {
	State RunState
}

func (LogEvent) isEvent()          {}
func (ProgressEvent) isEvent()     {}
func (CompletedEvent) isEvent()    {}
func (StateChangedEvent) isEvent() {}
