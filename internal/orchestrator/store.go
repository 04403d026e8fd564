// Package orchestrator turns a user-selected queue of tasks into an
// ordered, resumable, cancellable execution against the task engine.
//
// One process-wide Store holds the phase, the editable queue, a local
// shadow of the active report, and the visible log. Every mutation,
// whether user-initiated or arriving from the engine's event feed, is
// serialized through the store's mutex, so an event landing mid
// transition can never produce a torn state. Views subscribe for change
// notifications and re-read a snapshot; they never hold live references.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/SonnyTaylor/techbench/internal/engine"
	"github.com/SonnyTaylor/techbench/internal/queue"
	"github.com/SonnyTaylor/techbench/internal/report"
	"github.com/SonnyTaylor/techbench/internal/task"
)

const defaultMaxLogLines = 2000

// Store is the run orchestrator state machine.
type Store struct {
	log    *slog.Logger
	client engine.Client

	mu             sync.Mutex
	phase          Phase
	bundle         *task.Bundle
	entries        []queue.Entry
	rep            *report.RunReport
	curTask        int
	totalTasks     int
	logs           []string
	inlineErr      string
	maxLogLines    int
	startInFlight  bool
	cancelInFlight bool
	applied        map[string]bool // report ids already applied as terminal
	listeners      map[int]func()
	nextSub        int
	releaseEvents  func()
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithMaxLogLines bounds retained log lines. Old lines drop from the
// front; nothing is ever dropped from the middle.
func WithMaxLogLines(n int) StoreOption {
	return func(s *Store) { s.maxLogLines = n }
}

// NewStore creates an inactive store. Call Activate before presenting
// any phase.
func NewStore(client engine.Client, log *slog.Logger, opts ...StoreOption) *Store {
	s := &Store{
		log:         log,
		client:      client,
		phase:       PhaseSelection,
		maxLogLines: defaultMaxLogLines,
		applied:     make(map[string]bool),
		listeners:   make(map[int]func()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot is an immutable view of the store for rendering.
type Snapshot struct {
	Phase      Phase
	Bundle     *task.Bundle
	Entries    []queue.Entry
	Report     *report.RunReport
	CurTask    int // index of the task now executing, Running only
	TotalTasks int
	Logs       []string
	InlineErr  string
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Phase:      s.phase,
		Bundle:     s.bundle,
		Entries:    queue.Clone(s.entries),
		Report:     s.rep.Clone(),
		CurTask:    s.curTask,
		TotalTasks: s.totalTasks,
		Logs:       append([]string(nil), s.logs...),
		InlineErr:  s.inlineErr,
	}
}

// Subscribe registers a change listener and returns its release func.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Activate reconciles the store against the engine's authoritative run
// state, exactly once per activation, and begins consuming events. A
// freshly created view is never presented before this resolves: a run
// started by a previous view (or still executing after a teardown) is
// adopted as Running, a finished one as Results. Any failure falls back
// to Selection; re-activation is the retry path.
func (s *Store) Activate(ctx context.Context) {
	release, err := s.client.Subscribe(s.handleEvent)
	if err != nil {
		s.log.Warn("event subscription failed, falling back to selection", "err", err)
		s.mu.Lock()
		s.phase = PhaseSelection
		s.mu.Unlock()
		s.notify()
		return
	}

	state, qerr := s.client.QueryRunState(ctx)

	s.mu.Lock()
	s.releaseEvents = release
	switch {
	case qerr != nil:
		s.log.Warn("run state query failed, falling back to selection", "err", qerr)
		s.phase = PhaseSelection
	case state.IsRunning && state.CurrentReport != nil:
		s.rep = state.CurrentReport.Clone()
		s.entries = queue.Clone(state.CurrentReport.Queue)
		s.logs = collectLogs(state.CurrentReport, s.maxLogLines)
		s.curTask = state.CurrentReport.CurrentIndex
		s.totalTasks = queue.EnabledCount(state.CurrentReport.Queue)
		s.phase = PhaseRunning
	case state.CurrentReport != nil && state.CurrentReport.Terminal():
		s.rep = state.CurrentReport.Clone()
		s.entries = queue.Clone(state.CurrentReport.Queue)
		s.applied[state.CurrentReport.ID] = true
		s.phase = PhaseResults
	default:
		s.phase = PhaseSelection
	}
	s.mu.Unlock()
	s.notify()
}

// Close releases the engine subscription and all view listeners. Events
// firing after Close are dropped by the released subscription, never
// applied to a store the views no longer observe.
func (s *Store) Close() {
	s.mu.Lock()
	release := s.releaseEvents
	s.releaseEvents = nil
	s.listeners = make(map[int]func())
	s.mu.Unlock()
	if release != nil {
		release()
	}
}

// collectLogs rebuilds the visible log from a mid-flight report's
// per-task logs, so a re-attached view shows history.
func collectLogs(r *report.RunReport, max int) []string {
	var lines []string
	for _, res := range r.Results {
		lines = append(lines, res.Logs...)
	}
	if len(lines) > max {
		lines = lines[len(lines)-max:]
	}
	return append([]string(nil), lines...)
}

// SelectBundle materializes the bundle's tasks into an editable queue
// and moves to QueueEditing. A no-op outside Selection. An unknown task
// id in the bundle is a defect and is returned, not skipped.
func (s *Store) SelectBundle(b task.Bundle) error {
	s.mu.Lock()
	if !legalTransition(s.phase, PhaseQueueEditing) {
		s.mu.Unlock()
		return nil
	}
	entries, err := queue.Materialize(b)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	bundle := b
	s.bundle = &bundle
	s.entries = entries
	s.inlineErr = ""
	s.phase = PhaseQueueEditing
	s.mu.Unlock()
	s.notify()
	return nil
}

// BackToSelection abandons queue editing. A no-op outside QueueEditing.
func (s *Store) BackToSelection() {
	s.mu.Lock()
	if s.phase != PhaseQueueEditing {
		s.mu.Unlock()
		return
	}
	s.phase = PhaseSelection
	s.bundle = nil
	s.entries = nil
	s.inlineErr = ""
	s.mu.Unlock()
	s.notify()
}

// MoveEntry shifts a queue entry by delta positions. QueueEditing only.
func (s *Store) MoveEntry(index, delta int) {
	s.mu.Lock()
	if s.phase != PhaseQueueEditing {
		s.mu.Unlock()
		return
	}
	queue.Move(s.entries, index, delta)
	s.mu.Unlock()
	s.notify()
}

// ToggleEntry flips a queue entry's enabled flag. QueueEditing only.
func (s *Store) ToggleEntry(index int) {
	s.mu.Lock()
	if s.phase != PhaseQueueEditing {
		s.mu.Unlock()
		return
	}
	queue.Toggle(s.entries, index)
	s.mu.Unlock()
	s.notify()
}

// SetOption updates one option on a queue entry. QueueEditing only.
func (s *Store) SetOption(index int, key string, value any) error {
	s.mu.Lock()
	if s.phase != PhaseQueueEditing {
		s.mu.Unlock()
		return nil
	}
	err := queue.SetOption(s.entries, index, key, value)
	s.mu.Unlock()
	s.notify()
	return err
}

// Start hands the queue to the engine and blocks until the run is
// terminal. Guarded: only from QueueEditing, only with at least one
// enabled entry, never while another Start is in flight; a refused start
// changes nothing. The direct return value is one valid completion path,
// the event feed is the other; whichever lands first wins and the second
// is a no-op.
func (s *Store) Start(ctx context.Context) {
	s.mu.Lock()
	if s.phase != PhaseQueueEditing || s.startInFlight || queue.EnabledCount(s.entries) == 0 {
		s.mu.Unlock()
		return
	}
	snapshot := queue.Clone(s.entries)
	s.startInFlight = true
	s.logs = nil
	s.inlineErr = ""
	s.curTask = 0
	s.totalTasks = queue.EnabledCount(s.entries)
	s.phase = PhaseRunning
	s.mu.Unlock()
	s.notify()

	rep, err := s.client.StartRun(ctx, snapshot)

	s.mu.Lock()
	s.startInFlight = false
	if err != nil {
		s.log.Warn("start run failed", "err", err)
		if s.phase == PhaseRunning {
			s.phase = PhaseQueueEditing
		}
		s.inlineErr = err.Error()
		s.mu.Unlock()
		s.notify()
		return
	}
	changed := s.applyTerminalLocked(rep)
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// Cancel asks the engine to stop the active run and optimistically
// returns to QueueEditing without waiting for the terminal event. The
// canonical report still wins: a completion arriving afterwards moves
// the store to Results.
func (s *Store) Cancel(ctx context.Context) {
	s.mu.Lock()
	if s.phase != PhaseRunning || s.cancelInFlight {
		s.mu.Unlock()
		return
	}
	s.cancelInFlight = true
	s.mu.Unlock()

	err := s.client.CancelRun(ctx)

	s.mu.Lock()
	s.cancelInFlight = false
	if err != nil {
		s.log.Warn("cancel run failed", "err", err)
		s.inlineErr = err.Error()
		s.mu.Unlock()
		s.notify()
		return
	}
	if s.phase == PhaseRunning {
		s.phase = PhaseQueueEditing
	}
	s.mu.Unlock()
	s.notify()
}

// Reset clears everything and returns to Selection. Results only.
func (s *Store) Reset() {
	s.mu.Lock()
	if s.phase != PhaseResults || !legalTransition(s.phase, PhaseSelection) {
		s.mu.Unlock()
		return
	}
	s.phase = PhaseSelection
	s.bundle = nil
	s.entries = nil
	s.rep = nil
	s.curTask = 0
	s.totalTasks = 0
	s.logs = nil
	s.inlineErr = ""
	s.mu.Unlock()
	s.notify()
}

// handleEvent folds one engine event into the store. The transport may
// deliver duplicates and interleave kinds arbitrarily; everything funnels
// through the same mutex as the user-driven calls.
func (s *Store) handleEvent(ev engine.Event) {
	s.mu.Lock()
	changed := false
	switch ev := ev.(type) {
	case engine.LogEvent:
		// Stale guard: after a terminal report is applied the phase has
		// left Running, so late lines from that run fall through here.
		if s.phase == PhaseRunning {
			changed = s.appendLogLocked(ev.Line)
		}
	case engine.ProgressEvent:
		if s.phase == PhaseRunning {
			s.curTask = ev.Current
			s.totalTasks = ev.Total
			if s.rep != nil {
				s.rep.CurrentIndex = ev.Current
			}
			changed = true
		}
	case engine.CompletedEvent:
		changed = s.applyTerminalLocked(ev.Report)
	case engine.StateChangedEvent:
		// Not-running with a terminal report is completion by another name.
		if !ev.State.IsRunning && ev.State.CurrentReport.Terminal() {
			changed = s.applyTerminalLocked(ev.State.CurrentReport)
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// appendLogLocked appends a line unless it repeats the immediately
// preceding one (transport redelivery shows up as exact consecutive
// duplicates). Retention is bounded from the front only.
func (s *Store) appendLogLocked(line string) bool {
	if n := len(s.logs); n > 0 && s.logs[n-1] == line {
		return false
	}
	s.logs = append(s.logs, line)
	if len(s.logs) > s.maxLogLines {
		s.logs = s.logs[len(s.logs)-s.maxLogLines:]
	}
	return true
}

// applyTerminalLocked replaces the local shadow wholesale with a
// canonical terminal report and moves to Results, from whatever phase
// the store is in. Idempotent per report id: the first terminal payload
// for an id wins, later ones (redelivery, or the losing side of the
// direct-call/event race) are no-ops.
func (s *Store) applyTerminalLocked(r *report.RunReport) bool {
	if !r.Terminal() {
		return false
	}
	if s.applied[r.ID] {
		return false
	}
	s.applied[r.ID] = true
	s.rep = r.Clone()
	s.phase = PhaseResults
	return true
}
