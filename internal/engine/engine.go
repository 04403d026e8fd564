// Package engine executes task queues. It owns the authoritative run
// state: one run at a time, a retained latest report, and an event feed
// for log lines, progress, and completion.
package engine

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SonnyTaylor/techbench/internal/queue"
	"github.com/SonnyTaylor/techbench/internal/report"
	"github.com/SonnyTaylor/techbench/internal/task"
)

// ErrRunInProgress is returned by StartRun while another run is active.
var ErrRunInProgress = errors.New("run already in progress")

const defaultTaskTimeout = 10 * time.Minute

// Engine runs queues sequentially via exec. Implements Client.
type Engine struct {
	log         *slog.Logger
	taskTimeout time.Duration

	mu        sync.Mutex
	running   bool
	current   *report.RunReport
	cancel    context.CancelFunc
	listeners map[int]func(Event)
	nextSub   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithTaskTimeout bounds the wall time of each individual task.
func WithTaskTimeout(d time.Duration) Option {
	return func(e *Engine) { e.taskTimeout = d }
}

// New creates an idle engine.
func New(log *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		log:         log,
		taskTimeout: defaultTaskTimeout,
		listeners:   make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) ServiceCatalog(ctx context.Context) ([]task.Definition, error) {
	return task.Catalog(), nil
}

func (e *Engine) PresetBundles(ctx context.Context) ([]task.Bundle, error) {
	return task.Presets(), nil
}

func (e *Engine) QueryRunState(ctx context.Context) (RunState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return RunState{
		IsRunning:     e.running,
		CurrentReport: e.current.Clone(),
	}, nil
}

func (e *Engine) Subscribe(fn func(Event)) (func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.listeners[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}, nil
}

// emit delivers ev to every subscriber, outside the engine lock.
func (e *Engine) emit(ev Event) {
	e.mu.Lock()
	fns := make([]func(Event), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// StartRun runs the enabled entries in order and blocks until terminal.
// The returned report is the same canonical value the CompletedEvent
// carries.
func (e *Engine) StartRun(ctx context.Context, entries []queue.Entry) (*report.RunReport, error) {
	enabled := queue.Enabled(entries)

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, ErrRunInProgress
	}
	runCtx, cancel := context.WithCancel(ctx)
	rep := &report.RunReport{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Status:    report.StatusRunning,
		Queue:     queue.Clone(entries),
	}
	e.running = true
	e.current = rep
	e.cancel = cancel
	e.mu.Unlock()
	defer cancel()

	e.log.Info("run started", "run", rep.ID, "tasks", len(enabled))

	failed := false
	for i, entry := range enabled {
		if runCtx.Err() != nil {
			break
		}
		e.setIndex(i)
		e.emit(ProgressEvent{Current: i, Total: len(enabled)})

		res := e.execTask(runCtx, entry)
		if !res.Success {
			failed = true
		}
		e.appendResult(res)
	}

	final := e.finalize(runCtx.Err() != nil, failed)
	e.log.Info("run finished", "run", final.ID, "status", final.Status)

	e.emit(CompletedEvent{Report: final.Clone()})
	e.emit(StateChangedEvent{State: RunState{IsRunning: false, CurrentReport: final.Clone()}})
	return final.Clone(), nil
}

func (e *Engine) CancelRun(ctx context.Context) error {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

func (e *Engine) setIndex(i int) {
	e.mu.Lock()
	e.current.CurrentIndex = i
	e.mu.Unlock()
}

func (e *Engine) appendResult(res report.TaskResult) {
	e.mu.Lock()
	e.current.Results = append(e.current.Results, res)
	e.mu.Unlock()
}

// finalize stamps the terminal status and returns the report. After this
// the report is never mutated again.
func (e *Engine) finalize(cancelled, failed bool) *report.RunReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	switch {
	case cancelled:
		e.current.Status = report.StatusCancelled
	case failed:
		e.current.Status = report.StatusFailed
	default:
		e.current.Status = report.StatusCompleted
	}
	e.current.CompletedAt = &now
	e.current.Duration = now.Sub(e.current.StartedAt)
	e.running = false
	e.cancel = nil
	return e.current
}

// execTask runs one queue entry to completion, streaming stdout lines as
// log events and harvesting findings.
func (e *Engine) execTask(ctx context.Context, entry queue.Entry) report.TaskResult {
	start := time.Now()
	res := report.TaskResult{TaskID: entry.TaskID}

	def, err := task.Get(entry.TaskID)
	if err != nil {
		res.Error = err.Error()
		res.DurationMs = time.Since(start).Milliseconds()
		return res
	}

	taskCtx, cancel := context.WithTimeout(ctx, e.taskTimeout)
	defer cancel()

	inv := def.Build(entry.Options)
	cmd := exec.CommandContext(taskCtx, inv.Binary, inv.Args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		res.Error = err.Error()
		res.DurationMs = time.Since(start).Milliseconds()
		return res
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		res.Error = err.Error()
		res.DurationMs = time.Since(start).Milliseconds()
		res.Findings = append(res.Findings, report.Finding{
			Severity: report.SeverityError,
			Title:    def.Name + " could not start",
			Description: err.Error(),
		})
		return res
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if f, ok := parseFinding(line); ok {
			res.Findings = append(res.Findings, f)
			continue
		}
		res.Logs = append(res.Logs, line)
		e.emit(LogEvent{TaskID: entry.TaskID, Line: line})
	}

	waitErr := cmd.Wait()
	res.DurationMs = time.Since(start).Milliseconds()

	switch {
	case errors.Is(taskCtx.Err(), context.DeadlineExceeded):
		res.Error = "task timed out"
	case errors.Is(taskCtx.Err(), context.Canceled):
		res.Error = "cancelled"
	case waitErr != nil:
		res.Error = waitErr.Error()
	default:
		res.Success = true
	}

	if !res.Success && res.Error != "cancelled" {
		res.Findings = append(res.Findings, report.Finding{
			Severity:    report.SeverityError,
			Title:       def.Name + " failed",
			Description: res.Error,
		})
	}
	return res
}
