package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SonnyTaylor/techbench/internal/engine"
	"github.com/SonnyTaylor/techbench/internal/log"
	"github.com/SonnyTaylor/techbench/internal/queue"
	"github.com/SonnyTaylor/techbench/internal/report"
	"github.com/SonnyTaylor/techbench/internal/task"
)

// fakeClient is a scriptable engine.Client.
type fakeClient struct {
	mu           sync.Mutex
	state        engine.RunState
	queryErr     error
	subscribeErr error
	cancelErr    error
	startFn      func(ctx context.Context, entries []queue.Entry) (*report.RunReport, error)
	startCalls   int
	handlers     map[int]func(engine.Event)
	nextID       int
}

func newFakeClient() *fakeClient {
	return &fakeClient{handlers: make(map[int]func(engine.Event))}
}

func (f *fakeClient) ServiceCatalog(context.Context) ([]task.Definition, error) {
	return task.Catalog(), nil
}

func (f *fakeClient) PresetBundles(context.Context) ([]task.Bundle, error) {
	return task.Presets(), nil
}

func (f *fakeClient) QueryRunState(context.Context) (engine.RunState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.queryErr
}

func (f *fakeClient) StartRun(ctx context.Context, entries []queue.Entry) (*report.RunReport, error) {
	f.mu.Lock()
	f.startCalls++
	fn := f.startFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("no startFn scripted")
	}
	return fn(ctx, entries)
}

func (f *fakeClient) CancelRun(context.Context) error {
	return f.cancelErr
}

func (f *fakeClient) Subscribe(fn func(engine.Event)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	id := f.nextID
	f.nextID++
	f.handlers[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers, id)
	}, nil
}

func (f *fakeClient) emit(ev engine.Event) {
	f.mu.Lock()
	fns := make([]func(engine.Event), 0, len(f.handlers))
	for _, fn := range f.handlers {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (f *fakeClient) subscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

func terminalReport(id string, status report.Status, results int) *report.RunReport {
	now := time.Now()
	r := &report.RunReport{
		ID:          id,
		StartedAt:   now.Add(-time.Minute),
		CompletedAt: &now,
		Status:      status,
		Duration:    time.Minute,
	}
	for i := 0; i < results; i++ {
		r.Results = append(r.Results, report.TaskResult{TaskID: "memory-info", Success: true})
	}
	return r
}

func activeStore(t *testing.T, client *fakeClient) *Store {
	t.Helper()
	s := NewStore(client, log.New(false))
	s.Activate(context.Background())
	t.Cleanup(s.Close)
	return s
}

// editingStore returns a store sitting in QueueEditing with a bundle
// materialized.
func editingStore(t *testing.T, client *fakeClient) *Store {
	t.Helper()
	s := activeStore(t, client)
	bundle, ok := task.PresetByID("quick-checkup")
	require.True(t, ok)
	require.NoError(t, s.SelectBundle(bundle))
	require.Equal(t, PhaseQueueEditing, s.Snapshot().Phase)
	return s
}

func TestActivate_Idle_EntersSelection(t *testing.T) {
	s := activeStore(t, newFakeClient())
	assert.Equal(t, PhaseSelection, s.Snapshot().Phase)
}

func TestActivate_RunningReport_EntersRunning(t *testing.T) {
	client := newFakeClient()
	rep := &report.RunReport{
		ID:        "run-1",
		StartedAt: time.Now(),
		Status:    report.StatusRunning,
		Queue: []queue.Entry{
			{TaskID: "memory-info", Enabled: true, Order: 0},
			{TaskID: "disk-usage", Enabled: true, Order: 1},
		},
	}
	client.state = engine.RunState{IsRunning: true, CurrentReport: rep}

	s := activeStore(t, client)

	snap := s.Snapshot()
	assert.Equal(t, PhaseRunning, snap.Phase)
	require.Len(t, snap.Entries, 2)
	assert.Equal(t, "memory-info", snap.Entries[0].TaskID)
	require.NotNil(t, snap.Report)
	assert.Equal(t, "run-1", snap.Report.ID)
}

func TestActivate_TerminalReport_EntersResults(t *testing.T) {
	client := newFakeClient()
	client.state = engine.RunState{
		IsRunning:     false,
		CurrentReport: terminalReport("run-2", report.StatusCompleted, 1),
	}

	s := activeStore(t, client)

	snap := s.Snapshot()
	assert.Equal(t, PhaseResults, snap.Phase)
	require.NotNil(t, snap.Report)
	assert.Equal(t, "run-2", snap.Report.ID)
}

func TestActivate_QueryFailure_FallsBackToSelection(t *testing.T) {
	client := newFakeClient()
	client.queryErr = errors.New("backend unreachable")

	s := activeStore(t, client)
	assert.Equal(t, PhaseSelection, s.Snapshot().Phase)
}

func TestActivate_SubscribeFailure_FallsBackToSelection(t *testing.T) {
	client := newFakeClient()
	client.subscribeErr = errors.New("transport down")

	s := activeStore(t, client)
	assert.Equal(t, PhaseSelection, s.Snapshot().Phase)
}

func TestSelectBundle_MaterializesQueueInBundleOrder(t *testing.T) {
	s := activeStore(t, newFakeClient())
	bundle, ok := task.PresetByID("quick-checkup")
	require.True(t, ok)

	require.NoError(t, s.SelectBundle(bundle))

	snap := s.Snapshot()
	assert.Equal(t, PhaseQueueEditing, snap.Phase)
	require.Len(t, snap.Entries, len(bundle.Tasks))
	for i, e := range snap.Entries {
		assert.Equal(t, bundle.Tasks[i].TaskID, e.TaskID)
		assert.Equal(t, i, e.Order)
	}
}

func TestSelectBundle_UnknownTask_ReturnsError(t *testing.T) {
	s := activeStore(t, newFakeClient())
	bad := task.Bundle{ID: "bad", Tasks: []task.BundleTask{{TaskID: "does-not-exist", Enabled: true}}}

	err := s.SelectBundle(bad)
	require.Error(t, err)
	assert.Equal(t, PhaseSelection, s.Snapshot().Phase)
}

func TestSelectBundle_OutsideSelection_IsNoOp(t *testing.T) {
	client := newFakeClient()
	s := editingStore(t, client)
	other, _ := task.PresetByID("deep-clean")

	require.NoError(t, s.SelectBundle(other))

	snap := s.Snapshot()
	assert.Equal(t, PhaseQueueEditing, snap.Phase)
	assert.Equal(t, "quick-checkup", snap.Bundle.ID)
}

func TestStart_NoEnabledEntries_NeverCallsEngine(t *testing.T) {
	client := newFakeClient()
	s := editingStore(t, client)
	for i := range s.Snapshot().Entries {
		s.ToggleEntry(i)
	}
	require.Equal(t, 0, queue.EnabledCount(s.Snapshot().Entries))

	s.Start(context.Background())

	assert.Equal(t, PhaseQueueEditing, s.Snapshot().Phase)
	assert.Equal(t, 0, client.startCalls)
}

func TestStart_Failure_RevertsToQueueEditing(t *testing.T) {
	client := newFakeClient()
	client.startFn = func(context.Context, []queue.Entry) (*report.RunReport, error) {
		return nil, errors.New("engine busy")
	}
	s := editingStore(t, client)

	s.Start(context.Background())

	snap := s.Snapshot()
	assert.Equal(t, PhaseQueueEditing, snap.Phase)
	assert.Equal(t, "engine busy", snap.InlineErr)
	assert.Nil(t, snap.Report)
}

func TestStart_DirectReturn_IsACompletionPath(t *testing.T) {
	client := newFakeClient()
	final := terminalReport("run-3", report.StatusCompleted, 3)
	client.startFn = func(context.Context, []queue.Entry) (*report.RunReport, error) {
		return final, nil
	}
	s := editingStore(t, client)

	s.Start(context.Background())

	snap := s.Snapshot()
	assert.Equal(t, PhaseResults, snap.Phase)
	assert.Equal(t, "run-3", snap.Report.ID)
}

func TestStart_SendsOnlyEnabledEntries(t *testing.T) {
	client := newFakeClient()
	var sent []queue.Entry
	client.startFn = func(_ context.Context, entries []queue.Entry) (*report.RunReport, error) {
		sent = entries
		return terminalReport("run-4", report.StatusCompleted, 2), nil
	}
	s := editingStore(t, client)
	s.ToggleEntry(1)

	s.Start(context.Background())

	require.Len(t, sent, 3)
	assert.Equal(t, 2, queue.EnabledCount(sent))
}

func TestLogEvents_DeduplicateConsecutive(t *testing.T) {
	client := newFakeClient()
	started := make(chan struct{})
	release := make(chan struct{})
	client.startFn = func(ctx context.Context, _ []queue.Entry) (*report.RunReport, error) {
		close(started)
		<-release
		return terminalReport("run-5", report.StatusCompleted, 1), nil
	}
	s := editingStore(t, client)

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()
	<-started

	client.emit(engine.LogEvent{TaskID: "memory-info", Line: "a"})
	client.emit(engine.LogEvent{TaskID: "memory-info", Line: "a"})
	client.emit(engine.LogEvent{TaskID: "memory-info", Line: "b"})

	assert.Equal(t, []string{"a", "b"}, s.Snapshot().Logs)

	close(release)
	<-done
}

func TestProgressEvents_TouchOnlyCurrentIndex(t *testing.T) {
	client := newFakeClient()
	rep := &report.RunReport{
		ID:        "run-6",
		StartedAt: time.Now(),
		Status:    report.StatusRunning,
		Queue:     []queue.Entry{{TaskID: "memory-info", Enabled: true}},
	}
	client.state = engine.RunState{IsRunning: true, CurrentReport: rep}
	s := activeStore(t, client)

	client.emit(engine.ProgressEvent{Current: 1, Total: 2})

	snap := s.Snapshot()
	assert.Equal(t, PhaseRunning, snap.Phase)
	assert.Equal(t, 1, snap.Report.CurrentIndex)
	assert.Empty(t, snap.Report.Results)
}

func TestCompletionEvent_IsIdempotent(t *testing.T) {
	client := newFakeClient()
	rep := &report.RunReport{
		ID:        "run-7",
		StartedAt: time.Now(),
		Status:    report.StatusRunning,
		Queue:     []queue.Entry{{TaskID: "memory-info", Enabled: true}},
	}
	client.state = engine.RunState{IsRunning: true, CurrentReport: rep}
	s := activeStore(t, client)

	final := terminalReport("run-7", report.StatusCompleted, 1)
	client.emit(engine.CompletedEvent{Report: final})
	first := s.Snapshot()
	require.Equal(t, PhaseResults, first.Phase)

	client.emit(engine.CompletedEvent{Report: final})
	second := s.Snapshot()

	assert.Equal(t, first.Phase, second.Phase)
	assert.Equal(t, first.Report, second.Report)
}

func TestStateChanged_NotRunningWithReport_EqualsCompletion(t *testing.T) {
	client := newFakeClient()
	rep := &report.RunReport{
		ID:        "run-8",
		StartedAt: time.Now(),
		Status:    report.StatusRunning,
		Queue:     []queue.Entry{{TaskID: "memory-info", Enabled: true}},
	}
	client.state = engine.RunState{IsRunning: true, CurrentReport: rep}
	s := activeStore(t, client)

	final := terminalReport("run-8", report.StatusFailed, 1)
	client.emit(engine.StateChangedEvent{State: engine.RunState{IsRunning: false, CurrentReport: final}})

	snap := s.Snapshot()
	assert.Equal(t, PhaseResults, snap.Phase)
	assert.Equal(t, report.StatusFailed, snap.Report.Status)
}

func TestStateChanged_StillRunning_Ignored(t *testing.T) {
	client := newFakeClient()
	rep := &report.RunReport{
		ID:        "run-9",
		StartedAt: time.Now(),
		Status:    report.StatusRunning,
		Queue:     []queue.Entry{{TaskID: "memory-info", Enabled: true}},
	}
	client.state = engine.RunState{IsRunning: true, CurrentReport: rep}
	s := activeStore(t, client)

	client.emit(engine.StateChangedEvent{State: engine.RunState{IsRunning: true, CurrentReport: rep}})

	assert.Equal(t, PhaseRunning, s.Snapshot().Phase)
}

func TestLogEvents_AfterTerminal_AreDropped(t *testing.T) {
	client := newFakeClient()
	client.state = engine.RunState{
		IsRunning:     false,
		CurrentReport: terminalReport("run-10", report.StatusCompleted, 1),
	}
	s := activeStore(t, client)
	require.Equal(t, PhaseResults, s.Snapshot().Phase)

	client.emit(engine.LogEvent{TaskID: "memory-info", Line: "straggler"})
	client.emit(engine.ProgressEvent{Current: 5, Total: 9})

	snap := s.Snapshot()
	assert.Empty(t, snap.Logs)
	assert.Equal(t, 0, snap.Report.CurrentIndex)
}

func TestCancel_OptimisticReturn_ThenLateCompletionWins(t *testing.T) {
	client := newFakeClient()
	started := make(chan struct{})
	release := make(chan struct{})
	client.startFn = func(ctx context.Context, _ []queue.Entry) (*report.RunReport, error) {
		close(started)
		<-release
		return terminalReport("run-11", report.StatusCancelled, 1), nil
	}
	s := editingStore(t, client)

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()
	<-started
	require.Equal(t, PhaseRunning, s.Snapshot().Phase)

	s.Cancel(context.Background())
	assert.Equal(t, PhaseQueueEditing, s.Snapshot().Phase)

	// The canonical report arrives later and still wins.
	final := terminalReport("run-11", report.StatusCancelled, 1)
	client.emit(engine.CompletedEvent{Report: final})
	snap := s.Snapshot()
	assert.Equal(t, PhaseResults, snap.Phase)
	assert.Equal(t, report.StatusCancelled, snap.Report.Status)

	// The direct-call path resolving afterwards is the losing side of the
	// race: a no-op.
	close(release)
	<-done
	assert.Equal(t, PhaseResults, s.Snapshot().Phase)
}

func TestCancel_Failure_StaysRunning(t *testing.T) {
	client := newFakeClient()
	client.cancelErr = errors.New("cancel refused")
	started := make(chan struct{})
	release := make(chan struct{})
	client.startFn = func(ctx context.Context, _ []queue.Entry) (*report.RunReport, error) {
		close(started)
		<-release
		return terminalReport("run-12", report.StatusCompleted, 1), nil
	}
	s := editingStore(t, client)

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()
	<-started

	s.Cancel(context.Background())

	snap := s.Snapshot()
	assert.Equal(t, PhaseRunning, snap.Phase)
	assert.Equal(t, "cancel refused", snap.InlineErr)

	close(release)
	<-done
}

func TestReset_OnlyFromResults(t *testing.T) {
	client := newFakeClient()
	s := editingStore(t, client)

	s.Reset()
	assert.Equal(t, PhaseQueueEditing, s.Snapshot().Phase)

	client.emit(engine.CompletedEvent{Report: terminalReport("run-13", report.StatusCompleted, 1)})
	require.Equal(t, PhaseResults, s.Snapshot().Phase)

	s.Reset()
	snap := s.Snapshot()
	assert.Equal(t, PhaseSelection, snap.Phase)
	assert.Nil(t, snap.Report)
	assert.Empty(t, snap.Entries)
	assert.Empty(t, snap.Logs)
}

func TestClose_ReleasesSubscriptionAndDropsLateEvents(t *testing.T) {
	client := newFakeClient()
	s := NewStore(client, log.New(false))
	s.Activate(context.Background())
	require.Equal(t, 1, client.subscriberCount())

	s.Close()
	assert.Equal(t, 0, client.subscriberCount())

	// A leaked event after teardown has nowhere to go.
	client.emit(engine.CompletedEvent{Report: terminalReport("run-14", report.StatusCompleted, 1)})
	assert.Equal(t, PhaseSelection, s.Snapshot().Phase)
}

func TestScenario_ThreeTaskBundleWithOneDisabled(t *testing.T) {
	client := newFakeClient()
	client.startFn = func(ctx context.Context, entries []queue.Entry) (*report.RunReport, error) {
		enabled := queue.Enabled(entries)
		client.emit(engine.ProgressEvent{Current: 0, Total: len(enabled)})
		client.emit(engine.ProgressEvent{Current: 1, Total: len(enabled)})
		final := terminalReport("run-15", report.StatusCompleted, len(enabled))
		final.Queue = entries
		client.emit(engine.CompletedEvent{Report: final})
		return final, nil
	}
	s := editingStore(t, client)

	snap := s.Snapshot()
	require.Len(t, snap.Entries, 3)
	assert.Equal(t, []int{0, 1, 2}, entryOrders(snap.Entries))

	s.ToggleEntry(2)
	require.Equal(t, 2, queue.EnabledCount(s.Snapshot().Entries))

	s.Start(context.Background())

	snap = s.Snapshot()
	assert.Equal(t, PhaseResults, snap.Phase)
	require.NotNil(t, snap.Report)
	assert.Len(t, snap.Report.Results, 2)
}

func TestReorder_KeepsDensePermutation(t *testing.T) {
	client := newFakeClient()
	s := editingStore(t, client)

	before := taskIDs(s.Snapshot().Entries)
	s.MoveEntry(0, 2)
	s.MoveEntry(2, -1)
	s.MoveEntry(1, 10) // clamps to end

	snap := s.Snapshot()
	assert.Equal(t, []int{0, 1, 2}, entryOrders(snap.Entries))
	assert.ElementsMatch(t, before, taskIDs(snap.Entries))
}

func TestSetOption_ValidatesAgainstSchema(t *testing.T) {
	client := newFakeClient()
	s := activeStore(t, client)
	bundle, _ := task.PresetByID("deep-clean")
	require.NoError(t, s.SelectBundle(bundle))

	// temp-clean is entry 1; olderThanDays is bounded 1..365.
	require.NoError(t, s.SetOption(1, "olderThanDays", float64(30)))
	assert.Error(t, s.SetOption(1, "olderThanDays", float64(9000)))
	assert.Error(t, s.SetOption(1, "nope", true))

	snap := s.Snapshot()
	assert.Equal(t, float64(30), snap.Entries[1].Options["olderThanDays"])
}

func entryOrders(entries []queue.Entry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Order
	}
	return out
}

func taskIDs(entries []queue.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.TaskID
	}
	return out
}
