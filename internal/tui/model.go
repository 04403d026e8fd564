package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/SonnyTaylor/techbench/internal/orchestrator"
	"github.com/SonnyTaylor/techbench/internal/task"
)

// Model is the top-level Bubble Tea model for `techbench run`. It is a
// thin consumer of the orchestrator store: keys translate to store calls,
// StoreChangedMsg re-reads the snapshot, and the view renders whichever
// phase the store says is active.
type Model struct {
	store   *orchestrator.Store
	bundles []task.Bundle
	catalog map[string]task.Definition

	snap     orchestrator.Snapshot
	width    int
	height   int
	Err      error
	quitting bool

	selection SelectionModel
	queue     QueueModel
	running   RunningModel
	results   ResultsModel
}

// NewModel creates the TUI model around an inactive store.
func NewModel(store *orchestrator.Store, bundles []task.Bundle, catalog []task.Definition) Model {
	byID := make(map[string]task.Definition, len(catalog))
	for _, def := range catalog {
		byID[def.ID] = def
	}
	return Model{
		store:     store,
		bundles:   bundles,
		catalog:   byID,
		selection: NewSelectionModel(bundles),
		running:   NewRunningModel(),
	}
}

func (m Model) Init() tea.Cmd {
	store := m.store
	activate := func() tea.Msg {
		store.Activate(context.Background())
		return StoreChangedMsg{}
	}
	return tea.Batch(activate, m.running.Spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case StoreChangedMsg:
		m.snap = m.store.Snapshot()
		m.clampCursors()
		return m, nil

	case ErrorMsg:
		m.Err = msg.Err
		m.quitting = true
		return m, tea.Quit

	case spinner.TickMsg:
		if m.snap.Phase == orchestrator.PhaseRunning {
			var cmd tea.Cmd
			m.running.Spinner, cmd = m.running.Spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, Keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	switch m.snap.Phase {
	case orchestrator.PhaseSelection:
		return m.updateSelection(msg)
	case orchestrator.PhaseQueueEditing:
		return m.updateQueue(msg)
	case orchestrator.PhaseRunning:
		return m.updateRunning(msg)
	case orchestrator.PhaseResults:
		return m.updateResults(msg)
	}

	return m, nil
}

func (m Model) View() string {
	if m.Err != nil {
		return StyleError.Render("  Error: "+m.Err.Error()) + "\n"
	}

	switch m.snap.Phase {
	case orchestrator.PhaseSelection:
		return m.selection.View()
	case orchestrator.PhaseQueueEditing:
		return m.queue.View(m.snap, m.catalog)
	case orchestrator.PhaseRunning:
		return m.running.View(m.snap, m.catalog)
	case orchestrator.PhaseResults:
		return m.results.View(m.snap, m.catalog)
	}

	return ""
}

func (m *Model) clampCursors() {
	if n := len(m.snap.Entries); m.queue.Cursor >= n && n > 0 {
		m.queue.Cursor = n - 1
	}
}

func (m Model) updateSelection(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(msg, Keys.Confirm) {
			if b, ok := m.selection.Current(); ok {
				if err := m.store.SelectBundle(b); err != nil {
					// A bundle naming an unknown task is a defect, not a
					// skippable runtime case.
					m.Err = err
					m.quitting = true
					return m, tea.Quit
				}
				m.snap = m.store.Snapshot()
			}
			return m, nil
		}
	}
	m.selection = m.selection.Update(msg)
	return m, nil
}

func (m Model) updateQueue(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, Keys.Confirm):
			return m, tea.Batch(m.startCmd(), m.running.Spinner.Tick)
		case key.Matches(msg, Keys.Back):
			m.store.BackToSelection()
			m.snap = m.store.Snapshot()
			return m, nil
		case key.Matches(msg, Keys.Toggle):
			m.store.ToggleEntry(m.queue.Cursor)
			m.snap = m.store.Snapshot()
			return m, nil
		case key.Matches(msg, Keys.MoveUp):
			m.store.MoveEntry(m.queue.Cursor, -1)
			if m.queue.Cursor > 0 {
				m.queue.Cursor--
			}
			m.snap = m.store.Snapshot()
			return m, nil
		case key.Matches(msg, Keys.MoveDown):
			m.store.MoveEntry(m.queue.Cursor, 1)
			if m.queue.Cursor < len(m.snap.Entries)-1 {
				m.queue.Cursor++
			}
			m.snap = m.store.Snapshot()
			return m, nil
		case key.Matches(msg, Keys.Decrease), key.Matches(msg, Keys.Increase):
			m.adjustOption(key.Matches(msg, Keys.Increase))
			m.snap = m.store.Snapshot()
			return m, nil
		}
	}
	m.queue = m.queue.Update(msg, m.snap, m.catalog)
	return m, nil
}

func (m Model) updateRunning(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(msg, Keys.Cancel) {
			return m, m.cancelCmd()
		}
	}
	return m, nil
}

func (m Model) updateResults(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, Keys.NewRun):
			m.store.Reset()
			m.snap = m.store.Snapshot()
			return m, nil
		case key.Matches(msg, Keys.QuitResults):
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// startCmd runs the blocking Start call off the update loop. Completion
// comes back through the store's change notification.
func (m Model) startCmd() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		store.Start(context.Background())
		return StoreChangedMsg{}
	}
}

func (m Model) cancelCmd() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		store.Cancel(context.Background())
		return StoreChangedMsg{}
	}
}

// adjustOption nudges the focused option of the cursor entry.
func (m *Model) adjustOption(up bool) {
	entries := m.snap.Entries
	if m.queue.Cursor >= len(entries) {
		return
	}
	entry := entries[m.queue.Cursor]
	def, ok := m.catalog[entry.TaskID]
	if !ok || len(def.Options) == 0 {
		return
	}
	spec := def.Options[m.queue.OptIndex%len(def.Options)]
	next, ok := nextOptionValue(spec, entry.Options[spec.Key], up)
	if !ok {
		return
	}
	if err := m.store.SetOption(m.queue.Cursor, spec.Key, next); err != nil {
		m.snap = m.store.Snapshot()
	}
}

// nextOptionValue steps an option value within its spec bounds.
func nextOptionValue(spec task.OptionSpec, current any, up bool) (any, bool) {
	switch spec.Type {
	case task.OptionBoolean:
		b, _ := current.(bool)
		return !b, true
	case task.OptionNumber:
		n, _ := current.(float64)
		if up {
			n++
		} else {
			n--
		}
		if spec.Min != 0 || spec.Max != 0 {
			if n < spec.Min {
				n = spec.Min
			}
			if n > spec.Max {
				n = spec.Max
			}
		}
		return n, true
	case task.OptionChoice:
		cur, _ := current.(string)
		idx := 0
		for i, c := range spec.Choices {
			if c == cur {
				idx = i
				break
			}
		}
		if up {
			idx = (idx + 1) % len(spec.Choices)
		} else {
			idx = (idx - 1 + len(spec.Choices)) % len(spec.Choices)
		}
		return spec.Choices[idx], true
	}
	return nil, false // strings are not inline-editable
}
