package orchestrator

// Phase is which of the four mutually exclusive views is active.
type Phase int

const (
	PhaseSelection Phase = iota // preset bundle picker
	PhaseQueueEditing
	PhaseRunning
	PhaseResults
)

func (p Phase) String() string {
	switch p {
	case PhaseSelection:
		return "selection"
	case PhaseQueueEditing:
		return "queue-editing"
	case PhaseRunning:
		return "running"
	case PhaseResults:
		return "results"
	}
	return "unknown"
}

// legal user-driven transitions. Terminal report application is the one
// path outside this table: a canonical completion moves any phase to
// Results (see applyTerminalLocked).
var transitions = map[Phase][]Phase{
	PhaseSelection:    {PhaseQueueEditing},
	PhaseQueueEditing: {PhaseRunning, PhaseSelection},
	PhaseRunning:      {PhaseQueueEditing}, // cancellation only
	PhaseResults:      {PhaseSelection},
}

func legalTransition(from, to Phase) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}
