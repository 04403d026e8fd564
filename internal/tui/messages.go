package tui

// StoreChangedMsg tells the TUI to re-read the orchestrator snapshot.
// The cli layer bridges store change notifications into this message via
// Program.Send; the TUI itself never watches the store directly.
type StoreChangedMsg struct{}

// ErrorMsg aborts the TUI with a fatal error.
type ErrorMsg struct {
	Err error
}
