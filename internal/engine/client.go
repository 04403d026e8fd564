package engine

import (
	"context"

	"github.com/SonnyTaylor/techbench/internal/queue"
	"github.com/SonnyTaylor/techbench/internal/report"
	"github.com/SonnyTaylor/techbench/internal/task"
)

// Client is the command/event boundary the orchestrator talks through.
// The in-process Engine implements it; tests substitute fakes.
type Client interface {
	// ServiceCatalog lists every task definition the runner knows.
	ServiceCatalog(ctx context.Context) ([]task.Definition, error)

	// PresetBundles lists the available preset bundles.
	PresetBundles(ctx context.Context) ([]task.Bundle, error)

	// QueryRunState returns whether a run is active and the latest report.
	QueryRunState(ctx context.Context) (RunState, error)

	// StartRun executes the enabled entries of the queue and blocks until
	// the run reaches a terminal status, returning the final report.
	StartRun(ctx context.Context, entries []queue.Entry) (*report.RunReport, error)

	// CancelRun requests the active run stop. A no-op when idle.
	CancelRun(ctx context.Context) error

	// Subscribe registers an event handler and returns its release func.
	Subscribe(fn func(Event)) (func(), error)
}
