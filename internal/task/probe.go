package task

import (
	"context"
	"os/exec"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ProbeResult reports whether a task's underlying binary is on PATH.
type ProbeResult struct {
	TaskID    string
	Binary    string
	Available bool
	Err       error
}

// Probe checks binary availability for each definition in parallel.
// Results come back in the same order as defs.
func Probe(ctx context.Context, defs []Definition, maxParallel int64) []ProbeResult {
	if maxParallel < 1 {
		maxParallel = 4
	}
	results := make([]ProbeResult, len(defs))

	sem := semaphore.NewWeighted(maxParallel)
	g, gctx := errgroup.WithContext(ctx)

	for i, def := range defs {
		i, def := i, def
		inv := def.Build(def.DefaultOptions())
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				results[i] = ProbeResult{TaskID: def.ID, Binary: inv.Binary, Err: err}
				return nil
			}
			defer sem.Release(1)

			_, err := exec.LookPath(inv.Binary)
			results[i] = ProbeResult{
				TaskID:    def.ID,
				Binary:    inv.Binary,
				Available: err == nil,
				Err:       err,
			}
			return nil
		})
	}

	g.Wait()
	return results
}
