package cli

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/SonnyTaylor/techbench/internal/config"
	"github.com/SonnyTaylor/techbench/internal/engine"
	"github.com/SonnyTaylor/techbench/internal/log"
	"github.com/SonnyTaylor/techbench/internal/orchestrator"
	"github.com/SonnyTaylor/techbench/internal/queue"
	"github.com/SonnyTaylor/techbench/internal/report"
	"github.com/SonnyTaylor/techbench/internal/task"
	"github.com/SonnyTaylor/techbench/internal/tui"
)

func newRunCmd() *cobra.Command {
	var presetFlag string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Select, edit, and run a service bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := log.New(verboseFlag || cfg.Verbose)

			eng := engine.New(logger,
				engine.WithTaskTimeout(time.Duration(cfg.TaskTimeoutSec)*time.Second))
			store := orchestrator.NewStore(eng, logger,
				orchestrator.WithMaxLogLines(cfg.MaxLogLines))
			defer store.Close()

			reports, err := report.NewStore(cfg.DataDir)
			if err != nil {
				return err
			}

			if presetFlag != "" || !isTTYRun() {
				return runHeadless(cmd.Context(), eng, reports, presetFlag)
			}
			return runTUI(cmd.Context(), eng, store, reports)
		},
	}

	cmd.Flags().StringVar(&presetFlag, "preset", "", "run a preset bundle headless (no TUI)")
	return cmd
}

// runTUI drives the phase UI. The store is the single source of state;
// its change notifications are bridged into Bubble Tea messages.
func runTUI(ctx context.Context, eng engine.Client, store *orchestrator.Store, reports *report.Store) error {
	bundles, err := eng.PresetBundles(ctx)
	if err != nil {
		return err
	}
	catalog, err := eng.ServiceCatalog(ctx)
	if err != nil {
		return err
	}

	model := tui.NewModel(store, bundles, catalog)
	program := tea.NewProgram(model, tea.WithAltScreen())

	var saveMu sync.Mutex
	saved := make(map[string]bool)

	release := store.Subscribe(func() {
		program.Send(tui.StoreChangedMsg{})

		// Persist each finalized report exactly once.
		snap := store.Snapshot()
		if snap.Phase != orchestrator.PhaseResults || snap.Report == nil {
			return
		}
		saveMu.Lock()
		defer saveMu.Unlock()
		if saved[snap.Report.ID] {
			return
		}
		saved[snap.Report.ID] = true
		if err := reports.Save(snap.Report); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to save report: %v\n", err)
		}
	})
	defer release()

	finalModel, err := program.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	if m, ok := finalModel.(tui.Model); ok && m.Err != nil {
		return m.Err
	}
	return nil
}

// runHeadless executes a preset without the TUI and prints the summary.
func runHeadless(ctx context.Context, eng engine.Client, reports *report.Store, presetID string) error {
	if presetID == "" {
		return fmt.Errorf("no TTY: pass --preset <id> for headless runs")
	}
	bundle, ok := task.PresetByID(presetID)
	if !ok {
		return fmt.Errorf("unknown preset: %q", presetID)
	}
	entries, err := queue.Materialize(bundle)
	if err != nil {
		return err
	}

	rep, err := eng.StartRun(ctx, entries)
	if err != nil {
		return err
	}
	if err := reports.Save(rep); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save report: %v\n", err)
	}
	fmt.Print(report.Summary(rep))

	if rep.Status != report.StatusCompleted {
		return fmt.Errorf("run %s: %s", rep.ID, rep.Status)
	}
	return nil
}

func isTTYRun() bool {
	return tui.IsTTY() && isStdinTerminal()
}

func isStdinTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}
