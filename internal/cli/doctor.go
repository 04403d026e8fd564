package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/SonnyTaylor/techbench/internal/task"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that each task's underlying tool is installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			results := task.Probe(cmd.Context(), task.Catalog(), 8)

			missing := 0
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TASK\tBINARY\tSTATUS")
			for _, r := range results {
				status := "ok"
				if !r.Available {
					status = "missing"
					missing++
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.TaskID, r.Binary, status)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if missing > 0 {
				return fmt.Errorf("%d task binaries missing", missing)
			}
			return nil
		},
	}
}
