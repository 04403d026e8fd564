package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/SonnyTaylor/techbench/internal/config"
	"github.com/SonnyTaylor/techbench/internal/report"
)

func newReportsCmd() *cobra.Command {
	var followFlag bool

	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List saved run reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openReportStore()
			if err != nil {
				return err
			}

			if err := listReports(cmd, store); err != nil {
				return err
			}
			if !followFlag {
				return nil
			}

			// Block and print each report saved by other runs as it lands.
			err = store.Watch(cmd.Context(), func(r *report.RunReport) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-9s  %d tasks  %s\n",
					r.StartedAt.Format(time.RFC3339), r.Status, len(r.Results), r.ID)
			})
			if cmd.Context().Err() != nil {
				return nil // interrupted, not an error
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&followFlag, "follow", "f", false, "watch for new reports")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <report-id>",
		Short: "Print one report's summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openReportStore()
			if err != nil {
				return err
			}
			r, err := store.Find(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.Summary(r))
			return nil
		},
	})

	return cmd
}

func openReportStore() (*report.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return report.NewStore(cfg.DataDir)
}

func listReports(cmd *cobra.Command, store *report.Store) error {
	reports, err := store.List()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tSTATUS\tTASKS\tFINDINGS\tID")
	for _, r := range reports {
		findings := 0
		for _, n := range r.CountBySeverity() {
			findings += n
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			r.StartedAt.Format("2006-01-02 15:04"), r.Status, len(r.Results), findings, r.ID)
	}
	return w.Flush()
}
