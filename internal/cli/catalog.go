package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/SonnyTaylor/techbench/internal/task"
)

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List available tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tESTIMATE\tOPTIONS")
			for _, def := range task.Catalog() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
					def.ID, def.Name, def.Category, def.Estimate, len(def.Options))
			}
			return w.Flush()
		},
	}
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List preset bundles",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTASKS\tDESCRIPTION")
			for _, b := range task.Presets() {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", b.ID, b.Name, len(b.Tasks), b.Description)
			}
			return w.Flush()
		},
	}
}
