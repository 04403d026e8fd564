package cli

import "github.com/spf13/cobra"

var version = "dev"

var verboseFlag bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "techbench",
		Short:   "Technician's toolkit: run maintenance and diagnostic service bundles",
		Version: version,
	}

	root.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "debug logging")

	root.AddCommand(newRunCmd())
	root.AddCommand(newCatalogCmd())
	root.AddCommand(newPresetsCmd())
	root.AddCommand(newReportsCmd())
	root.AddCommand(newDoctorCmd())

	return root
}

func Execute() error {
	return newRootCmd().Execute()
}
