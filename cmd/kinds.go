package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the task kinds that can be run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := newRegistry(newCatalogClient())
		if err != nil {
			return err
		}

		for _, kind := range registry.Kinds() {
			f, _ := registry.Factory(kind)
			fmt.Fprintln(cmd.OutOrStdout(), describeFactory(f))
		}
		return nil
	},
}
