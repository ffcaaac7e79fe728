package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maxkimambo/cgaprov/internal/dag"
)

var (
	planParams []string
	planFile   string
	planFormat string
)

var planCmd = &cobra.Command{
	Use:   "plan [KIND]",
	Short: "Show the dependency graph of tasks without running anything",
	Long: `Resolve the dependency graph of a task (or of every task in a plan file)
and print it. No catalog command is executed, so neither the settings file
nor the catalog needs to be reachable.

Formats: tree (default), dot (Graphviz), json.

Example:
cgaprov plan CreateStudy -p alias=s1 -p name=S1 -p project_alias=p1 -p project_name=P1
cgaprov plan --file plan.yaml --format dot | dot -Tpng > plan.png`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		switch planFormat {
		case "tree", "dot", "json":
			return nil
		default:
			return fmt.Errorf("unknown --format %q: expected tree, dot or json", planFormat)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := newRegistry(newCatalogClient())
		if err != nil {
			return err
		}

		requested, err := buildRequested(registry, args, planParams, planFile)
		if err != nil {
			return err
		}

		graph, err := dag.Resolve(requested...)
		if err != nil {
			return err
		}

		v := dag.NewDAGVisualization(graph)
		out := cmd.OutOrStdout()
		switch planFormat {
		case "dot":
			fmt.Fprint(out, v.GenerateDOTGraph())
		case "json":
			data, err := json.MarshalIndent(v.GenerateDAGInfo(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
		default:
			fmt.Fprint(out, v.GenerateTextTree())
		}
		return nil
	},
}

func init() {
	planCmd.Flags().StringArrayVarP(&planParams, "param", "p", nil, "Task parameter as key=value (repeatable)")
	planCmd.Flags().StringVarP(&planFile, "file", "f", "", "YAML plan file listing tasks")
	planCmd.Flags().StringVar(&planFormat, "format", "tree", "Output format: tree, dot or json")
}
