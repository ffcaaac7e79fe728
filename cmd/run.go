package cmd

import (
	"github.com/spf13/cobra"
)

var (
	runParams []string
	runFile   string
	runOpts   execOptions
)

var runCmd = &cobra.Command{
	Use:   "run [KIND]",
	Short: "Satisfy tasks given by kind and parameters, or from a plan file",
	Long: `Satisfy one task given by kind and --param bindings, or every task listed
in a YAML plan file. Dependencies are resolved before anything runs; tasks
already reflected in the catalog are skipped.

Plan file format:
  tasks:
    - kind: CreateStudy
      params:
        alias: s1
        name: Study 1
        project_alias: cancer
        project_name: Cancer cohort

Example:
cgaprov run CreateProject --param alias=cancer --param name="Cancer cohort"
cgaprov run --file plan.yaml --parallel 4`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return runOpts.validate()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := newRegistry(newCatalogClient())
		if err != nil {
			return err
		}

		requested, err := buildRequested(registry, args, runParams, runFile)
		if err != nil {
			return err
		}
		return provision(cmd.Context(), cmd, &runOpts, requested...)
	},
}

func init() {
	runCmd.Flags().StringArrayVarP(&runParams, "param", "p", nil, "Task parameter as key=value (repeatable)")
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "YAML plan file listing tasks to satisfy")
	runOpts.register(runCmd)
}
