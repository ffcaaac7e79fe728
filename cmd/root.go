package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/maxkimambo/cgaprov/internal/config"
	"github.com/maxkimambo/cgaprov/internal/logger"
)

var (
	configPath string
	debug      bool
	verbose    bool
	jsonLogs   bool
	quiet      bool
	version    = "v0.1.0"

	rootCmd = &cobra.Command{
		Use:   "cgaprov",
		Short: "Provision OpenCGA catalog projects and studies",
		Long: `Provision projects and studies in an OpenCGA catalog through its command-line tool.

Every task checks the catalog before acting, so re-running a command only
creates what is still missing. A study's project is created first when needed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetupWithWriters(verbose || debug, jsonLogs, quiet, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
)

// ExecuteContext runs the root command; cancelling ctx stops scheduling new
// catalog commands
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Catalog settings file (YAML mapping or key = value lines)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")

	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(studyCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(kindsCmd)
}
