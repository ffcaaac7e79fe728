package cmd

import (
	"github.com/spf13/cobra"

	"github.com/maxkimambo/cgaprov/internal/catalog"
)

var (
	projectParams catalog.ProjectParams
	projectOpts   execOptions
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage catalog projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project unless it already exists",
	Long: `Create a project in the catalog. Nothing is done if a project with the
same alias already exists for the configured user.

Example:
cgaprov project create --alias cancer --name "Cancer cohort" --organization lab`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return projectOpts.validate()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := catalog.NewCreateProject(projectParams, newCatalogClient())
		if err != nil {
			return err
		}
		return provision(cmd.Context(), cmd, &projectOpts, project)
	},
}

func init() {
	f := projectCreateCmd.Flags()
	f.StringVarP(&projectParams.Alias, "alias", "a", "", "Project alias, unique per user (required)")
	f.StringVarP(&projectParams.Name, "name", "n", "", "Project name (required)")
	f.StringVarP(&projectParams.Description, "description", "d", "", "Project description")
	f.StringVarP(&projectParams.Organization, "organization", "o", "", "Owning organization")
	projectOpts.register(projectCreateCmd)

	_ = projectCreateCmd.MarkFlagRequired("alias")
	_ = projectCreateCmd.MarkFlagRequired("name")

	projectCmd.AddCommand(projectCreateCmd)
}
