package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/maxkimambo/cgaprov/internal/catalog"
)

var (
	studyParams catalog.StudyParams
	studyOpts   execOptions
)

var studyCmd = &cobra.Command{
	Use:   "study",
	Short: "Manage catalog studies",
}

var studyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a study, and its project if missing",
	Long: `Create a study in the catalog. The study's project is created first when
it does not exist yet, using the --project-* flags. Existing objects are left
untouched.

Example:
cgaprov study create --alias s1 --name "Study 1" --type CASE_CONTROL \
  --project-alias cancer --project-name "Cancer cohort"`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return studyOpts.validate()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		study, err := catalog.NewCreateStudy(studyParams, newCatalogClient())
		if err != nil {
			return err
		}
		return provision(cmd.Context(), cmd, &studyOpts, study)
	},
}

func init() {
	f := studyCreateCmd.Flags()
	f.StringVarP(&studyParams.Alias, "alias", "a", "", "Study alias, unique within the project (required)")
	f.StringVarP(&studyParams.Name, "name", "n", "", "Study name (required)")
	f.StringVarP(&studyParams.Description, "description", "d", "", "Study description")
	f.StringVarP(&studyParams.Type, "type", "t", catalog.DefaultStudyType,
		"Study type: "+strings.Join(catalog.StudyTypes, ", "))
	f.StringVar(&studyParams.ProjectAlias, "project-alias", "", "Alias of the project the study belongs to (required)")
	f.StringVar(&studyParams.ProjectName, "project-name", "", "Project name, used if the project must be created (required)")
	f.StringVar(&studyParams.ProjectDescription, "project-description", "", "Project description")
	f.StringVar(&studyParams.ProjectOrganization, "project-organization", "", "Project organization")
	studyOpts.register(studyCreateCmd)

	_ = studyCreateCmd.MarkFlagRequired("alias")
	_ = studyCreateCmd.MarkFlagRequired("name")
	_ = studyCreateCmd.MarkFlagRequired("project-alias")

	studyCmd.AddCommand(studyCreateCmd)
}
