package catalog

import (
	"context"
	"fmt"
	"strings"

	caterrors "github.com/maxkimambo/cgaprov/internal/errors"
	"github.com/maxkimambo/cgaprov/internal/logger"
	"github.com/maxkimambo/cgaprov/internal/task"
)

const KindCreateStudy = "CreateStudy"

// Study parameter names beyond the shared alias/name/description
const (
	ParamType                = "type"
	ParamProjectAlias        = "project_alias"
	ParamProjectName         = "project_name"
	ParamProjectDescription  = "project_description"
	ParamProjectOrganization = "project_organization"
)

// DefaultStudyType is used when no study type is given
const DefaultStudyType = "CONTROL_SET"

// StudyTypes accepted by the catalog
var StudyTypes = []string{
	"CASE_CONTROL", "CASE_SET", "CONTROL_SET", "PAIRED", "PAIRED_TUMOR",
	"AGGREGATE", "TIME_SERIES", "FAMILY", "TRIO", "COLLECTION",
}

// StudyParams are the settings of a catalog study and of the project it
// belongs to
type StudyParams struct {
	Alias       string
	Name        string
	Description string
	Type        string

	ProjectAlias        string
	ProjectName         string
	ProjectDescription  string
	ProjectOrganization string
}

// WithDefaults fills unset optional fields
func (p StudyParams) WithDefaults() StudyParams {
	if p.Type == "" {
		p.Type = DefaultStudyType
	}
	return p
}

// Validate checks the study's own parameters. The project parameters are
// checked when the project dependency is built.
func (p StudyParams) Validate() error {
	if err := validateAlias(ParamAlias, p.Alias, KindCreateStudy); err != nil {
		return err
	}
	if strings.TrimSpace(p.Name) == "" {
		return caterrors.NewValidationFailedError(ParamName, p.Name, "must not be empty", KindCreateStudy)
	}
	if err := validateAlias(ParamProjectAlias, p.ProjectAlias, KindCreateStudy); err != nil {
		return err
	}
	for _, known := range StudyTypes {
		if p.Type == known {
			return nil
		}
	}
	return caterrors.NewValidationFailedError(ParamType, p.Type,
		fmt.Sprintf("must be one of %s", strings.Join(StudyTypes, ", ")), KindCreateStudy)
}

// Project returns the parameters of the project this study belongs to
func (p StudyParams) Project() ProjectParams {
	return ProjectParams{
		Alias:        p.ProjectAlias,
		Name:         p.ProjectName,
		Description:  p.ProjectDescription,
		Organization: p.ProjectOrganization,
	}
}

// CreateStudy creates a study inside a project, creating the project first
// if it is missing
type CreateStudy struct {
	params StudyParams
	client *Client
}

// NewCreateStudy applies defaults, validates params and returns the task
func NewCreateStudy(params StudyParams, client *Client) (*CreateStudy, error) {
	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &CreateStudy{params: params, client: client}, nil
}

// StudyParams returns the bound parameters
func (t *CreateStudy) StudyParams() StudyParams {
	return t.params
}

func (t *CreateStudy) Kind() string {
	return KindCreateStudy
}

func (t *CreateStudy) Params() task.Params {
	return task.Params{
		{Name: ParamAlias, Value: t.params.Alias},
		{Name: ParamName, Value: t.params.Name},
		{Name: ParamDescription, Value: t.params.Description},
		{Name: ParamType, Value: t.params.Type},
		{Name: ParamProjectAlias, Value: t.params.ProjectAlias},
		{Name: ParamProjectName, Value: t.params.ProjectName},
		{Name: ParamProjectDescription, Value: t.params.ProjectDescription},
		{Name: ParamProjectOrganization, Value: t.params.ProjectOrganization},
	}
}

// Dependencies builds the parent project from this study's own project
// parameters. The project name is required to create it, so a study without
// one cannot be scheduled.
func (t *CreateStudy) Dependencies() ([]task.Task, error) {
	if strings.TrimSpace(t.params.ProjectName) == "" {
		return nil, caterrors.NewUnresolvedParameterError(task.Describe(t), KindCreateProject, ParamProjectName)
	}

	project, err := NewCreateProject(t.params.Project(), t.client)
	if err != nil {
		return nil, fmt.Errorf("build project dependency of %s: %w", task.Describe(t), err)
	}
	return []task.Task{project}, nil
}

func (t *CreateStudy) Run(ctx context.Context) error {
	logger.User.Createf("Creating study %s in project %s", t.params.Alias, t.params.ProjectAlias)
	return t.client.Exec(ctx, StudyCreateTemplate, map[string]string{
		"name":          t.params.Name,
		"description":   t.params.Description,
		"alias":         t.params.Alias,
		"type":          t.params.Type,
		"project-alias": t.params.ProjectAlias,
	})
}

func (t *CreateStudy) Complete(ctx context.Context) (bool, error) {
	return t.client.Exists(ctx, StudyInfoTemplate, map[string]string{
		"project-alias": t.params.ProjectAlias,
		"alias":         t.params.Alias,
	}, "study-"+t.params.ProjectAlias+"-"+t.params.Alias)
}

func newStudyFromBindings(client *Client) func(map[string]string) (task.Task, error) {
	return func(b map[string]string) (task.Task, error) {
		return NewCreateStudy(StudyParams{
			Alias:               b[ParamAlias],
			Name:                b[ParamName],
			Description:         b[ParamDescription],
			Type:                b[ParamType],
			ProjectAlias:        b[ParamProjectAlias],
			ProjectName:         b[ParamProjectName],
			ProjectDescription:  b[ParamProjectDescription],
			ProjectOrganization: b[ParamProjectOrganization],
		}, client)
	}
}

// Register adds the catalog task kinds to r
func Register(r *task.Registry, client *Client) error {
	factories := []task.Factory{
		{
			Kind:        KindCreateProject,
			Description: "Create a project in the catalog",
			Params:      []string{ParamAlias, ParamName, ParamDescription, ParamOrganization},
			New:         newProjectFromBindings(client),
		},
		{
			Kind:        KindCreateStudy,
			Description: "Create a study (and its project, if missing) in the catalog",
			Params: []string{
				ParamAlias, ParamName, ParamDescription, ParamType,
				ParamProjectAlias, ParamProjectName, ParamProjectDescription, ParamProjectOrganization,
			},
			New: newStudyFromBindings(client),
		},
	}

	for _, f := range factories {
		if err := r.Register(f); err != nil {
			return err
		}
	}
	return nil
}
