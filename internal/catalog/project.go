package catalog

import (
	"context"
	"strings"

	caterrors "github.com/maxkimambo/cgaprov/internal/errors"
	"github.com/maxkimambo/cgaprov/internal/logger"
	"github.com/maxkimambo/cgaprov/internal/task"
)

const KindCreateProject = "CreateProject"

// Project parameter names
const (
	ParamAlias        = "alias"
	ParamName         = "name"
	ParamDescription  = "description"
	ParamOrganization = "organization"
)

// ProjectParams are the settings of a catalog project
type ProjectParams struct {
	Alias        string
	Name         string
	Description  string
	Organization string
}

// Validate checks the parameters of a project
func (p ProjectParams) Validate() error {
	if err := validateAlias(ParamAlias, p.Alias, KindCreateProject); err != nil {
		return err
	}
	if strings.TrimSpace(p.Name) == "" {
		return caterrors.NewValidationFailedError(ParamName, p.Name, "must not be empty", KindCreateProject)
	}
	return nil
}

// validateAlias rejects aliases that would corrupt the user@project/study IDs
// built from them.
func validateAlias(field, alias, operation string) error {
	switch {
	case alias == "":
		return caterrors.NewValidationFailedError(field, alias, "must not be empty", operation)
	case strings.ContainsAny(alias, "@/:"):
		return caterrors.NewValidationFailedError(field, alias, "must not contain '@', '/' or ':'", operation)
	case strings.IndexFunc(alias, isSpace) >= 0:
		return caterrors.NewValidationFailedError(field, alias, "must not contain whitespace", operation)
	}
	return nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// CreateProject creates a project in the catalog
type CreateProject struct {
	params ProjectParams
	client *Client
}

// NewCreateProject validates params and returns the task
func NewCreateProject(params ProjectParams, client *Client) (*CreateProject, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &CreateProject{params: params, client: client}, nil
}

// ProjectParams returns the bound parameters
func (t *CreateProject) ProjectParams() ProjectParams {
	return t.params
}

func (t *CreateProject) Kind() string {
	return KindCreateProject
}

func (t *CreateProject) Params() task.Params {
	return task.Params{
		{Name: ParamAlias, Value: t.params.Alias},
		{Name: ParamName, Value: t.params.Name},
		{Name: ParamDescription, Value: t.params.Description},
		{Name: ParamOrganization, Value: t.params.Organization},
	}
}

func (t *CreateProject) Dependencies() ([]task.Task, error) {
	return nil, nil
}

func (t *CreateProject) Run(ctx context.Context) error {
	logger.User.Createf("Creating project %s (%s)", t.params.Alias, t.params.Name)
	return t.client.Exec(ctx, ProjectCreateTemplate, map[string]string{
		"name":         t.params.Name,
		"organization": t.params.Organization,
		"description":  t.params.Description,
		"alias":        t.params.Alias,
	})
}

func (t *CreateProject) Complete(ctx context.Context) (bool, error) {
	return t.client.Exists(ctx, ProjectInfoTemplate, map[string]string{
		"alias": t.params.Alias,
	}, "project-"+t.params.Alias)
}

func newProjectFromBindings(client *Client) func(map[string]string) (task.Task, error) {
	return func(b map[string]string) (task.Task, error) {
		return NewCreateProject(ProjectParams{
			Alias:        b[ParamAlias],
			Name:         b[ParamName],
			Description:  b[ParamDescription],
			Organization: b[ParamOrganization],
		}, client)
	}
}
