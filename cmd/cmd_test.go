package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	caterrors "github.com/maxkimambo/cgaprov/internal/errors"
	"github.com/maxkimambo/cgaprov/internal/shell"
)

// fakeCatalogRunner stands in for the catalog CLI. Create commands record the
// object; info queries print its ID when it exists.
type fakeCatalogRunner struct {
	mu       sync.Mutex
	present  map[string]bool
	runs     [][]string
	failWith error
}

func newFakeCatalogRunner() *fakeCatalogRunner {
	return &fakeCatalogRunner{present: make(map[string]bool)}
}

func argAfter(argv []string, flag string) string {
	for i := 0; i+1 < len(argv); i++ {
		if argv[i] == flag {
			return argv[i+1]
		}
	}
	return ""
}

func objectKey(argv []string) string {
	switch {
	case argv[1] == "projects" && argv[2] == "create":
		return "project:" + argAfter(argv, "-a")
	case argv[1] == "projects" && argv[2] == "info":
		_, alias, _ := strings.Cut(argAfter(argv, "--project-id"), "@")
		return "project:" + alias
	case argv[1] == "studies" && argv[2] == "create":
		_, project, _ := strings.Cut(argAfter(argv, "--project-id"), "@")
		return "study:" + project + "/" + argAfter(argv, "-a")
	case argv[1] == "studies" && argv[2] == "info":
		_, id, _ := strings.Cut(argAfter(argv, "--study-id"), "@")
		return "study:" + id
	}
	return ""
}

func (r *fakeCatalogRunner) Run(ctx context.Context, cmd shell.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, cmd.Argv)
	if r.failWith != nil {
		return r.failWith
	}
	r.present[objectKey(cmd.Argv)] = true
	return nil
}

func (r *fakeCatalogRunner) RunToFile(ctx context.Context, cmd shell.Command, outputPath string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var output []byte
	if r.present[objectKey(cmd.Argv)] {
		output = []byte("found\n")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", err
	}
	return outputPath, os.WriteFile(outputPath, output, 0o644)
}

func (r *fakeCatalogRunner) runCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func writeSettings(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline_config.conf")
	content := "root_folder: /opt/opencga\n" +
		"catalog_user: admin\n" +
		"catalog_pass: s3cret\n" +
		"artifact_dir: " + filepath.Join(dir, "artifacts") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func executeCommand(t *testing.T, runner *fakeCatalogRunner, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	previous := newRunner
	newRunner = func() shell.Runner { return runner }
	t.Cleanup(func() { newRunner = previous })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func studyArgs(settings string) []string {
	return []string{
		"study", "create", "--config", settings, "--progress-interval", "0",
		"--alias", "s1", "--name", "Study 1",
		"--project-alias", "p1", "--project-name", "Project 1",
	}
}

func TestStudyCreate_CreatesProjectFirst(t *testing.T) {
	runner := newFakeCatalogRunner()
	settings := writeSettings(t)

	out, err := executeCommand(t, runner, studyArgs(settings)...)
	require.NoError(t, err)

	require.Equal(t, 2, runner.runCount())
	assert.Equal(t, []string{"projects", "create"}, runner.runs[0][1:3])
	assert.Equal(t, []string{"studies", "create"}, runner.runs[1][1:3])
	assert.Contains(t, runner.runs[1], "CONTROL_SET")
	assert.Contains(t, out, "Provisioning complete")
}

func TestStudyCreate_Idempotent(t *testing.T) {
	runner := newFakeCatalogRunner()
	settings := writeSettings(t)

	_, err := executeCommand(t, runner, studyArgs(settings)...)
	require.NoError(t, err)
	_, err = executeCommand(t, runner, studyArgs(settings)...)
	require.NoError(t, err)

	assert.Equal(t, 2, runner.runCount())
}

func TestStudyCreate_SecondStudyReusesProject(t *testing.T) {
	runner := newFakeCatalogRunner()
	settings := writeSettings(t)

	_, err := executeCommand(t, runner, studyArgs(settings)...)
	require.NoError(t, err)

	args := studyArgs(settings)
	args[7] = "s2"
	_, err = executeCommand(t, runner, args...)
	require.NoError(t, err)

	require.Equal(t, 3, runner.runCount())
	assert.Equal(t, "s2", argAfter(runner.runs[2], "-a"))
}

func TestStudyCreate_MissingProjectName(t *testing.T) {
	runner := newFakeCatalogRunner()
	settings := writeSettings(t)

	_, err := executeCommand(t, runner, "study", "create", "--config", settings,
		"--alias", "s1", "--name", "Study 1", "--project-alias", "p1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, caterrors.ErrConfiguration))
	assert.Equal(t, 0, runner.runCount())
}

func TestProjectCreate_FailureIsReported(t *testing.T) {
	runner := newFakeCatalogRunner()
	runner.failWith = caterrors.NewCommandExitError("opencga.sh projects create", 1, "Unauthorized", errors.New("exit status 1"))
	settings := writeSettings(t)

	out, err := executeCommand(t, runner, "project", "create", "--config", settings,
		"--progress-interval", "0", "--alias", "p1", "--name", "Project 1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, caterrors.ErrExternalCommand))
	assert.Contains(t, err.Error(), "CreateProject(alias=p1")
	assert.Contains(t, out, "Provisioning failed")
}

func TestProjectCreate_MissingConfig(t *testing.T) {
	runner := newFakeCatalogRunner()

	_, err := executeCommand(t, runner, "project", "create",
		"--config", filepath.Join(t.TempDir(), "missing.conf"),
		"--progress-interval", "0", "--alias", "p1", "--name", "Project 1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, caterrors.ErrConfiguration))
	assert.Equal(t, 0, runner.runCount())
}

func TestRun_WithParams(t *testing.T) {
	runner := newFakeCatalogRunner()
	settings := writeSettings(t)

	_, err := executeCommand(t, runner, "run", "CreateProject", "--config", settings,
		"--progress-interval", "0", "-p", "alias=p1", "-p", "name=Project 1")
	require.NoError(t, err)
	assert.Equal(t, 1, runner.runCount())
}

func TestRun_UnknownKind(t *testing.T) {
	runner := newFakeCatalogRunner()

	_, err := executeCommand(t, runner, "run", "DeleteEverything", "--config", writeSettings(t))
	assert.True(t, errors.Is(err, caterrors.ErrConfiguration))
}

func TestRun_PlanFile(t *testing.T) {
	runner := newFakeCatalogRunner()
	settings := writeSettings(t)

	plan := `tasks:
  - kind: CreateStudy
    params:
      alias: s1
      name: Study 1
      project_alias: p1
      project_name: Project 1
  - kind: CreateStudy
    params:
      alias: s2
      name: Study 2
      project_alias: p1
      project_name: Project 1
`
	planPath := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(planPath, []byte(plan), 0o644))

	reportDir := t.TempDir()
	reportPath := filepath.Join(reportDir, "report.json")
	dotPath := filepath.Join(reportDir, "report.dot")
	_, err := executeCommand(t, runner, "run", "--config", settings, "--file", planPath,
		"--parallel", "4", "--progress-interval", "0", "--report-json", reportPath, "--report-dot", dotPath)
	require.NoError(t, err)

	assert.Equal(t, 3, runner.runCount())
	assert.FileExists(t, reportPath)
	dot, err := os.ReadFile(dotPath)
	require.NoError(t, err)
	assert.Contains(t, string(dot), "cluster_legend")
}

func TestRun_InvalidParallel(t *testing.T) {
	_, err := executeCommand(t, newFakeCatalogRunner(), "run", "CreateProject", "--parallel", "0")
	assert.Error(t, err)
}

func TestPlan_Tree(t *testing.T) {
	runner := newFakeCatalogRunner()

	out, err := executeCommand(t, runner, "plan", "CreateStudy",
		"-p", "alias=s1", "-p", "name=S1", "-p", "project_alias=p1", "-p", "project_name=P1")
	require.NoError(t, err)

	assert.Contains(t, out, "CreateStudy(alias=s1")
	assert.Contains(t, out, "└── CreateProject(alias=p1, name=P1")
	assert.Equal(t, 0, runner.runCount())
}

func TestPlan_Dot(t *testing.T) {
	out, err := executeCommand(t, newFakeCatalogRunner(), "plan", "CreateProject",
		"-p", "alias=p1", "-p", "name=P1", "--format", "dot")
	require.NoError(t, err)
	assert.Contains(t, out, "digraph Provisioning")
}

func TestPlan_UnknownFormat(t *testing.T) {
	_, err := executeCommand(t, newFakeCatalogRunner(), "plan", "CreateProject", "--format", "svg")
	assert.Error(t, err)
}

func TestKinds(t *testing.T) {
	out, err := executeCommand(t, newFakeCatalogRunner(), "kinds")
	require.NoError(t, err)

	assert.Contains(t, out, "CreateProject")
	assert.Contains(t, out, "CreateStudy")
	assert.Contains(t, out, "project_name")
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{"empty", nil, map[string]string{}, false},
		{"simple", []string{"alias=p1", "name=My Project"}, map[string]string{"alias": "p1", "name": "My Project"}, false},
		{"value with equals", []string{"description=a=b"}, map[string]string{"description": "a=b"}, false},
		{"empty value", []string{"description="}, map[string]string{"description": ""}, false},
		{"missing equals", []string{"alias"}, nil, true},
		{"empty key", []string{"=p1"}, nil, true},
		{"duplicate", []string{"alias=a", "alias=b"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.pairs)
			if tt.wantErr {
				assert.True(t, errors.Is(err, caterrors.ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
