package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/maxkimambo/cgaprov/internal/catalog"
	"github.com/maxkimambo/cgaprov/internal/config"
	"github.com/maxkimambo/cgaprov/internal/dag"
	caterrors "github.com/maxkimambo/cgaprov/internal/errors"
	"github.com/maxkimambo/cgaprov/internal/logger"
	"github.com/maxkimambo/cgaprov/internal/report"
	"github.com/maxkimambo/cgaprov/internal/shell"
	"github.com/maxkimambo/cgaprov/internal/task"
)

// newRunner creates the runner for catalog commands. Tests replace it.
var newRunner = func() shell.Runner {
	return shell.NewExecRunner()
}

// execution flags shared by every command that provisions
type execOptions struct {
	parallel         int
	verify           bool
	taskTimeout      time.Duration
	progressInterval time.Duration
	reportJSON       string
	reportDOT        string
}

func (o *execOptions) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&o.parallel, "parallel", 1, "Number of catalog commands to run concurrently (1-32)")
	cmd.Flags().BoolVar(&o.verify, "verify", false, "Re-check the catalog after each task and fail if it is not reflected")
	cmd.Flags().DurationVar(&o.taskTimeout, "task-timeout", 0, "Maximum time a task waits for a free worker (0 = no limit)")
	cmd.Flags().DurationVar(&o.progressInterval, "progress-interval", 30*time.Second, "How often to report running tasks (0 = never)")
	cmd.Flags().StringVar(&o.reportJSON, "report-json", "", "Write the execution graph and task outcomes to this JSON file")
	cmd.Flags().StringVar(&o.reportDOT, "report-dot", "", "Write the execution graph coloured by task outcome to this Graphviz DOT file")
}

func (o *execOptions) validate() error {
	if o.parallel < 1 || o.parallel > 32 {
		return fmt.Errorf("--parallel must be between 1 and 32, got %d", o.parallel)
	}
	if o.taskTimeout < 0 || o.progressInterval < 0 {
		return fmt.Errorf("--task-timeout and --progress-interval must not be negative")
	}
	return nil
}

func (o *execOptions) executorConfig() *dag.ExecutorConfig {
	config := dag.DefaultExecutorConfig()
	config.MaxParallelTasks = o.parallel
	config.VerifyAfterRun = o.verify
	config.TaskTimeout = o.taskTimeout
	config.ProgressInterval = o.progressInterval
	return config
}

func newCatalogClient() *catalog.Client {
	return catalog.NewClient(config.NewFileSource(configPath), newRunner())
}

func newRegistry(client *catalog.Client) (*task.Registry, error) {
	registry := task.NewRegistry()
	if err := catalog.Register(registry, client); err != nil {
		return nil, err
	}
	return registry, nil
}

// parseParams turns repeated key=value flags into bindings
func parseParams(pairs []string) (map[string]string, error) {
	bindings := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, caterrors.NewValidationFailedError("param", pair, "expected key=value", "Argument parsing")
		}
		if _, dup := bindings[key]; dup {
			return nil, caterrors.NewValidationFailedError("param", pair, "parameter given more than once", "Argument parsing")
		}
		bindings[key] = value
	}
	return bindings, nil
}

// PlanFile lists tasks to satisfy in one invocation
type PlanFile struct {
	Tasks []PlanEntry `yaml:"tasks"`
}

// PlanEntry is one requested task in a plan file
type PlanEntry struct {
	Kind   string            `yaml:"kind"`
	Params map[string]string `yaml:"params"`
}

func loadPlanFile(path string) (*PlanFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, caterrors.NewConfigurationError(caterrors.CodeConfigUnreadable,
			fmt.Sprintf("Cannot read plan file %s", path), "Plan loading").
			WithContext("path", path).
			WithOriginalError(err)
	}

	var plan PlanFile
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, caterrors.NewConfigurationError(caterrors.CodeConfigUnreadable,
			fmt.Sprintf("Plan file %s is not valid YAML", path), "Plan loading").
			WithContext("path", path).
			WithOriginalError(err)
	}
	if len(plan.Tasks) == 0 {
		return nil, caterrors.NewConfigurationError(caterrors.CodeConfigMissingKey,
			fmt.Sprintf("Plan file %s lists no tasks", path), "Plan loading").
			WithContext("path", path).
			WithTroubleshooting("Add entries under 'tasks:' with a kind and params")
	}
	return &plan, nil
}

// buildRequested constructs the tasks named either by a plan file or by a
// kind argument with --param bindings
func buildRequested(registry *task.Registry, args []string, params []string, planPath string) ([]task.Task, error) {
	if planPath != "" {
		if len(args) > 0 || len(params) > 0 {
			return nil, fmt.Errorf("--file cannot be combined with a task kind or --param")
		}
		plan, err := loadPlanFile(planPath)
		if err != nil {
			return nil, err
		}

		tasks := make([]task.Task, 0, len(plan.Tasks))
		for i, entry := range plan.Tasks {
			t, err := registry.Build(entry.Kind, entry.Params)
			if err != nil {
				return nil, fmt.Errorf("plan entry %d: %w", i+1, err)
			}
			tasks = append(tasks, t)
		}
		return tasks, nil
	}

	if len(args) != 1 {
		return nil, fmt.Errorf("expected exactly one task kind (known kinds: %s)", strings.Join(registry.Kinds(), ", "))
	}
	bindings, err := parseParams(params)
	if err != nil {
		return nil, err
	}
	t, err := registry.Build(args[0], bindings)
	if err != nil {
		return nil, err
	}
	return []task.Task{t}, nil
}

// provision satisfies the requested tasks and prints the outcome
func provision(ctx context.Context, cmd *cobra.Command, opts *execOptions, requested ...task.Task) error {
	if ctx == nil {
		ctx = context.Background()
	}

	graph, result, err := dag.Schedule(ctx, opts.executorConfig(), requested...)
	if result == nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !quiet {
		if table := report.TaskTable(result); table.Len() > 0 {
			fmt.Fprint(out, table.String())
		}
	}
	fmt.Fprintln(out, report.Summary(result).Render())

	v := dag.NewDAGVisualization(graph).WithResult(result)
	if opts.reportJSON != "" {
		writeReport(opts.reportJSON, v.ExportToJSON)
	}
	if opts.reportDOT != "" {
		writeReport(opts.reportDOT, v.ExportToDOT)
	}
	return err
}

func writeReport(path string, export func(string) error) {
	if err := export(path); err != nil {
		logger.Op.Warnf("Failed to write report %s: %v", path, err)
		return
	}
	logger.User.Infof("Report written to %s", path)
}

func describeFactory(f task.Factory) string {
	return fmt.Sprintf("%s\n    %s\n    params: %s", f.Kind, f.Description, strings.Join(f.Params, ", "))
}
