package dag

import (
	"context"

	"github.com/maxkimambo/cgaprov/internal/task"
)

// Schedule resolves the dependency graph of roots and satisfies every root.
// Resolution errors (a cycle, an unresolvable dependency) are returned with a
// nil graph and nothing runs. Otherwise the graph and the execution result
// are returned together with the first task failure, if any.
func Schedule(ctx context.Context, config *ExecutorConfig, roots ...task.Task) (*DAG, *ExecutionResult, error) {
	graph, err := Resolve(roots...)
	if err != nil {
		return nil, nil, err
	}

	result, err := NewExecutor(graph, config).Execute(ctx)
	return graph, result, err
}
