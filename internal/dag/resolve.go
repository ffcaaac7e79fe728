package dag

import (
	"fmt"

	caterrors "github.com/maxkimambo/cgaprov/internal/errors"
	"github.com/maxkimambo/cgaprov/internal/task"
)

func newCycleError(labels []string) error {
	return caterrors.NewCyclicDependencyError(labels)
}

// Resolve builds the dependency graph reachable from roots. Tasks with the
// same identity become a single node. Only Dependencies is called, so no
// catalog command runs here; a cycle or an unresolvable dependency is
// reported before anything executes.
func Resolve(roots ...task.Task) (*DAG, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("no tasks requested")
	}

	d := NewDAG()
	visiting := make(map[string]bool)
	resolved := make(map[string]bool)
	var path []*Node

	var visit func(t task.Task) (string, error)
	visit = func(t task.Task) (string, error) {
		node := NewNode(t)
		id := node.ID()

		if visiting[id] {
			var labels []string
			for i, n := range path {
				if n.ID() == id {
					for _, m := range path[i:] {
						labels = append(labels, m.Label())
					}
					break
				}
			}
			return "", newCycleError(append(labels, node.Label()))
		}
		if resolved[id] {
			return id, nil
		}

		if err := d.AddNode(node); err != nil {
			return "", err
		}
		visiting[id] = true
		path = append(path, node)

		deps, err := t.Dependencies()
		if err != nil {
			return "", fmt.Errorf("resolve dependencies of %s: %w", node.Label(), err)
		}

		for _, dep := range deps {
			if dep == nil {
				return "", fmt.Errorf("task %s declared a nil dependency", node.Label())
			}
			depID, err := visit(dep)
			if err != nil {
				return "", err
			}
			if err := d.AddDependency(depID, id); err != nil {
				return "", err
			}
		}

		visiting[id] = false
		resolved[id] = true
		path = path[:len(path)-1]
		return id, nil
	}

	for _, root := range roots {
		if root == nil {
			return nil, fmt.Errorf("requested task cannot be nil")
		}
		id, err := visit(root)
		if err != nil {
			return nil, err
		}
		if err := d.AddRoot(id); err != nil {
			return nil, err
		}
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}
