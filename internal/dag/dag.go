package dag

import (
	"fmt"
	"sync"
)

// DAG is the dependency graph of an invocation. Edges point from a
// dependency to its dependent.
type DAG struct {
	nodes      map[string]*Node
	order      []string
	deps       map[string][]string
	dependents map[string][]string
	roots      []string
	mutex      sync.RWMutex
}

// NewDAG creates a new DAG instance
func NewDAG() *DAG {
	return &DAG{
		nodes:      make(map[string]*Node),
		deps:       make(map[string][]string),
		dependents: make(map[string][]string),
	}
}

// AddNode adds a task node to the DAG
func (d *DAG) AddNode(node *Node) error {
	if node == nil {
		return fmt.Errorf("node cannot be nil")
	}

	id := node.ID()
	if id == "" {
		return fmt.Errorf("node ID cannot be empty")
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if _, exists := d.nodes[id]; exists {
		return fmt.Errorf("node with ID %s already exists", id)
	}

	d.nodes[id] = node
	d.order = append(d.order, id)
	return nil
}

// AddDependency records that toID cannot run before fromID (from -> to)
func (d *DAG) AddDependency(fromID, toID string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if _, exists := d.nodes[fromID]; !exists {
		return fmt.Errorf("source node %s does not exist", fromID)
	}
	if _, exists := d.nodes[toID]; !exists {
		return fmt.Errorf("target node %s does not exist", toID)
	}

	for _, existing := range d.deps[toID] {
		if existing == fromID {
			return nil
		}
	}

	d.deps[toID] = append(d.deps[toID], fromID)
	d.dependents[fromID] = append(d.dependents[fromID], toID)
	return nil
}

// AddRoot marks a node as explicitly requested
func (d *DAG) AddRoot(id string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if _, exists := d.nodes[id]; !exists {
		return fmt.Errorf("node %s not found", id)
	}
	for _, r := range d.roots {
		if r == id {
			return nil
		}
	}
	d.roots = append(d.roots, id)
	return nil
}

// GetNode retrieves a node by its ID
func (d *DAG) GetNode(id string) (*Node, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	node, exists := d.nodes[id]
	if !exists {
		return nil, fmt.Errorf("node %s not found", id)
	}

	return node, nil
}

// GetDependencies returns all nodes that must be satisfied before the given node can run
func (d *DAG) GetDependencies(id string) ([]string, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	if _, exists := d.nodes[id]; !exists {
		return nil, fmt.Errorf("node %s not found", id)
	}
	return append([]string(nil), d.deps[id]...), nil
}

// GetDependents returns all nodes that depend on the given node
func (d *DAG) GetDependents(id string) ([]string, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	if _, exists := d.nodes[id]; !exists {
		return nil, fmt.Errorf("node %s not found", id)
	}
	return append([]string(nil), d.dependents[id]...), nil
}

// GetAllNodes returns all node IDs in insertion order
func (d *DAG) GetAllNodes() []string {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return append([]string(nil), d.order...)
}

// Roots returns the explicitly requested node IDs
func (d *DAG) Roots() []string {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return append([]string(nil), d.roots...)
}

// GetLeafNodes returns all nodes with no dependencies
func (d *DAG) GetLeafNodes() []string {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	var leaves []string
	for _, id := range d.order {
		if len(d.deps[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	return leaves
}

// Validate checks the graph for cycles
func (d *DAG) Validate() error {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	if cycle := d.findCycle(); cycle != nil {
		labels := make([]string, len(cycle))
		for i, id := range cycle {
			labels[i] = d.nodes[id].Label()
		}
		return newCycleError(labels)
	}
	return nil
}

// findCycle returns the node IDs of a cycle, first node repeated at the end,
// or nil if the graph is acyclic
func (d *DAG) findCycle() []string {
	visited := make(map[string]bool)
	onPath := make(map[string]bool)
	var path []string

	var visit func(id string) []string
	visit = func(id string) []string {
		visited[id] = true
		onPath[id] = true
		path = append(path, id)

		for _, depID := range d.deps[id] {
			if onPath[depID] {
				start := 0
				for i, p := range path {
					if p == depID {
						start = i
						break
					}
				}
				cycle := append([]string(nil), path[start:]...)
				return append(cycle, depID)
			}
			if !visited[depID] {
				if cycle := visit(depID); cycle != nil {
					return cycle
				}
			}
		}

		onPath[id] = false
		path = path[:len(path)-1]
		return nil
	}

	for _, id := range d.order {
		if !visited[id] {
			if cycle := visit(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// TopologicalOrder returns node IDs with every dependency before its dependents
func (d *DAG) TopologicalOrder() ([]string, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	d.mutex.RLock()
	defer d.mutex.RUnlock()

	visited := make(map[string]bool)
	order := make([]string, 0, len(d.nodes))

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, depID := range d.deps[id] {
			visit(depID)
		}
		order = append(order, id)
	}

	for _, id := range d.order {
		visit(id)
	}
	return order, nil
}

// Size returns the number of nodes in the DAG
func (d *DAG) Size() int {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return len(d.nodes)
}
