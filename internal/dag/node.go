package dag

import "github.com/maxkimambo/cgaprov/internal/task"

// Node is one distinct task identity in the graph
type Node struct {
	Task     task.Task
	Identity task.Identity
}

// NewNode wraps t in a node keyed by its identity
func NewNode(t task.Task) *Node {
	return &Node{Task: t, Identity: task.IdentityOf(t)}
}

// ID returns the unique identifier for this node
func (n *Node) ID() string {
	return n.Identity.ID
}

// Label returns the human-readable identity
func (n *Node) Label() string {
	return n.Identity.String()
}

// NodeStatus represents the execution status of a node
type NodeStatus int

const (
	// StatusPending indicates the node has not been visited
	StatusPending NodeStatus = iota
	// StatusRunning indicates the node's task is running
	StatusRunning
	// StatusCompleted indicates the node's task ran successfully
	StatusCompleted
	// StatusSkipped indicates the catalog already reflected the task
	StatusSkipped
	// StatusFailed indicates the task or its completion check failed
	StatusFailed
	// StatusCancelled indicates the task was not run because a dependency
	// failed or the invocation was cancelled
	StatusCancelled
)

// String returns a string representation of the NodeStatus
func (s NodeStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in JSON output
func (s NodeStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Satisfied reports whether the node's effect is present in the catalog
func (s NodeStatus) Satisfied() bool {
	return s == StatusCompleted || s == StatusSkipped
}
