package dag

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// DAGVisualization renders a resolved graph, optionally overlaid with the
// outcome of an execution
type DAGVisualization struct {
	dag    *DAG
	result *ExecutionResult
}

// NewDAGVisualization creates a new visualization helper
func NewDAGVisualization(dag *DAG) *DAGVisualization {
	return &DAGVisualization{
		dag: dag,
	}
}

// WithResult overlays node statuses from an execution
func (v *DAGVisualization) WithResult(result *ExecutionResult) *DAGVisualization {
	v.result = result
	return v
}

// NodeInfo contains information about a node for visualization
type NodeInfo struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	Label      string     `json:"label"`
	Root       bool       `json:"root"`
	Leaf       bool       `json:"leaf"`
	Dependents int        `json:"dependents"`
	Status     NodeStatus `json:"status"`
	StartTime  *time.Time `json:"startTime,omitempty"`
	EndTime    *time.Time `json:"endTime,omitempty"`
	Duration   string     `json:"duration,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// EdgeInfo points from a dependency to its dependent
type EdgeInfo struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DAGInfo contains the full DAG structure for visualization
type DAGInfo struct {
	RunID string     `json:"runId,omitempty"`
	Nodes []NodeInfo `json:"nodes"`
	Edges []EdgeInfo `json:"edges"`
	Stats DAGStats   `json:"stats"`
}

// DAGStats counts nodes by status
type DAGStats struct {
	TotalNodes     int    `json:"totalNodes"`
	CompletedNodes int    `json:"completedNodes"`
	SkippedNodes   int    `json:"skippedNodes"`
	FailedNodes    int    `json:"failedNodes"`
	CancelledNodes int    `json:"cancelledNodes"`
	RunningNodes   int    `json:"runningNodes"`
	PendingNodes   int    `json:"pendingNodes"`
	TotalDuration  string `json:"totalDuration,omitempty"`
}

// GenerateDAGInfo creates a representation of the DAG for visualization.
// Nodes are listed with every dependency before its dependents.
func (v *DAGVisualization) GenerateDAGInfo() *DAGInfo {
	nodeIDs, err := v.dag.TopologicalOrder()
	if err != nil {
		nodeIDs = v.dag.GetAllNodes()
	}
	roots := make(map[string]bool)
	for _, id := range v.dag.Roots() {
		roots[id] = true
	}
	leaves := make(map[string]bool)
	for _, id := range v.dag.GetLeafNodes() {
		leaves[id] = true
	}

	info := &DAGInfo{
		Nodes: make([]NodeInfo, 0, len(nodeIDs)),
		Edges: []EdgeInfo{},
		Stats: DAGStats{TotalNodes: len(nodeIDs)},
	}
	if v.result != nil {
		info.RunID = v.result.RunID
		info.Stats.TotalDuration = v.result.ExecutionTime.Round(time.Millisecond).String()
	}

	for _, id := range nodeIDs {
		node, err := v.dag.GetNode(id)
		if err != nil {
			continue
		}

		dependents, _ := v.dag.GetDependents(id)
		nodeInfo := NodeInfo{
			ID:         id,
			Kind:       node.Identity.Kind,
			Label:      node.Label(),
			Root:       roots[id],
			Leaf:       leaves[id],
			Dependents: len(dependents),
			Status:     StatusPending,
		}
		if v.result != nil {
			if nr, ok := v.result.NodeResults[id]; ok {
				nodeInfo.Status = nr.Status
				nodeInfo.StartTime = nr.StartTime
				nodeInfo.EndTime = nr.EndTime
				if nr.EndTime != nil {
					nodeInfo.Duration = nr.Duration.Round(time.Millisecond).String()
				}
				if nr.Error != nil {
					nodeInfo.Error = nr.Error.Error()
				}
			}
		}
		info.Nodes = append(info.Nodes, nodeInfo)

		switch nodeInfo.Status {
		case StatusCompleted:
			info.Stats.CompletedNodes++
		case StatusSkipped:
			info.Stats.SkippedNodes++
		case StatusFailed:
			info.Stats.FailedNodes++
		case StatusCancelled:
			info.Stats.CancelledNodes++
		case StatusRunning:
			info.Stats.RunningNodes++
		case StatusPending:
			info.Stats.PendingNodes++
		}

		deps, _ := v.dag.GetDependencies(id)
		for _, depID := range deps {
			info.Edges = append(info.Edges, EdgeInfo{From: depID, To: id})
		}
	}

	return info
}

// ExportToJSON writes the visualization info to a JSON file
func (v *DAGVisualization) ExportToJSON(filename string) error {
	data, err := json.MarshalIndent(v.GenerateDAGInfo(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

func statusColor(status NodeStatus) string {
	switch status {
	case StatusRunning:
		return "lightblue"
	case StatusCompleted:
		return "lightgreen"
	case StatusSkipped:
		return "palegreen"
	case StatusFailed:
		return "salmon"
	case StatusCancelled:
		return "orange"
	default:
		return "lightgrey"
	}
}

func dotEscape(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// GenerateDOTGraph renders the graph in Graphviz DOT format. Edges point
// from a dependency to its dependent, so the graph reads in execution order.
func (v *DAGVisualization) GenerateDOTGraph() string {
	info := v.GenerateDAGInfo()

	var sb strings.Builder
	sb.WriteString("digraph Provisioning {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box, style=filled];\n\n")

	if v.result != nil {
		sb.WriteString("  subgraph cluster_legend {\n")
		sb.WriteString("    label=\"Status Legend\";\n")
		sb.WriteString("    style=filled;\n")
		sb.WriteString("    fillcolor=lightgrey;\n")
		for _, s := range []NodeStatus{StatusPending, StatusCompleted, StatusSkipped, StatusFailed, StatusCancelled} {
			sb.WriteString(fmt.Sprintf("    \"legend_%s\" [label=\"%s\", fillcolor=\"%s\"];\n", s, s, statusColor(s)))
		}
		sb.WriteString("  }\n\n")
	}

	for _, node := range info.Nodes {
		label := dotEscape(node.Label)
		if node.Error != "" {
			msg := node.Error
			if len(msg) > 50 {
				msg = msg[:47] + "..."
			}
			label += "\\nError: " + dotEscape(msg)
		}
		shape := ""
		if node.Root {
			shape = ", penwidth=2"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\" [label=\"%s\", fillcolor=\"%s\"%s];\n",
			node.ID, label, statusColor(node.Status), shape))
	}

	if len(info.Edges) > 0 {
		sb.WriteString("\n")
	}
	for _, edge := range info.Edges {
		sb.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\";\n", edge.From, edge.To))
	}

	sb.WriteString("}\n")
	return sb.String()
}

// ExportToDOT writes the DOT rendering to a file
func (v *DAGVisualization) ExportToDOT(filename string) error {
	return os.WriteFile(filename, []byte(v.GenerateDOTGraph()), 0644)
}

// GenerateTextTree renders each requested task with its dependencies
// indented beneath it. A task shared by several dependents is expanded once
// and marked as seen afterwards.
func (v *DAGVisualization) GenerateTextTree() string {
	var sb strings.Builder
	seen := make(map[string]bool)

	var walk func(id, prefix string, last, top bool)
	walk = func(id, prefix string, last, top bool) {
		node, err := v.dag.GetNode(id)
		if err != nil {
			return
		}

		branch, childPrefix := "", ""
		if !top {
			if last {
				branch, childPrefix = "└── ", prefix+"    "
			} else {
				branch, childPrefix = "├── ", prefix+"│   "
			}
		}

		line := prefix + branch + node.Label()
		if v.result != nil {
			if nr, ok := v.result.NodeResults[id]; ok {
				line += " [" + nr.Status.String() + "]"
			}
		}
		if seen[id] {
			sb.WriteString(line + " (see above)\n")
			return
		}
		seen[id] = true
		sb.WriteString(line + "\n")

		deps, _ := v.dag.GetDependencies(id)
		for i, depID := range deps {
			walk(depID, childPrefix, i == len(deps)-1, false)
		}
	}

	for _, root := range v.dag.Roots() {
		walk(root, "", true, true)
	}
	return sb.String()
}
