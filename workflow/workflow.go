// Package workflow tracks guided workflows: fixed linear node/edge graphs
// with a current-position pointer. The tracker only stores and measures
// position along whatever graph it is given; templates are baked in by the
// invoking handler.
package workflow

// Status is the lifecycle state of a workflow.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Node is one step in a workflow. Nodes are kept in order; Key identifies
// the step and Definition carries its display payload.
type Node struct {
	Key        string         `json:"key"`
	Definition map[string]any `json:"definition"`
}

// Edge connects two steps.
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// Workflow is a named linear sequence of guided steps.
type Workflow struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Nodes       []Node         `json:"nodes"`
	Edges       []Edge         `json:"edges"`
	CurrentNode string         `json:"current_node,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Progress returns the percentage of the way through the workflow: the
// 1-based position of the current node over the node count. An empty node
// set or an absent/unknown current node is 0, never an error.
func (w Workflow) Progress() float64 {
	if len(w.Nodes) == 0 || w.CurrentNode == "" {
		return 0
	}
	for i, n := range w.Nodes {
		if n.Key == w.CurrentNode {
			return float64(i+1) / float64(len(w.Nodes)) * 100
		}
	}
	return 0
}

// nextNode returns the target of the single outgoing edge from the current
// node, or "" when the current node is terminal.
func (w Workflow) nextNode() string {
	for _, e := range w.Edges {
		if e.From == w.CurrentNode {
			return e.To
		}
	}
	return ""
}

// clone copies the workflow for safe external reads.
func (w *Workflow) clone() Workflow {
	out := *w
	out.Nodes = append([]Node(nil), w.Nodes...)
	out.Edges = append([]Edge(nil), w.Edges...)
	return out
}
