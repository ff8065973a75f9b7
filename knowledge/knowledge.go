// Package knowledge holds the agent's static domain knowledge: a concept
// graph and a concept space for similarity lookups. Both are read-only
// after construction and guarded by a reader/writer lock; the agent only
// ever takes read access.
package knowledge

import "sync"

// VizNode is one node in a visualization payload.
type VizNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// VizEdge is one edge in a visualization payload.
type VizEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// Graph is the knowledge graph of architecture concepts.
type Graph struct {
	mu       sync.RWMutex
	name     string
	concepts []string
	related  map[string][]string
	examples map[string][]string
}

// NewGraph seeds the graph with the built-in concept catalog.
func NewGraph() *Graph {
	return &Graph{
		name: "Architecture Knowledge Graph",
		concepts: []string{
			"Event Sourcing",
			"CQRS",
			"Domain-Driven Design",
			"Entity Component System",
			"Conceptual Spaces",
			"Graph Workflows",
			"NATS Messaging",
			"Content Addressing",
			"Aggregate",
			"Value Object",
			"Domain Event",
			"Command Handler",
			"Query Handler",
			"Projection",
			"Bounded Context",
		},
		related: map[string][]string{
			"Event Sourcing":       {"CQRS", "Event Store", "Domain Events"},
			"Domain-Driven Design": {"Bounded Context", "Aggregate", "Ubiquitous Language"},
			"CQRS":                 {"Command Handler", "Query Handler", "Projection"},
		},
		examples: map[string][]string{
			"Event Sourcing": {
				"GraphEvent.NodeAdded in the graph domain",
				"DialogEvent.TurnAppended in the dialog domain",
			},
			"CQRS": {
				"Command subjects vs. query subjects on the agent bus",
			},
		},
	}
}

// Name returns the graph's display name.
func (g *Graph) Name() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.name
}

// Concepts returns a copy of the full concept catalog.
func (g *Graph) Concepts() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, len(g.concepts))
	copy(out, g.concepts)
	return out
}

// Related returns concepts adjacent to the given one; empty for unknown
// concepts.
func (g *Graph) Related(concept string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.related[concept]...)
}

// Examples returns illustrative code references for a concept.
func (g *Graph) Examples(concept string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.examples[concept]...)
}

// Visualization returns the static node/edge payload for a scope. The
// second result is false for scopes with no template.
func (g *Graph) Visualization(scope string) ([]VizNode, []VizEdge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	switch scope {
	case "overview":
		return []VizNode{
				{ID: "domains", Label: "Domains", Type: "category"},
				{ID: "infrastructure", Label: "Infrastructure", Type: "category"},
				{ID: "bridge", Label: "Bridge Layer", Type: "category"},
			}, []VizEdge{
				{Source: "domains", Target: "infrastructure", Label: "uses"},
				{Source: "bridge", Target: "domains", Label: "connects"},
			}, true
	case "domains":
		return []VizNode{
				{ID: "agent", Label: "Agent Domain", Type: "domain"},
				{ID: "dialog", Label: "Dialog Domain", Type: "domain"},
				{ID: "graph", Label: "Graph Domain", Type: "domain"},
				{ID: "workflow", Label: "Workflow Domain", Type: "domain"},
			}, []VizEdge{
				{Source: "agent", Target: "dialog", Label: "manages"},
				{Source: "workflow", Target: "graph", Label: "visualizes"},
			}, true
	case "events":
		return []VizNode{
				{ID: "command", Label: "Command", Type: "input"},
				{ID: "handler", Label: "Command Handler", Type: "processor"},
				{ID: "aggregate", Label: "Aggregate", Type: "domain"},
				{ID: "event", Label: "Domain Event", Type: "output"},
			}, []VizEdge{
				{Source: "command", Target: "handler", Label: "processes"},
				{Source: "handler", Target: "aggregate", Label: "updates"},
				{Source: "aggregate", Target: "event", Label: "emits"},
			}, true
	default:
		return nil, nil, false
	}
}

// Space is the conceptual space used for similarity lookups.
type Space struct {
	mu      sync.RWMutex
	similar map[string][]string
}

// NewSpace seeds the space with the built-in similarity table.
func NewSpace() *Space {
	return &Space{
		similar: map[string][]string{
			"Event Sourcing":       {"Event Store", "Event Stream", "CQRS"},
			"Domain-Driven Design": {"Bounded Context", "Aggregate", "Value Object"},
			"Graph Workflows":      {"Workflow Engine", "Process Automation", "Visual Programming"},
		},
	}
}

// Similar returns concepts near the given one; empty for unknown concepts.
func (s *Space) Similar(concept string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.similar[concept]...)
}
