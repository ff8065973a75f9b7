package workflow

import "github.com/archonlabs/archon/core"

// Guided workflow type tags.
const (
	TypeCreateAgent     = "create_agent"
	TypeImplementDomain = "implement_domain"
	TypeAddEvent        = "add_event"
)

// linear builds the edge list chaining the given nodes in order.
func linear(nodes []Node) []Edge {
	edges := make([]Edge, 0, len(nodes)-1)
	for i := 0; i+1 < len(nodes); i++ {
		edges = append(edges, Edge{From: nodes[i].Key, To: nodes[i+1].Key, Label: "next"})
	}
	return edges
}

func step(key, title string) Node {
	return Node{Key: key, Definition: map[string]any{"step": title}}
}

// Template returns a fresh workflow instance for a guided workflow type,
// positioned on its first step. Unknown types return a NotFound error.
func Template(workflowType string) (Workflow, error) {
	switch workflowType {
	case TypeCreateAgent:
		nodes := []Node{
			step("setup", "Setup project structure"),
			step("domains", "Select domains to compose"),
			step("model", "Configure AI model"),
			step("messaging", "Setup bus integration"),
			step("test", "Write tests"),
			step("deploy", "Deploy agent"),
		}
		return Workflow{
			ID:          core.NewID(),
			Name:        "Create Agent",
			Status:      StatusActive,
			Nodes:       nodes,
			Edges:       linear(nodes),
			CurrentNode: "setup",
			Metadata:    map[string]any{"description": "Workflow for creating a new agent"},
		}, nil
	case TypeImplementDomain:
		nodes := []Node{
			step("design", "Design domain model"),
			step("events", "Define domain events"),
			step("commands", "Define commands"),
			step("aggregate", "Implement aggregate"),
			step("handlers", "Implement handlers"),
			step("tests", "Write tests"),
		}
		return Workflow{
			ID:          core.NewID(),
			Name:        "Implement Domain",
			Status:      StatusActive,
			Nodes:       nodes,
			Edges:       linear(nodes),
			CurrentNode: "design",
			Metadata:    map[string]any{"description": "Workflow for implementing a new domain"},
		}, nil
	case TypeAddEvent:
		nodes := []Node{
			step("define", "Define event structure"),
			step("handler", "Create event handler"),
			step("test", "Write event tests"),
			step("integrate", "Integrate with aggregate"),
		}
		return Workflow{
			ID:          core.NewID(),
			Name:        "Add Domain Event",
			Status:      StatusActive,
			Nodes:       nodes,
			Edges:       linear(nodes),
			CurrentNode: "define",
			Metadata:    map[string]any{"description": "Workflow for adding a new domain event"},
		}, nil
	default:
		return Workflow{}, core.Errorf(core.KindNotFound, "unknown workflow type %q", workflowType)
	}
}

// FirstStep returns the guidance payload for the first step of a guided
// workflow type.
func FirstStep(workflowType string) (map[string]any, error) {
	switch workflowType {
	case TypeCreateAgent:
		return map[string]any{
			"step":        "setup",
			"title":       "Setup Project Structure",
			"description": "Create a new agent module with the standard layout",
			"actions": []string{
				"Create the module and dependency manifest",
				"Lay out the package structure",
				"Create configuration templates",
				"Initialize version control",
			},
		}, nil
	case TypeImplementDomain:
		return map[string]any{
			"step":        "design",
			"title":       "Design Domain Model",
			"description": "Define the domain boundaries and core concepts",
			"actions": []string{
				"Identify aggregates and entities",
				"Define value objects",
				"Map relationships",
				"Document ubiquitous language",
			},
		}, nil
	case TypeAddEvent:
		return map[string]any{
			"step":        "define",
			"title":       "Define Event Structure",
			"description": "Create the event type and its properties",
			"actions": []string{
				"Choose event name (past tense)",
				"Define event payload",
				"Add serialization tags",
				"Document event purpose",
			},
		}, nil
	default:
		return nil, core.Errorf(core.KindNotFound, "unknown workflow type %q", workflowType)
	}
}
