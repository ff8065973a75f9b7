package agent

import (
	"context"
	"encoding/json"

	"github.com/archonlabs/archon/core"
	"github.com/archonlabs/archon/envelope"
	"github.com/archonlabs/archon/knowledge"
	"github.com/archonlabs/archon/logging"
	"github.com/archonlabs/archon/model"
	"github.com/archonlabs/archon/session"
	"github.com/archonlabs/archon/workflow"
)

// Options configure an Agent.
type Options struct {
	Logger logging.Logger
}

// Agent composes the session store, workflow tracker, knowledge graph and
// model provider into the handler the router dispatches to. All fields are
// read-only after construction except the two stores, which guard their
// own state.
type Agent struct {
	identity  core.ServiceIdentity
	provider  model.Provider
	dialogs   *session.Store
	workflows *workflow.Tracker
	graph     *knowledge.Graph
	space     *knowledge.Space
	logger    logging.Logger

	capabilities []string
}

// New constructs an Agent around its collaborators.
func New(identity core.ServiceIdentity, provider model.Provider, dialogs *session.Store, workflows *workflow.Tracker, optFns ...func(o *Options)) *Agent {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Agent{
		identity:  identity,
		provider:  provider,
		dialogs:   dialogs,
		workflows: workflows,
		graph:     knowledge.NewGraph(),
		space:     knowledge.NewSpace(),
		logger:    opts.Logger,
		capabilities: []string{
			"explain_concepts",
			"visualize_architecture",
			"guide_workflows",
			"analyze_patterns",
			"suggest_improvements",
		},
	}
}

// Identity returns the injected service identity.
func (a *Agent) Identity() core.ServiceIdentity { return a.identity }

// Capabilities returns what this agent can do.
func (a *Agent) Capabilities() []string {
	return append([]string(nil), a.capabilities...)
}

// Dialogs exposes the session store for health reporting.
func (a *Agent) Dialogs() *session.Store { return a.dialogs }

// Provider exposes the model provider for health reporting.
func (a *Agent) Provider() model.Provider { return a.provider }

// HandleDialog processes one inbound dialog message and returns the reply
// text.
func (a *Agent) HandleDialog(ctx context.Context, msg envelope.DialogMessage) (string, error) {
	return a.dialogs.ProcessMessage(ctx, msg)
}

// HandleCommand dispatches a command to its operation. Unknown command
// types are rejected uniformly with a NotFound error; the router turns it
// into a failure event.
func (a *Agent) HandleCommand(ctx context.Context, cmd envelope.Command) (json.RawMessage, error) {
	switch cmd.Type() {
	case envelope.CommandStartDialog:
		return a.startDialog(cmd.Payload)
	case envelope.CommandExplainConcept:
		return a.explainConcept(ctx, cmd.Payload)
	case envelope.CommandVisualizeArchitecture:
		return a.visualizeArchitecture(ctx, cmd.Payload)
	case envelope.CommandGuideWorkflow:
		return a.guideWorkflow(cmd.Payload)
	case envelope.CommandAnalyzePattern:
		return a.analyzePattern(ctx, cmd.Payload)
	default:
		return nil, core.Errorf(core.KindNotFound, "unknown command type %q", cmd.CommandType)
	}
}

// HandleQuery dispatches a query to its operation.
func (a *Agent) HandleQuery(ctx context.Context, q envelope.Query) (json.RawMessage, error) {
	switch q.Type() {
	case envelope.QueryListConcepts:
		return a.listConcepts()
	case envelope.QueryFindSimilarConcepts:
		return a.findSimilarConcepts(q.Parameters)
	case envelope.QueryGetDialogHistory:
		return a.getDialogHistory(q.Parameters)
	case envelope.QueryGetWorkflowStatus:
		return a.getWorkflowStatus(q.Parameters)
	default:
		return nil, core.Errorf(core.KindNotFound, "unknown query type %q", q.QueryType)
	}
}

// marshalResult converts an operation result into the event/reply payload.
func marshalResult(v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, core.Wrap(core.KindSerialization, "encode result", err)
	}
	return data, nil
}

// decodePayload validates an untyped wire payload into a typed request
// struct.
func decodePayload(payload json.RawMessage, into any) error {
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, into); err != nil {
		return core.Wrap(core.KindSerialization, "decode payload", err)
	}
	return nil
}
