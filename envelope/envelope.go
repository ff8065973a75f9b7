package envelope

import (
	"encoding/json"
	"time"

	"github.com/archonlabs/archon/core"
)

// CommandType enumerates the commands the agent accepts. CommandUnknown is
// the decode result for any unrecognized tag.
type CommandType string

const (
	CommandUnknown               CommandType = ""
	CommandStartDialog           CommandType = "start_dialog"
	CommandExplainConcept        CommandType = "explain_concept"
	CommandVisualizeArchitecture CommandType = "visualize_architecture"
	CommandGuideWorkflow         CommandType = "guide_workflow"
	CommandAnalyzePattern        CommandType = "analyze_pattern"
)

// ParseCommandType maps a raw tag to its closed variant, or CommandUnknown.
func ParseCommandType(tag string) CommandType {
	switch CommandType(tag) {
	case CommandStartDialog, CommandExplainConcept, CommandVisualizeArchitecture,
		CommandGuideWorkflow, CommandAnalyzePattern:
		return CommandType(tag)
	default:
		return CommandUnknown
	}
}

// QueryType enumerates the queries the agent answers. QueryUnknown is the
// decode result for any unrecognized tag.
type QueryType string

const (
	QueryUnknown             QueryType = ""
	QueryListConcepts        QueryType = "list_concepts"
	QueryFindSimilarConcepts QueryType = "find_similar_concepts"
	QueryGetDialogHistory    QueryType = "get_dialog_history"
	QueryGetWorkflowStatus   QueryType = "get_workflow_status"
)

// ParseQueryType maps a raw tag to its closed variant, or QueryUnknown.
func ParseQueryType(tag string) QueryType {
	switch QueryType(tag) {
	case QueryListConcepts, QueryFindSimilarConcepts, QueryGetDialogHistory,
		QueryGetWorkflowStatus:
		return QueryType(tag)
	default:
		return QueryUnknown
	}
}

// Command is a fire-and-forget request whose outcome is reported
// asynchronously as an Event correlated by the command id.
type Command struct {
	ID          string          `json:"id"`
	CommandType string          `json:"command_type"`
	Payload     json.RawMessage `json:"payload"`
	Timestamp   time.Time       `json:"timestamp"`
	Origin      string          `json:"origin"`
}

// Type returns the closed variant for the command's raw tag.
func (c Command) Type() CommandType { return ParseCommandType(c.CommandType) }

// CompletedEventType is the event type published after the command handler
// succeeds.
func (c Command) CompletedEventType() string { return c.CommandType + "_completed" }

// FailedEventType is the event type published after the command handler
// fails. It is derived from the raw tag so unknown commands still produce
// an attributable failure event.
func (c Command) FailedEventType() string { return c.CommandType + "_failed" }

// Query is always answered synchronously via request-reply on the subject
// it arrived on.
type Query struct {
	ID         string          `json:"id"`
	QueryType  string          `json:"query_type"`
	Parameters json.RawMessage `json:"parameters"`
	Timestamp  time.Time       `json:"timestamp"`
	Origin     string          `json:"origin"`
}

// Type returns the closed variant for the query's raw tag.
func (q Query) Type() QueryType { return ParseQueryType(q.QueryType) }

// Event reports a command outcome. Events are published, never replied to.
type Event struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
	AgentID   string          `json:"agent_id"`
}

// NewEvent stamps a fresh event with an id and UTC timestamp.
func NewEvent(eventType string, payload json.RawMessage, agentID string) Event {
	return Event{
		ID:        core.NewID(),
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
		AgentID:   agentID,
	}
}

// DialogMessage flows in both directions: inbound from a user on the dialog
// subject tree, outbound from the agent on dialog.<dialogId>.response.
type DialogMessage struct {
	DialogID  string          `json:"dialog_id"`
	Content   string          `json:"content"`
	Sender    string          `json:"sender"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// QueryReply is the uniform reply shape for queries: exactly one reply per
// correctly framed query, success or structured error.
type QueryReply struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// HealthResponse answers health check requests.
type HealthResponse struct {
	Status        string          `json:"status"`
	Version       string          `json:"version"`
	UptimeSeconds uint64          `json:"uptime_seconds"`
	ModelStatus   string          `json:"model_status"`
	ActiveDialogs int             `json:"active_dialogs"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
}

// Health status values.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Encode marshals any envelope to its wire form.
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, core.Wrap(core.KindSerialization, "encode envelope", err)
	}
	return data, nil
}

// DecodeCommand parses a command envelope, surfacing a Serialization error
// for malformed input.
func DecodeCommand(data []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(data, &c); err != nil {
		return Command{}, core.Wrap(core.KindSerialization, "decode command", err)
	}
	return c, nil
}

// DecodeQuery parses a query envelope.
func DecodeQuery(data []byte) (Query, error) {
	var q Query
	if err := json.Unmarshal(data, &q); err != nil {
		return Query{}, core.Wrap(core.KindSerialization, "decode query", err)
	}
	return q, nil
}

// DecodeDialogMessage parses a dialog message envelope.
func DecodeDialogMessage(data []byte) (DialogMessage, error) {
	var m DialogMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return DialogMessage{}, core.Wrap(core.KindSerialization, "decode dialog message", err)
	}
	return m, nil
}
