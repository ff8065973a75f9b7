package agent

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archonlabs/archon/core"
	"github.com/archonlabs/archon/envelope"
	"github.com/archonlabs/archon/model"
	"github.com/archonlabs/archon/session"
	"github.com/archonlabs/archon/workflow"
)

func newTestAgent(provider *model.MockProvider) *Agent {
	identity := core.ServiceIdentity{AgentID: "agent-1", Name: "archon", Version: "0.1.0"}
	dialogs := session.NewStore(provider, identity)
	return New(identity, provider, dialogs, workflow.NewTracker())
}

func command(commandType string, payload any) envelope.Command {
	raw, _ := json.Marshal(payload)
	return envelope.Command{
		ID:          "c-1",
		CommandType: commandType,
		Payload:     raw,
		Timestamp:   time.Now().UTC(),
		Origin:      "test",
	}
}

func query(queryType string, params any) envelope.Query {
	raw, _ := json.Marshal(params)
	return envelope.Query{
		ID:         "q-1",
		QueryType:  queryType,
		Parameters: raw,
		Timestamp:  time.Now().UTC(),
		Origin:     "test",
	}
}

func TestUnknownCommandRejected(t *testing.T) {
	a := newTestAgent(model.NewMockProvider("mock-small"))

	_, err := a.HandleCommand(context.Background(), command("foo", map[string]string{}))
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindNotFound))
	assert.Contains(t, err.Error(), "foo")

	// Rejected commands leave no state behind.
	assert.Zero(t, a.dialogs.Count())
	assert.Zero(t, a.workflows.Count())
}

func TestUnknownQueryRejected(t *testing.T) {
	a := newTestAgent(model.NewMockProvider("mock-small"))

	_, err := a.HandleQuery(context.Background(), query("bar", nil))
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindNotFound))
}

func TestStartDialog(t *testing.T) {
	a := newTestAgent(model.NewMockProvider("mock-small"))

	result, err := a.HandleCommand(context.Background(),
		command("start_dialog", map[string]string{"user_id": "u1"}))
	require.NoError(t, err)

	var out struct {
		DialogID string `json:"dialog_id"`
		Status   string `json:"status"`
		Agent    struct {
			ID           string          `json:"id"`
			Name         string          `json:"name"`
			Capabilities map[string]bool `json:"capabilities"`
		} `json:"agent"`
	}
	require.NoError(t, json.Unmarshal(result, &out))
	assert.NotEmpty(t, out.DialogID)
	assert.Equal(t, "active", out.Status)
	assert.Equal(t, "agent-1", out.Agent.ID)
	assert.True(t, out.Agent.Capabilities["explain_concepts"])

	d, err := a.dialogs.Get(out.DialogID)
	require.NoError(t, err)
	assert.Equal(t, session.DialogActive, d.Status)
	assert.Equal(t, []string{"agent-1", "u1"}, d.Participants)
	assert.Empty(t, d.Turns)
}

func TestStartDialogAnonymousDefault(t *testing.T) {
	a := newTestAgent(model.NewMockProvider("mock-small"))

	result, err := a.HandleCommand(context.Background(), command("start_dialog", map[string]string{}))
	require.NoError(t, err)

	var out struct {
		DialogID string `json:"dialog_id"`
	}
	require.NoError(t, json.Unmarshal(result, &out))

	d, err := a.dialogs.Get(out.DialogID)
	require.NoError(t, err)
	assert.Equal(t, []string{"agent-1", "anonymous"}, d.Participants)
}

func TestExplainConcept(t *testing.T) {
	provider := model.NewMockProvider("mock-small")
	a := newTestAgent(provider)

	result, err := a.HandleCommand(context.Background(),
		command("explain_concept", map[string]string{"concept": "Event Sourcing"}))
	require.NoError(t, err)

	var out struct {
		Concept         string   `json:"concept"`
		Explanation     string   `json:"explanation"`
		RelatedConcepts []string `json:"related_concepts"`
		Examples        []string `json:"examples"`
	}
	require.NoError(t, json.Unmarshal(result, &out))
	assert.Equal(t, "Event Sourcing", out.Concept)
	assert.NotEmpty(t, out.Explanation)
	assert.Contains(t, out.RelatedConcepts, "CQRS")
	assert.NotEmpty(t, out.Examples)
}

func TestExplainConceptRequiresConcept(t *testing.T) {
	a := newTestAgent(model.NewMockProvider("mock-small"))

	_, err := a.HandleCommand(context.Background(), command("explain_concept", map[string]string{}))
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindConfiguration))
}

func TestVisualizeArchitectureDefaultScope(t *testing.T) {
	a := newTestAgent(model.NewMockProvider("mock-small"))

	result, err := a.HandleCommand(context.Background(),
		command("visualize_architecture", map[string]string{}))
	require.NoError(t, err)

	var out struct {
		Scope         string         `json:"scope"`
		Visualization map[string]any `json:"visualization"`
		Description   string         `json:"description"`
	}
	require.NoError(t, json.Unmarshal(result, &out))
	assert.Equal(t, "overview", out.Scope)
	assert.Contains(t, out.Visualization, "nodes")
	assert.Contains(t, out.Visualization, "edges")
	assert.NotEmpty(t, out.Description)
}

func TestVisualizeArchitectureUnknownScope(t *testing.T) {
	a := newTestAgent(model.NewMockProvider("mock-small"))

	result, err := a.HandleCommand(context.Background(),
		command("visualize_architecture", map[string]string{"scope": "galaxy"}))
	require.NoError(t, err)

	var out struct {
		Visualization map[string]any `json:"visualization"`
	}
	require.NoError(t, json.Unmarshal(result, &out))
	assert.Contains(t, out.Visualization, "error")
}

func TestGuideWorkflow(t *testing.T) {
	a := newTestAgent(model.NewMockProvider("mock-small"))

	result, err := a.HandleCommand(context.Background(),
		command("guide_workflow", map[string]string{"workflow_type": "create_agent"}))
	require.NoError(t, err)

	var out struct {
		WorkflowID   string         `json:"workflow_id"`
		WorkflowType string         `json:"workflow_type"`
		Status       string         `json:"status"`
		FirstStep    map[string]any `json:"first_step"`
	}
	require.NoError(t, json.Unmarshal(result, &out))
	assert.NotEmpty(t, out.WorkflowID)
	assert.Equal(t, "create_agent", out.WorkflowType)
	assert.Equal(t, "started", out.Status)
	assert.Equal(t, "setup", out.FirstStep["step"])

	w, err := a.workflows.Get(out.WorkflowID)
	require.NoError(t, err)
	assert.Equal(t, "setup", w.CurrentNode)
}

func TestGuideWorkflowValidation(t *testing.T) {
	a := newTestAgent(model.NewMockProvider("mock-small"))

	_, err := a.HandleCommand(context.Background(), command("guide_workflow", map[string]string{}))
	assert.True(t, core.IsKind(err, core.KindConfiguration))

	_, err = a.HandleCommand(context.Background(),
		command("guide_workflow", map[string]string{"workflow_type": "rewrite_everything"}))
	assert.True(t, core.IsKind(err, core.KindNotFound))
}

func TestAnalyzePatternParsesRecommendations(t *testing.T) {
	provider := model.NewMockProvider("mock-small")
	provider.AddResponse(
		"Based on this general pattern:\n\nfunc main() {}\n\n"+
			"Provide 3-5 specific recommendations for improvement in the context of event-driven architecture.",
		"Some preamble\n- Use events\n* Split reads and writes\nnot a bullet\n",
	)
	a := newTestAgent(provider)

	result, err := a.HandleCommand(context.Background(),
		command("analyze_pattern", map[string]string{"code": "func main() {}"}))
	require.NoError(t, err)

	var out struct {
		PatternType     string   `json:"pattern_type"`
		Analysis        string   `json:"analysis"`
		Recommendations []string `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(result, &out))
	assert.Equal(t, "general", out.PatternType)
	assert.NotEmpty(t, out.Analysis)
	assert.Equal(t, []string{"Use events", "Split reads and writes"}, out.Recommendations)
}

func TestAnalyzePatternDefaultRecommendations(t *testing.T) {
	a := newTestAgent(model.NewMockProvider("mock-small"))

	result, err := a.HandleCommand(context.Background(),
		command("analyze_pattern", map[string]string{"pattern_type": "aggregate"}))
	require.NoError(t, err)

	var out struct {
		Recommendations []string `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(result, &out))
	// The mock reply has no bullet lines; the canned defaults apply.
	assert.Len(t, out.Recommendations, 3)
}

func TestListConcepts(t *testing.T) {
	a := newTestAgent(model.NewMockProvider("mock-small"))

	result, err := a.HandleQuery(context.Background(), query("list_concepts", nil))
	require.NoError(t, err)

	var out struct {
		Concepts []string `json:"concepts"`
		Total    int      `json:"total"`
	}
	require.NoError(t, json.Unmarshal(result, &out))
	assert.Equal(t, 15, out.Total)
	assert.Contains(t, out.Concepts, "Event Sourcing")
	assert.Contains(t, out.Concepts, "CQRS")
}

func TestFindSimilarConcepts(t *testing.T) {
	a := newTestAgent(model.NewMockProvider("mock-small"))

	result, err := a.HandleQuery(context.Background(),
		query("find_similar_concepts", map[string]string{"concept": "Event Sourcing"}))
	require.NoError(t, err)

	var out struct {
		Concept string   `json:"concept"`
		Similar []string `json:"similar"`
	}
	require.NoError(t, json.Unmarshal(result, &out))
	assert.Equal(t, []string{"Event Store", "Event Stream", "CQRS"}, out.Similar)

	// Unknown concepts answer with an empty list, not an error.
	result, err = a.HandleQuery(context.Background(),
		query("find_similar_concepts", map[string]string{"concept": "Nothing"}))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(result, &out))
	assert.Empty(t, out.Similar)

	_, err = a.HandleQuery(context.Background(), query("find_similar_concepts", map[string]string{}))
	assert.True(t, core.IsKind(err, core.KindConfiguration))
}

func TestGetDialogHistory(t *testing.T) {
	provider := model.NewMockProvider("mock-small")
	a := newTestAgent(provider)

	_, err := a.HandleDialog(context.Background(), envelope.DialogMessage{
		DialogID: "d-1",
		Content:  "hello",
		Sender:   "u1",
	})
	require.NoError(t, err)

	result, err := a.HandleQuery(context.Background(),
		query("get_dialog_history", map[string]string{"dialog_id": "d-1"}))
	require.NoError(t, err)

	var out struct {
		DialogID  string `json:"dialog_id"`
		Status    string `json:"status"`
		TurnCount int    `json:"turn_count"`
		History   []struct {
			TurnType string `json:"turn_type"`
			Content  string `json:"content"`
		} `json:"history"`
	}
	require.NoError(t, json.Unmarshal(result, &out))
	assert.Equal(t, "d-1", out.DialogID)
	assert.Equal(t, "active", out.Status)
	assert.Equal(t, 2, out.TurnCount)
	assert.Equal(t, "user", out.History[0].TurnType)
	assert.Equal(t, "hello", out.History[0].Content)
	assert.Equal(t, "assistant", out.History[1].TurnType)

	_, err = a.HandleQuery(context.Background(),
		query("get_dialog_history", map[string]string{"dialog_id": "missing"}))
	assert.True(t, core.IsKind(err, core.KindNotFound))

	_, err = a.HandleQuery(context.Background(), query("get_dialog_history", map[string]string{}))
	assert.True(t, core.IsKind(err, core.KindConfiguration))
}

func TestGetWorkflowStatus(t *testing.T) {
	a := newTestAgent(model.NewMockProvider("mock-small"))

	result, err := a.HandleCommand(context.Background(),
		command("guide_workflow", map[string]string{"workflow_type": "add_event"}))
	require.NoError(t, err)
	var started struct {
		WorkflowID string `json:"workflow_id"`
	}
	require.NoError(t, json.Unmarshal(result, &started))

	result, err = a.HandleQuery(context.Background(),
		query("get_workflow_status", map[string]string{"workflow_id": started.WorkflowID}))
	require.NoError(t, err)

	var out struct {
		WorkflowID  string  `json:"workflow_id"`
		Status      string  `json:"status"`
		CurrentStep string  `json:"current_step"`
		Progress    float64 `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(result, &out))
	assert.Equal(t, started.WorkflowID, out.WorkflowID)
	assert.Equal(t, "active", out.Status)
	assert.Equal(t, "define", out.CurrentStep)
	assert.InDelta(t, 25, out.Progress, 0.01)

	_, err = a.HandleQuery(context.Background(),
		query("get_workflow_status", map[string]string{"workflow_id": "missing"}))
	assert.True(t, core.IsKind(err, core.KindNotFound))

	_, err = a.HandleQuery(context.Background(), query("get_workflow_status", map[string]string{}))
	assert.True(t, core.IsKind(err, core.KindConfiguration))
}

func TestCapabilitiesCopied(t *testing.T) {
	a := newTestAgent(model.NewMockProvider("mock-small"))

	caps := a.Capabilities()
	require.NotEmpty(t, caps)
	caps[0] = "mutated"
	assert.NotEqual(t, "mutated", a.Capabilities()[0])
}
