package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/archonlabs/archon/core"
	"github.com/archonlabs/archon/session"
	"github.com/archonlabs/archon/workflow"
)

type startDialogRequest struct {
	UserID   string          `json:"user_id"`
	Context  json.RawMessage `json:"context,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

type startDialogResult struct {
	DialogID string         `json:"dialog_id"`
	Status   string         `json:"status"`
	Agent    map[string]any `json:"agent"`
}

// startDialog registers a new dialog between this agent and the requesting
// user. Missing user ids fall back to "anonymous".
func (a *Agent) startDialog(payload json.RawMessage) (json.RawMessage, error) {
	var req startDialogRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.UserID == "" {
		req.UserID = "anonymous"
	}

	dialogID := core.NewID()
	a.dialogs.Create(dialogID, session.Dialog{
		ID:           core.NewID(),
		Status:       session.DialogActive,
		Participants: []string{a.identity.AgentID, req.UserID},
		Turns:        []session.Turn{},
		Context:      req.Context,
		Metadata:     req.Metadata,
	})

	a.logger.Info("dialog started", "dialog_id", dialogID, "user_id", req.UserID)

	return marshalResult(startDialogResult{
		DialogID: dialogID,
		Status:   string(session.DialogActive),
		Agent: map[string]any{
			"id":   a.identity.AgentID,
			"name": a.identity.Name,
			"capabilities": map[string]bool{
				"explain_concepts":       true,
				"visualize_architecture": true,
				"guide_workflows":        true,
			},
		},
	})
}

type explainConceptRequest struct {
	Concept string `json:"concept"`
}

type explainConceptResult struct {
	Concept         string   `json:"concept"`
	Explanation     string   `json:"explanation"`
	RelatedConcepts []string `json:"related_concepts"`
	Examples        []string `json:"examples"`
}

// explainConcept generates a model explanation of an architecture concept,
// enriched with the knowledge graph's related concepts and examples.
func (a *Agent) explainConcept(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var req explainConceptRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.Concept == "" {
		return nil, core.Errorf(core.KindConfiguration, "missing concept parameter")
	}

	prompt := fmt.Sprintf(
		"Explain the concept '%s' in detail, including its purpose, "+
			"how it fits into the overall architecture, and provide examples.",
		req.Concept,
	)
	explanation, err := a.provider.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return marshalResult(explainConceptResult{
		Concept:         req.Concept,
		Explanation:     explanation,
		RelatedConcepts: a.graph.Related(req.Concept),
		Examples:        a.graph.Examples(req.Concept),
	})
}

type visualizeArchitectureRequest struct {
	Scope string `json:"scope"`
}

type visualizeArchitectureResult struct {
	Scope         string         `json:"scope"`
	Visualization map[string]any `json:"visualization"`
	Description   string         `json:"description"`
}

// visualizeArchitecture returns the node/edge payload for a visualization
// scope plus a generated description. Scopes without a template get an
// error payload inside the visualization rather than a command failure.
func (a *Agent) visualizeArchitecture(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var req visualizeArchitectureRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.Scope == "" {
		req.Scope = "overview"
	}

	var viz map[string]any
	if nodes, edges, ok := a.graph.Visualization(req.Scope); ok {
		viz = map[string]any{"nodes": nodes, "edges": edges}
	} else {
		viz = map[string]any{
			"error": fmt.Sprintf("Custom visualization for '%s' not yet implemented", req.Scope),
		}
	}

	prompt := fmt.Sprintf(
		"Describe the %s visualization of the architecture, "+
			"explaining what it shows and how to interpret it.",
		req.Scope,
	)
	description, err := a.provider.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return marshalResult(visualizeArchitectureResult{
		Scope:         req.Scope,
		Visualization: viz,
		Description:   description,
	})
}

type guideWorkflowRequest struct {
	WorkflowType string `json:"workflow_type"`
}

type guideWorkflowResult struct {
	WorkflowID   string         `json:"workflow_id"`
	WorkflowType string         `json:"workflow_type"`
	Status       string         `json:"status"`
	FirstStep    map[string]any `json:"first_step"`
}

// guideWorkflow instantiates a guided workflow template and reports its
// first step.
func (a *Agent) guideWorkflow(payload json.RawMessage) (json.RawMessage, error) {
	var req guideWorkflowRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.WorkflowType == "" {
		return nil, core.Errorf(core.KindConfiguration, "missing workflow_type parameter")
	}

	w, err := workflow.Template(req.WorkflowType)
	if err != nil {
		return nil, err
	}
	first, err := workflow.FirstStep(req.WorkflowType)
	if err != nil {
		return nil, err
	}

	workflowID := core.NewID()
	a.workflows.Create(workflowID, w)

	a.logger.Info("workflow started", "workflow_id", workflowID, "workflow_type", req.WorkflowType)

	return marshalResult(guideWorkflowResult{
		WorkflowID:   workflowID,
		WorkflowType: req.WorkflowType,
		Status:       "started",
		FirstStep:    first,
	})
}

type analyzePatternRequest struct {
	PatternType string `json:"pattern_type"`
	Code        string `json:"code"`
}

type analyzePatternResult struct {
	PatternType     string   `json:"pattern_type"`
	Analysis        string   `json:"analysis"`
	Recommendations []string `json:"recommendations"`
}

// analyzePattern runs a model analysis over a code sample and extracts
// bullet-point recommendations from a second pass.
func (a *Agent) analyzePattern(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var req analyzePatternRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if req.PatternType == "" {
		req.PatternType = "general"
	}

	prompt := fmt.Sprintf(
		"Analyze this %s pattern in the context of event-driven architecture:\n\n%s\n\n"+
			"Identify strengths, potential issues, and suggest improvements.",
		req.PatternType, req.Code,
	)
	analysis, err := a.provider.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	recommendations, err := a.patternRecommendations(ctx, req.PatternType, req.Code)
	if err != nil {
		return nil, err
	}

	return marshalResult(analyzePatternResult{
		PatternType:     req.PatternType,
		Analysis:        analysis,
		Recommendations: recommendations,
	})
}

// patternRecommendations asks the model for bullet-point recommendations
// and parses "- " / "* " lines out of the response. A response with no
// bullets falls back to generic defaults.
func (a *Agent) patternRecommendations(ctx context.Context, patternType, code string) ([]string, error) {
	prompt := fmt.Sprintf(
		"Based on this %s pattern:\n\n%s\n\n"+
			"Provide 3-5 specific recommendations for improvement in the context of event-driven architecture.",
		patternType, code,
	)
	response, err := a.provider.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var recs []string
	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "- "):
			recs = append(recs, strings.TrimPrefix(trimmed, "- "))
		case strings.HasPrefix(trimmed, "* "):
			recs = append(recs, strings.TrimPrefix(trimmed, "* "))
		}
	}
	if len(recs) == 0 {
		recs = []string{
			"Consider using event sourcing for state changes",
			"Ensure proper separation between commands and queries",
			"Add appropriate error handling",
		}
	}
	return recs, nil
}
