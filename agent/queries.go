package agent

import (
	"encoding/json"
	"time"

	"github.com/archonlabs/archon/core"
)

type listConceptsResult struct {
	Concepts []string `json:"concepts"`
	Total    int      `json:"total"`
}

// listConcepts returns the full concept catalog.
func (a *Agent) listConcepts() (json.RawMessage, error) {
	concepts := a.graph.Concepts()
	return marshalResult(listConceptsResult{Concepts: concepts, Total: len(concepts)})
}

type findSimilarConceptsRequest struct {
	Concept string `json:"concept"`
}

type findSimilarConceptsResult struct {
	Concept string   `json:"concept"`
	Similar []string `json:"similar"`
}

// findSimilarConcepts looks the concept up in the conceptual space. Unknown
// concepts are not an error; they yield an empty similarity list.
func (a *Agent) findSimilarConcepts(params json.RawMessage) (json.RawMessage, error) {
	var req findSimilarConceptsRequest
	if err := decodePayload(params, &req); err != nil {
		return nil, err
	}
	if req.Concept == "" {
		return nil, core.Errorf(core.KindConfiguration, "missing concept parameter")
	}
	similar := a.space.Similar(req.Concept)
	if similar == nil {
		similar = []string{}
	}
	return marshalResult(findSimilarConceptsResult{Concept: req.Concept, Similar: similar})
}

type getDialogHistoryRequest struct {
	DialogID string `json:"dialog_id"`
}

type dialogHistoryEntry struct {
	TurnType  string    `json:"turn_type"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type getDialogHistoryResult struct {
	DialogID  string               `json:"dialog_id"`
	Status    string               `json:"status"`
	TurnCount int                  `json:"turn_count"`
	History   []dialogHistoryEntry `json:"history"`
}

// getDialogHistory returns the ordered turn history of a dialog.
func (a *Agent) getDialogHistory(params json.RawMessage) (json.RawMessage, error) {
	var req getDialogHistoryRequest
	if err := decodePayload(params, &req); err != nil {
		return nil, err
	}
	if req.DialogID == "" {
		return nil, core.Errorf(core.KindConfiguration, "missing dialog_id parameter")
	}

	d, err := a.dialogs.Get(req.DialogID)
	if err != nil {
		return nil, err
	}

	history := make([]dialogHistoryEntry, 0, len(d.Turns))
	for _, turn := range d.Turns {
		history = append(history, dialogHistoryEntry{
			TurnType:  string(turn.Type),
			Content:   turn.Message.Content.String(),
			Timestamp: turn.Timestamp,
		})
	}

	return marshalResult(getDialogHistoryResult{
		DialogID:  req.DialogID,
		Status:    string(d.Status),
		TurnCount: len(history),
		History:   history,
	})
}

type getWorkflowStatusRequest struct {
	WorkflowID string `json:"workflow_id"`
}

type getWorkflowStatusResult struct {
	WorkflowID  string  `json:"workflow_id"`
	Status      string  `json:"status"`
	CurrentStep string  `json:"current_step"`
	Progress    float64 `json:"progress"`
}

// getWorkflowStatus reports a workflow's current step and completion
// percentage.
func (a *Agent) getWorkflowStatus(params json.RawMessage) (json.RawMessage, error) {
	var req getWorkflowStatusRequest
	if err := decodePayload(params, &req); err != nil {
		return nil, err
	}
	if req.WorkflowID == "" {
		return nil, core.Errorf(core.KindConfiguration, "missing workflow_id parameter")
	}

	w, err := a.workflows.Get(req.WorkflowID)
	if err != nil {
		return nil, err
	}

	return marshalResult(getWorkflowStatusResult{
		WorkflowID:  req.WorkflowID,
		Status:      string(w.Status),
		CurrentStep: w.CurrentNode,
		Progress:    w.Progress(),
	})
}
