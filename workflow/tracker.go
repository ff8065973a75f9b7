package workflow

import (
	"sync"

	"github.com/archonlabs/archon/core"
)

// Tracker maps workflow ids to workflows. A single RWMutex serializes
// writers while allowing unlimited concurrent readers; the lock never
// leaks outside the Tracker. Workflows are never deleted.
type Tracker struct {
	mu        sync.RWMutex
	workflows map[string]*Workflow
}

// NewTracker constructs an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{workflows: make(map[string]*Workflow)}
}

// Create stores a workflow under the given id.
func (t *Tracker) Create(workflowID string, w Workflow) {
	t.mu.Lock()
	defer t.mu.Unlock()
	stored := w.clone()
	if stored.Status == "" {
		stored.Status = StatusActive
	}
	t.workflows[workflowID] = &stored
}

// Get returns a snapshot of a workflow or a NotFound error.
func (t *Tracker) Get(workflowID string) (Workflow, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	w, ok := t.workflows[workflowID]
	if !ok {
		return Workflow{}, core.Errorf(core.KindNotFound, "workflow %s not found", workflowID)
	}
	return w.clone(), nil
}

// Progress returns the workflow's completion percentage.
func (t *Tracker) Progress(workflowID string) (float64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	w, ok := t.workflows[workflowID]
	if !ok {
		return 0, core.Errorf(core.KindNotFound, "workflow %s not found", workflowID)
	}
	return w.Progress(), nil
}

// Advance moves the current-node pointer along its single outgoing edge
// and returns the new current node. Advancing past the last node marks the
// workflow completed and leaves the pointer on the final step.
func (t *Tracker) Advance(workflowID string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, ok := t.workflows[workflowID]
	if !ok {
		return "", core.Errorf(core.KindNotFound, "workflow %s not found", workflowID)
	}
	next := w.nextNode()
	if next == "" {
		w.Status = StatusCompleted
		return w.CurrentNode, nil
	}
	w.CurrentNode = next
	return next, nil
}

// Count returns how many workflows are tracked.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.workflows)
}
