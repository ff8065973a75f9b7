package core

import "github.com/google/uuid"

// ServiceIdentity describes who this agent instance is. It is constructed
// once from configuration and passed explicitly to every component that
// needs to stamp outbound messages; there are no package-level name or
// version constants.
type ServiceIdentity struct {
	AgentID      string `json:"agent_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Version      string `json:"version"`
	Organization string `json:"organization"`
}

// NewID generates a unique identifier for envelopes, dialogs, turns and
// workflows.
func NewID() string { return uuid.NewString() }
