package transport

// Subjects derives every subject the agent uses from the configured
// prefixes. Command and query subject suffixes equal the command/query type
// tag.
type Subjects struct {
	// Prefix roots the agent's command/query/event/health tree,
	// e.g. "archon.agent".
	Prefix string
	// DialogPrefix roots the dialog tree, e.g. "archon.dialog".
	DialogPrefix string
}

// Commands is the wildcard subscription pattern for inbound commands.
func (s Subjects) Commands() string { return s.Prefix + ".commands.>" }

// Queries is the wildcard subscription pattern for inbound queries.
func (s Subjects) Queries() string { return s.Prefix + ".queries.>" }

// Event is the publish subject for a completed command of the given type.
func (s Subjects) Event(commandType string) string {
	return s.Prefix + ".events." + commandType
}

// EventError is the publish subject for failed commands.
func (s Subjects) EventError() string { return s.Prefix + ".events.error" }

// Health is the request-reply subject for health checks.
func (s Subjects) Health() string { return s.Prefix + ".health" }

// Metrics is the publish subject for periodic metrics snapshots.
func (s Subjects) Metrics() string { return s.Prefix + ".metrics" }

// Dialogs is the wildcard subscription pattern for inbound dialog messages.
func (s Subjects) Dialogs() string { return s.DialogPrefix + ".>" }

// DialogResponse is the publish subject for the agent's reply in a dialog.
func (s Subjects) DialogResponse(dialogID string) string {
	return s.DialogPrefix + "." + dialogID + ".response"
}

// All is the pattern covering the whole agent tree, used for JetStream
// stream provisioning.
func (s Subjects) All() string { return s.Prefix + ".>" }
