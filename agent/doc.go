// Package agent implements the Archon handler: it dispatches decoded
// commands and queries to their operations, orchestrates dialogs against
// the session store and the text-generation provider, and owns the
// capability registry reported over health checks.
//
// Handlers validate untyped wire payloads into typed request structs on
// entry; missing required fields surface as configuration errors before
// any state is touched.
package agent
