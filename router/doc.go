// Package router subscribes to the command, query and dialog subject trees,
// decodes envelopes, dispatches to the pluggable handler, and re-publishes
// the results as events or direct replies. It never inspects command or
// query semantics; handler invocation is opaque.
//
// Failure handling follows the protocol, not the handler: malformed
// commands are logged and dropped (a requester cannot be attributed),
// malformed queries get an error reply (to avoid requester timeouts),
// queries without a reply address are skipped (a protocol violation that
// cannot be answered), and dialog failures are logged only (the dialog
// protocol has no NACK channel).
package router
