// Package core holds the shared building blocks of the Archon service:
// the injected ServiceIdentity value and the error taxonomy used across
// transport, routing and handler code. It has no dependencies on the rest
// of the module so every other package can import it freely.
package core
