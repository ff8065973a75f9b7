// Package logging provides a minimal logging interface and adapters for the
// Archon service.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the transport, router and supervisor use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, library embedding)
//
// The design intentionally keeps the interface minimal so embedders can
// plug any structured logger.
package logging
