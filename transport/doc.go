// Package transport owns the bus connection and the raw publish, subscribe
// and request-reply primitives the rest of the service is built on.
//
// Two Bus implementations are provided: Conn, backed by a NATS connection
// with an exponential-backoff initial-connect loop and optional JetStream
// stream provisioning, and MemoryBus, an in-process bus with NATS-style
// subject matching for tests and examples.
package transport
