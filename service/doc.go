// Package service supervises the agent's processing loops. The Supervisor
// owns the lifecycle state machine (Starting, Running, Stopping, Stopped,
// Error), spawns the router loops and the periodic health and metrics
// publisher, and answers health check requests.
//
// Loops are fault-isolated: a loop that returns an error moves the service
// to the Error state but does not stop its siblings. Stop cancels the
// shared context and waits; there is no graceful drain of in-flight
// messages.
package service
