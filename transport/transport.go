package transport

import (
	"context"
	"time"
)

// Msg is one inbound bus message. Reply is the return subject for
// request-reply framed messages and empty otherwise.
type Msg struct {
	Subject string
	Reply   string
	Data    []byte
}

// Subscription is an inbound message stream for one subject pattern.
type Subscription interface {
	// Messages returns the channel the subscription delivers on. The
	// channel is not closed on Unsubscribe; consumers exit via their own
	// context.
	Messages() <-chan *Msg

	// Unsubscribe stops delivery.
	Unsubscribe() error
}

// Bus is the transport contract consumed by the router and supervisor.
// Implementations must be safe for concurrent use; the connection handle is
// shared read-only across all processing loops after construction.
type Bus interface {
	// Publish sends a payload on a subject, fire-and-forget.
	Publish(subject string, data []byte) error

	// Subscribe opens an inbound stream for a subject pattern ("*" matches
	// one token, ">" matches the remainder).
	Subscribe(subject string) (Subscription, error)

	// Request publishes and waits for exactly one reply, failing with a
	// Timeout error when the deadline passes.
	Request(ctx context.Context, subject string, data []byte, timeout time.Duration) ([]byte, error)

	// Close releases all subscriptions and the underlying connection.
	Close() error
}
