package transport

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/archonlabs/archon/core"
)

// Compile-time interface check.
var _ Bus = (*MemoryBus)(nil)

// MemoryBus is an in-process Bus for tests and examples. Subjects follow
// NATS matching rules ("*" one token, ">" the remainder) and request-reply
// uses synthetic inbox subjects, bypassing the network entirely.
type MemoryBus struct {
	mu     sync.Mutex
	subs   []*memorySubscription
	closed bool
	inbox  atomic.Uint64
}

// NewMemoryBus creates an empty in-process bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

// Publish delivers the payload to every matching subscription. Slow
// subscribers with a full buffer drop the message rather than block the
// publisher.
func (b *MemoryBus) Publish(subject string, data []byte) error {
	return b.publish(&Msg{Subject: subject, Data: data})
}

// PublishRequest delivers a payload carrying a reply subject. Tests use it
// to exercise request-reply handling without a Request round-trip.
func (b *MemoryBus) PublishRequest(subject, reply string, data []byte) error {
	return b.publish(&Msg{Subject: subject, Reply: reply, Data: data})
}

func (b *MemoryBus) publish(m *Msg) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return core.Errorf(core.KindTransport, "bus is closed")
	}
	for _, sub := range b.subs {
		if !subjectMatches(sub.pattern, m.Subject) {
			continue
		}
		select {
		case sub.ch <- m:
		default:
		}
	}
	return nil
}

// Subscribe opens an inbound stream for a subject pattern.
func (b *MemoryBus) Subscribe(subject string) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, core.Errorf(core.KindTransport, "bus is closed")
	}
	sub := &memorySubscription{bus: b, pattern: subject, ch: make(chan *Msg, 64)}
	b.subs = append(b.subs, sub)
	return sub, nil
}

// Request publishes with a synthetic inbox reply subject and waits for the
// first reply.
func (b *MemoryBus) Request(ctx context.Context, subject string, data []byte, timeout time.Duration) ([]byte, error) {
	inbox := "_INBOX." + strconv.FormatUint(b.inbox.Add(1), 10)
	sub, err := b.Subscribe(inbox)
	if err != nil {
		return nil, err
	}
	defer func() { _ = sub.Unsubscribe() }()

	if err := b.PublishRequest(subject, inbox, data); err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, core.Wrap(core.KindTransport, "request aborted", ctx.Err())
	case <-timer.C:
		return nil, core.Errorf(core.KindTimeout, "request to %s timed out after %s", subject, timeout)
	case m := <-sub.Messages():
		return m.Data, nil
	}
}

// Close marks the bus closed and detaches all subscriptions.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = nil
	return nil
}

func (b *MemoryBus) remove(sub *memorySubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

type memorySubscription struct {
	bus     *MemoryBus
	pattern string
	ch      chan *Msg
	once    sync.Once
}

func (s *memorySubscription) Messages() <-chan *Msg { return s.ch }

func (s *memorySubscription) Unsubscribe() error {
	s.once.Do(func() { s.bus.remove(s) })
	return nil
}

// subjectMatches implements token-wise NATS subject matching.
func subjectMatches(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")
	for i, p := range pt {
		if p == ">" {
			return i < len(st)
		}
		if i >= len(st) {
			return false
		}
		if p != "*" && p != st[i] {
			return false
		}
	}
	return len(pt) == len(st)
}
