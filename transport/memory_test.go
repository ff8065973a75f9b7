package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archonlabs/archon/core"
)

func TestSubjectMatches(t *testing.T) {
	tests := []struct {
		pattern string
		subject string
		want    bool
	}{
		{"a.b.c", "a.b.c", true},
		{"a.b.c", "a.b.d", false},
		{"a.b.c", "a.b", false},
		{"a.*.c", "a.b.c", true},
		{"a.*.c", "a.b.d", false},
		{"a.>", "a.b", true},
		{"a.>", "a.b.c.d", true},
		{"a.>", "a", false},
		{"archon.dialog.>", "archon.dialog.d-1.response", true},
		{"archon.agent.commands.>", "archon.agent.queries.list", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, subjectMatches(tt.pattern, tt.subject),
			"pattern %q subject %q", tt.pattern, tt.subject)
	}
}

func TestMemoryBusPublishSubscribe(t *testing.T) {
	bus := NewMemoryBus()

	sub, err := bus.Subscribe("archon.agent.commands.>")
	require.NoError(t, err)

	require.NoError(t, bus.Publish("archon.agent.commands.start_dialog", []byte("hello")))

	select {
	case m := <-sub.Messages():
		assert.Equal(t, "archon.agent.commands.start_dialog", m.Subject)
		assert.Equal(t, []byte("hello"), m.Data)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestMemoryBusNonMatchingSubjectSkipped(t *testing.T) {
	bus := NewMemoryBus()

	sub, err := bus.Subscribe("archon.agent.queries.>")
	require.NoError(t, err)

	require.NoError(t, bus.Publish("archon.agent.commands.foo", []byte("x")))

	select {
	case <-sub.Messages():
		t.Fatal("unexpected delivery")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBusRequestReply(t *testing.T) {
	bus := NewMemoryBus()

	sub, err := bus.Subscribe("archon.agent.health")
	require.NoError(t, err)

	go func() {
		m := <-sub.Messages()
		_ = bus.Publish(m.Reply, []byte("pong"))
	}()

	data, err := bus.Request(context.Background(), "archon.agent.health", []byte("ping"), time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte("pong"), data)
}

func TestMemoryBusRequestTimeout(t *testing.T) {
	bus := NewMemoryBus()

	_, err := bus.Request(context.Background(), "nobody.home", nil, 20*time.Millisecond)
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindTimeout))
}

func TestMemoryBusClosed(t *testing.T) {
	bus := NewMemoryBus()
	require.NoError(t, bus.Close())

	err := bus.Publish("a", nil)
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindTransport))

	_, err = bus.Subscribe("a")
	require.Error(t, err)
}

func TestMemoryBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewMemoryBus()

	sub, err := bus.Subscribe("a.b")
	require.NoError(t, err)
	require.NoError(t, sub.Unsubscribe())

	require.NoError(t, bus.Publish("a.b", []byte("x")))
	select {
	case <-sub.Messages():
		t.Fatal("delivery after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}
