package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archonlabs/archon/agent"
	"github.com/archonlabs/archon/core"
	"github.com/archonlabs/archon/envelope"
	"github.com/archonlabs/archon/model"
	"github.com/archonlabs/archon/session"
	"github.com/archonlabs/archon/transport"
	"github.com/archonlabs/archon/workflow"
)

func testSubjects() transport.Subjects {
	return transport.Subjects{Prefix: "archon.agent", DialogPrefix: "archon.dialog"}
}

func newTestAgent() *agent.Agent {
	identity := core.ServiceIdentity{AgentID: "agent-1", Name: "archon", Version: "0.1.0"}
	provider := model.NewMockProvider("mock-small")
	return agent.New(identity, provider, session.NewStore(provider, identity), workflow.NewTracker())
}

func TestHealthBeforeStart(t *testing.T) {
	s := New(transport.NewMemoryBus(), testSubjects(), newTestAgent())

	assert.Equal(t, StatusStopped, s.Status())
	health := s.Health()
	assert.Equal(t, envelope.StatusUnhealthy, health.Status)
	assert.Zero(t, health.UptimeSeconds)
}

func TestStartStopLifecycle(t *testing.T) {
	s := New(transport.NewMemoryBus(), testSubjects(), newTestAgent())

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, StatusRunning, s.Status())

	health := s.Health()
	assert.Equal(t, envelope.StatusHealthy, health.Status)
	assert.Equal(t, "0.1.0", health.Version)
	assert.Equal(t, "connected", health.ModelStatus)
	assert.Zero(t, health.ActiveDialogs)

	// Starting twice is rejected.
	err := s.Start(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindConfiguration))

	s.Stop()
	assert.Equal(t, StatusStopped, s.Status())
	assert.Equal(t, envelope.StatusUnhealthy, s.Health().Status)

	// Stop is idempotent.
	s.Stop()
	assert.Equal(t, StatusStopped, s.Status())
}

func TestHealthAnsweredOverBus(t *testing.T) {
	bus := transport.NewMemoryBus()
	s := New(bus, testSubjects(), newTestAgent())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()
	time.Sleep(20 * time.Millisecond)

	data, err := bus.Request(context.Background(), "archon.agent.health", nil, time.Second)
	require.NoError(t, err)

	var health envelope.HealthResponse
	require.NoError(t, json.Unmarshal(data, &health))
	assert.Equal(t, envelope.StatusHealthy, health.Status)

	var meta struct {
		AgentID      string   `json:"agent_id"`
		Capabilities []string `json:"capabilities"`
	}
	require.NoError(t, json.Unmarshal(health.Metadata, &meta))
	assert.Equal(t, "agent-1", meta.AgentID)
	assert.NotEmpty(t, meta.Capabilities)
}

func TestPeriodicHealthAndMetricsPublish(t *testing.T) {
	bus := transport.NewMemoryBus()

	healthSub, err := bus.Subscribe("archon.agent.health")
	require.NoError(t, err)
	metricsSub, err := bus.Subscribe("archon.agent.metrics")
	require.NoError(t, err)

	s := New(bus, testSubjects(), newTestAgent(), func(o *Options) {
		o.HealthInterval = 20 * time.Millisecond
	})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	select {
	case m := <-healthSub.Messages():
		var health envelope.HealthResponse
		require.NoError(t, json.Unmarshal(m.Data, &health))
		assert.Equal(t, envelope.StatusHealthy, health.Status)
	case <-time.After(time.Second):
		t.Fatal("no periodic health publish")
	}

	select {
	case m := <-metricsSub.Messages():
		var snapshot map[string]float64
		require.NoError(t, json.Unmarshal(m.Data, &snapshot))
		assert.Contains(t, snapshot, "archon_events_published_total")
	case <-time.After(time.Second):
		t.Fatal("no periodic metrics publish")
	}
}

// failingBus rejects subscriptions on one subject to simulate a loop that
// cannot start.
type failingBus struct {
	transport.Bus
	failSubject string
}

func (b *failingBus) Subscribe(subject string) (transport.Subscription, error) {
	if subject == b.failSubject {
		return nil, core.Errorf(core.KindTransport, "subscribe %s refused", subject)
	}
	return b.Bus.Subscribe(subject)
}

func TestLoopFailureIsIsolated(t *testing.T) {
	inner := transport.NewMemoryBus()
	bus := &failingBus{Bus: inner, failSubject: testSubjects().Commands()}

	s := New(bus, testSubjects(), newTestAgent())
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()
	time.Sleep(50 * time.Millisecond)

	// The command loop failed, so the service reports the error state.
	assert.Equal(t, StatusError, s.Status())

	// Sibling loops keep serving: queries still get replies.
	q, err := envelope.Encode(envelope.Query{
		ID:        "q-1",
		QueryType: "list_concepts",
		Timestamp: time.Now().UTC(),
	})
	require.NoError(t, err)

	data, err := inner.Request(context.Background(), "archon.agent.queries.list_concepts", q, time.Second)
	require.NoError(t, err)

	var reply envelope.QueryReply
	require.NoError(t, json.Unmarshal(data, &reply))
	assert.True(t, reply.Success)
}
