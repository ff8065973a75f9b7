package archon

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archonlabs/archon/config"
	"github.com/archonlabs/archon/core"
	"github.com/archonlabs/archon/envelope"
	"github.com/archonlabs/archon/transport"
)

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Identity.Name = ""

	_, err := New(cfg)
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindConfiguration))
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Provider = "oracle"

	_, err := New(cfg)
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindConfiguration))
}

func TestRunServesOverMemoryBus(t *testing.T) {
	cfg := config.Default()
	bus := transport.NewMemoryBus()

	svc, err := New(cfg, func(o *Options) {
		o.Bus = bus
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)

	q, err := envelope.Encode(envelope.Query{
		ID:        "q-1",
		QueryType: string(envelope.QueryListConcepts),
		Timestamp: time.Now().UTC(),
	})
	require.NoError(t, err)

	data, err := bus.Request(context.Background(), "archon.agent.queries.list_concepts", q, time.Second)
	require.NoError(t, err)

	var reply envelope.QueryReply
	require.NoError(t, json.Unmarshal(data, &reply))
	assert.True(t, reply.Success)

	var result struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(reply.Result, &result))
	assert.Equal(t, 15, result.Total)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.NotNil(t, svc.Supervisor())
}
