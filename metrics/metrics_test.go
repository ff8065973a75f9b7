package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotReflectsCounters(t *testing.T) {
	m := New()

	m.CommandsTotal.WithLabelValues("start_dialog", OutcomeCompleted).Inc()
	m.CommandsTotal.WithLabelValues("start_dialog", OutcomeCompleted).Inc()
	m.QueriesTotal.WithLabelValues("list_concepts", OutcomeFailed).Inc()
	m.EventsPublishedTotal.Inc()
	m.ActiveDialogs.Set(3)

	snapshot, err := m.Snapshot()
	require.NoError(t, err)

	assert.Equal(t, 2.0, snapshot[`archon_commands_total{command_type="start_dialog",outcome="completed"}`])
	assert.Equal(t, 1.0, snapshot[`archon_queries_total{query_type="list_concepts",outcome="failed"}`])
	assert.Equal(t, 1.0, snapshot["archon_events_published_total"])
	assert.Equal(t, 3.0, snapshot["archon_active_dialogs"])
}

func TestRegistriesAreIndependent(t *testing.T) {
	a := New()
	b := New()

	a.EventsPublishedTotal.Inc()

	snapshot, err := b.Snapshot()
	require.NoError(t, err)
	assert.Zero(t, snapshot["archon_events_published_total"])
}
