package envelope

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archonlabs/archon/core"
)

func TestParseCommandType(t *testing.T) {
	assert.Equal(t, CommandStartDialog, ParseCommandType("start_dialog"))
	assert.Equal(t, CommandExplainConcept, ParseCommandType("explain_concept"))
	assert.Equal(t, CommandUnknown, ParseCommandType("foo"))
	assert.Equal(t, CommandUnknown, ParseCommandType(""))
}

func TestParseQueryType(t *testing.T) {
	assert.Equal(t, QueryListConcepts, ParseQueryType("list_concepts"))
	assert.Equal(t, QueryUnknown, ParseQueryType("bar"))
}

func TestCommandEventTypesFollowRawTag(t *testing.T) {
	// Unknown tags still derive attributable event names.
	cmd := Command{ID: "c-1", CommandType: "foo"}
	assert.Equal(t, CommandUnknown, cmd.Type())
	assert.Equal(t, "foo_completed", cmd.CompletedEventType())
	assert.Equal(t, "foo_failed", cmd.FailedEventType())
}

func TestCommandRoundTrip(t *testing.T) {
	in := Command{
		ID:          "c-2",
		CommandType: "explain_concept",
		Payload:     []byte(`{"concept":"CQRS"}`),
		Timestamp:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Origin:      "test",
	}
	data, err := Encode(in)
	require.NoError(t, err)

	out, err := DecodeCommand(data)
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, CommandExplainConcept, out.Type())
	assert.JSONEq(t, `{"concept":"CQRS"}`, string(out.Payload))
}

func TestDecodeCommandMalformed(t *testing.T) {
	_, err := DecodeCommand([]byte("{not json"))
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindSerialization))
}

func TestDecodeQueryMalformed(t *testing.T) {
	_, err := DecodeQuery([]byte("[]"))
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindSerialization))
}

func TestDecodeDialogMessageMalformed(t *testing.T) {
	_, err := DecodeDialogMessage([]byte("nope"))
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindSerialization))
}

func TestNewEventStampsIdentityAndTime(t *testing.T) {
	before := time.Now().UTC()
	ev := NewEvent("start_dialog_completed", []byte(`{}`), "agent-1")

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "start_dialog_completed", ev.EventType)
	assert.Equal(t, "agent-1", ev.AgentID)
	assert.False(t, ev.Timestamp.Before(before))
}
