package session

import (
	"encoding/json"
	"time"

	"github.com/archonlabs/archon/core"
)

// DialogStatus is the lifecycle state of a dialog.
type DialogStatus string

const (
	// DialogActive accepts new turns.
	DialogActive DialogStatus = "active"
	// DialogClosed no longer accepts turns; the history stays readable.
	DialogClosed DialogStatus = "closed"
)

// TurnType tags who produced a turn.
type TurnType string

const (
	TurnUser      TurnType = "user"
	TurnAssistant TurnType = "assistant"
	TurnSystem    TurnType = "system"
)

// Role maps the turn type to the provider-agnostic history role.
func (t TurnType) Role() string { return string(t) }

// MessageContent is either free text or a structured value. Exactly one
// field is set.
type MessageContent struct {
	Text       string          `json:"text,omitempty"`
	Structured json.RawMessage `json:"structured,omitempty"`
}

// String renders the content for model history: the text itself, or the
// structured value's JSON form.
func (c MessageContent) String() string {
	if c.Text != "" || len(c.Structured) == 0 {
		return c.Text
	}
	return string(c.Structured)
}

// TurnMessage is the message carried by one turn.
type TurnMessage struct {
	Content  MessageContent  `json:"content"`
	Intent   *string         `json:"intent,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// Turn is one exchange unit in a dialog.
type Turn struct {
	ID        string      `json:"id"`
	Type      TurnType    `json:"turn_type"`
	Message   TurnMessage `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewTurn stamps a turn with a fresh id.
func NewTurn(turnType TurnType, msg TurnMessage, ts time.Time) Turn {
	return Turn{ID: core.NewID(), Type: turnType, Message: msg, Timestamp: ts}
}

// Dialog is a stateful conversation. Turns are appended in non-decreasing
// timestamp order; a user turn is eventually followed by exactly one
// assistant turn produced from it.
type Dialog struct {
	ID           string          `json:"id"`
	Status       DialogStatus    `json:"status"`
	Participants []string        `json:"participants"`
	Turns        []Turn          `json:"turns"`
	Context      json.RawMessage `json:"context,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
}

// newDialog allocates an empty active dialog.
func newDialog() *Dialog {
	return &Dialog{
		ID:           core.NewID(),
		Status:       DialogActive,
		Participants: []string{},
		Turns:        []Turn{},
	}
}

// clone returns a deep enough copy for safe external reads: the turn slice
// and participants are copied, raw JSON values are treated as immutable.
func (d *Dialog) clone() Dialog {
	out := *d
	out.Participants = append([]string(nil), d.Participants...)
	out.Turns = make([]Turn, len(d.Turns))
	copy(out.Turns, d.Turns)
	return out
}
