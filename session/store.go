package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/archonlabs/archon/core"
	"github.com/archonlabs/archon/envelope"
	"github.com/archonlabs/archon/model"
)

// DefaultSystemPrompt primes the model for architecture guidance. It is
// prepended to every dialog's history.
const DefaultSystemPrompt = "You are Archon, an AI assistant specialized in helping users " +
	"understand and work with event-driven architecture. Your expertise includes " +
	"event sourcing and CQRS, Domain-Driven Design principles and patterns, " +
	"graph-based workflows, conceptual spaces for semantic understanding, and " +
	"NATS messaging in distributed systems. Provide clear, accurate explanations, " +
	"use concrete examples when relevant, and suggest best practices. Always be " +
	"helpful, precise, and educational in your responses."

// Options configure a Store.
type Options struct {
	// SystemPrompt replaces the default system prompt.
	SystemPrompt string
	// MaxHistory caps how many prior turns are mapped into model context.
	// Zero means unlimited.
	MaxHistory int
}

// Store maps dialog ids to ordered turn histories. A single RWMutex
// serializes writers over the map while allowing unlimited concurrent
// readers; getOrCreate runs under one write acquisition so lookup and
// insert cannot race.
type Store struct {
	mu      sync.RWMutex
	dialogs map[string]*Dialog

	provider     model.Provider
	identity     core.ServiceIdentity
	systemPrompt string
	maxHistory   int
}

// NewStore constructs an empty store bound to a text-generation provider.
func NewStore(provider model.Provider, identity core.ServiceIdentity, optFns ...func(o *Options)) *Store {
	opts := Options{SystemPrompt: DefaultSystemPrompt}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{
		dialogs:      make(map[string]*Dialog),
		provider:     provider,
		identity:     identity,
		systemPrompt: opts.SystemPrompt,
		maxHistory:   opts.MaxHistory,
	}
}

// GetOrCreate returns a snapshot of the dialog, creating it active and
// empty on first access. This is an upsert, not an error path.
func (s *Store) GetOrCreate(dialogID string) Dialog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(dialogID).clone()
}

// Get returns a snapshot of an existing dialog or a NotFound error.
func (s *Store) Get(dialogID string) (Dialog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.dialogs[dialogID]
	if !ok {
		return Dialog{}, core.Errorf(core.KindNotFound, "dialog %s not found", dialogID)
	}
	return d.clone(), nil
}

// Create inserts a fully-formed dialog under the given id, overwriting any
// placeholder created lazily before it.
func (s *Store) Create(dialogID string, d Dialog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := d
	if stored.ID == "" {
		stored.ID = core.NewID()
	}
	if stored.Status == "" {
		stored.Status = DialogActive
	}
	if stored.Turns == nil {
		stored.Turns = []Turn{}
	}
	if stored.Participants == nil {
		stored.Participants = []string{}
	}
	s.dialogs[dialogID] = &stored
}

// AppendTurn appends a turn to the dialog, creating the dialog if needed.
func (s *Store) AppendTurn(dialogID string, turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(s.getOrCreateLocked(dialogID), turn)
}

// Close marks a dialog closed. The history stays readable; dialogs are
// never deleted.
func (s *Store) Close(dialogID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dialogs[dialogID]
	if !ok {
		return core.Errorf(core.KindNotFound, "dialog %s not found", dialogID)
	}
	d.Status = DialogClosed
	return nil
}

// Count returns how many dialogs are tracked.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dialogs)
}

// ActiveCount returns how many dialogs are still active.
func (s *Store) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, d := range s.dialogs {
		if d.Status == DialogActive {
			n++
		}
	}
	return n
}

// ProcessMessage orchestrates one dialog round: record the user turn,
// build model context from the full prior history behind the fixed system
// prompt, invoke the provider, record the assistant turn, and return the
// generated text.
//
// On provider failure the user turn remains recorded so a retry can reuse
// the history without re-asking.
func (s *Store) ProcessMessage(ctx context.Context, msg envelope.DialogMessage) (string, error) {
	userTurn := NewTurn(TurnUser, TurnMessage{
		Content:  MessageContent{Text: msg.Content},
		Metadata: msg.Metadata,
	}, msg.Timestamp)

	s.mu.Lock()
	d := s.getOrCreateLocked(msg.DialogID)
	s.appendLocked(d, userTurn)
	history := s.historyLocked(d)
	s.mu.Unlock()

	text, err := s.provider.GenerateWithContext(ctx, msg.Content, history)
	if err != nil {
		return "", fmt.Errorf("generate dialog reply: %w", err)
	}

	meta, _ := json.Marshal(map[string]string{
		"model":    s.provider.Info().Model,
		"agent_id": s.identity.AgentID,
	})
	assistantTurn := NewTurn(TurnAssistant, TurnMessage{
		Content:  MessageContent{Text: text},
		Metadata: meta,
	}, time.Now().UTC())

	s.mu.Lock()
	s.appendLocked(s.getOrCreateLocked(msg.DialogID), assistantTurn)
	s.mu.Unlock()

	return text, nil
}

// getOrCreateLocked allocates and stores a new dialog when absent; the
// caller must hold the write lock.
func (s *Store) getOrCreateLocked(dialogID string) *Dialog {
	if d, ok := s.dialogs[dialogID]; ok {
		return d
	}
	d := newDialog()
	s.dialogs[dialogID] = d
	return d
}

// appendLocked appends a turn keeping timestamps non-decreasing: a zero or
// stale timestamp is clamped forward.
func (s *Store) appendLocked(d *Dialog, turn Turn) {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}
	if n := len(d.Turns); n > 0 && turn.Timestamp.Before(d.Turns[n-1].Timestamp) {
		turn.Timestamp = d.Turns[n-1].Timestamp
	}
	d.Turns = append(d.Turns, turn)
}

// historyLocked maps the dialog's turns to provider-agnostic role/content
// pairs behind the fixed system prompt, capped to the configured window.
func (s *Store) historyLocked(d *Dialog) []model.Message {
	turns := d.Turns
	if s.maxHistory > 0 && len(turns) > s.maxHistory {
		turns = turns[len(turns)-s.maxHistory:]
	}
	history := make([]model.Message, 0, len(turns)+1)
	history = append(history, model.Message{Role: "system", Content: s.systemPrompt})
	for _, t := range turns {
		history = append(history, model.Message{Role: t.Type.Role(), Content: t.Message.Content.String()})
	}
	return history
}
