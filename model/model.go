package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/archonlabs/archon/core"
)

// Message is one provider-agnostic history entry. Role is "user",
// "assistant" or "system".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Info describes a provider implementation.
type Info struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Provider is the narrow interface the agent drives generation through.
// Implementations must be safe for concurrent use; they are shared
// read-only across all processing loops.
type Provider interface {
	// Generate produces text for a standalone prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateWithContext produces text for a prompt given ordered
	// conversation history (system prompt first).
	GenerateWithContext(ctx context.Context, prompt string, history []Message) (string, error)

	// HealthCheck reports whether the provider is reachable.
	HealthCheck(ctx context.Context) error

	// Info returns provider metadata.
	Info() Info
}

// MockProvider is a deterministic in-memory Provider useful for tests and
// examples. Responses are registered per prompt; unregistered prompts get a
// canned echo.
type MockProvider struct {
	mu        sync.RWMutex
	info      Info
	responses map[string]string
	failWith  error
}

// NewMockProvider constructs an empty mock.
func NewMockProvider(modelName string) *MockProvider {
	return &MockProvider{
		info:      Info{Provider: "mock", Model: modelName},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *MockProvider) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (m *MockProvider) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

// Generate implements Provider.
func (m *MockProvider) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failWith != nil {
		return "", core.Wrap(core.KindModel, "mock generation", m.failWith)
	}
	if resp, ok := m.responses[prompt]; ok {
		return resp, nil
	}
	return fmt.Sprintf("Mock response to: %s", prompt), nil
}

// GenerateWithContext implements Provider; history is accepted and ignored.
func (m *MockProvider) GenerateWithContext(ctx context.Context, prompt string, _ []Message) (string, error) {
	return m.Generate(ctx, prompt)
}

// HealthCheck implements Provider.
func (m *MockProvider) HealthCheck(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failWith != nil {
		return core.Wrap(core.KindModel, "mock health check", m.failWith)
	}
	return nil
}

// Info implements Provider.
func (m *MockProvider) Info() Info { return m.info }
