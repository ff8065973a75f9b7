// Package openai implements model.Provider using the OpenAI Chat
// Completions API. It adapts the service's role/content history into the
// SDK's message format.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/archonlabs/archon/core"
	"github.com/archonlabs/archon/model"
)

// Compile-time interface check.
var _ model.Provider = (*Provider)(nil)

// Options configure the OpenAI provider. Fields mirror a minimal subset of
// Chat Completion parameters; extend via functional options without
// breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Provider wraps the OpenAI Chat Completions API behind model.Provider.
type Provider struct {
	client *openai.Client
	opts   Options
}

// New creates a provider using the official client (API key from the
// environment).
func New(optFns ...func(o *Options)) *Provider {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a provider from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Provider {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 2048,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, opts: opts}
}

// Generate implements model.Provider.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	return p.GenerateWithContext(ctx, prompt, nil)
}

// GenerateWithContext implements model.Provider. When history is non-empty
// it already contains the latest user turn, so the prompt is not repeated.
func (p *Provider) GenerateWithContext(ctx context.Context, prompt string, history []model.Message) (string, error) {
	messages := buildMessages(prompt, history)
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               p.opts.Model,
		Messages:            messages,
		Temperature:         openai.Float(p.opts.Temperature),
		MaxCompletionTokens: openai.Int(p.opts.MaxCompletionTokens),
	})
	if err != nil {
		return "", core.Wrap(core.KindModel, "openai api", err)
	}
	if len(resp.Choices) == 0 {
		return "", core.Errorf(core.KindModel, "openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// buildMessages converts provider-agnostic history into SDK messages.
func buildMessages(prompt string, history []model.Message) []openai.ChatCompletionMessageParamUnion {
	if len(history) == 0 {
		return []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)}
	}
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case "system":
			messages = append(messages, openai.SystemMessage(m.Content))
		case "assistant":
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	return messages
}

// HealthCheck implements model.Provider by listing available models.
func (p *Provider) HealthCheck(ctx context.Context) error {
	if _, err := p.client.Models.List(ctx); err != nil {
		return core.Wrap(core.KindModel, "openai health check", err)
	}
	return nil
}

// Info implements model.Provider.
func (p *Provider) Info() model.Info {
	return model.Info{Provider: "openai", Model: fmt.Sprint(p.opts.Model)}
}
