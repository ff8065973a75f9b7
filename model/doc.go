// Package model defines the narrow text-generation contract the agent
// depends on and a deterministic mock implementation for tests and
// examples. Real providers live in the model/openai and model/anthropic
// subpackages and are selected at construction time.
package model
