// Package config defines the YAML-backed configuration for the Archon
// service and its validation rules. Durations are written in human form
// ("100ms", "30s", "2m").
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/archonlabs/archon/core"
)

// Duration wraps time.Duration with humantime YAML (de)serialization.
type Duration time.Duration

// UnmarshalYAML parses values like "100ms" or "30s".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in human form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration for the agent service.
type Config struct {
	Identity IdentityConfig `yaml:"identity"`
	Model    ModelConfig    `yaml:"model"`
	NATS     NATSConfig     `yaml:"nats"`
	Service  ServiceConfig  `yaml:"service"`
	Dialog   DialogConfig   `yaml:"dialog"`
}

// IdentityConfig names the agent instance.
type IdentityConfig struct {
	AgentID      string `yaml:"agent_id"`
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	Version      string `yaml:"version"`
	Organization string `yaml:"organization"`
}

// ServiceIdentity converts the config block into the injected identity value.
func (c IdentityConfig) ServiceIdentity() core.ServiceIdentity {
	return core.ServiceIdentity{
		AgentID:      c.AgentID,
		Name:         c.Name,
		Description:  c.Description,
		Version:      c.Version,
		Organization: c.Organization,
	}
}

// ModelConfig selects and tunes the text-generation provider.
type ModelConfig struct {
	// Provider is one of "mock", "openai", "anthropic".
	Provider    string   `yaml:"provider"`
	Model       string   `yaml:"model"`
	APIKey      string   `yaml:"api_key,omitempty"`
	Timeout     Duration `yaml:"timeout"`
	Temperature float64  `yaml:"temperature"`
	MaxTokens   int64    `yaml:"max_tokens"`
}

// NATSConfig configures the bus connection.
type NATSConfig struct {
	Servers       []string         `yaml:"servers"`
	SubjectPrefix string           `yaml:"subject_prefix"`
	DialogPrefix  string           `yaml:"dialog_prefix"`
	Auth          *AuthConfig      `yaml:"auth,omitempty"`
	Retry         RetryPolicy      `yaml:"retry"`
	JetStream     *JetStreamConfig `yaml:"jetstream,omitempty"`
}

// AuthConfig holds bus credentials. Type selects which fields apply.
type AuthConfig struct {
	// Type is one of "token", "user_password", "jwt", "tls".
	Type     string `yaml:"type"`
	Token    string `yaml:"token,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	JWT      string `yaml:"jwt,omitempty"`
	Seed     string `yaml:"seed,omitempty"`
	CertPath string `yaml:"cert_path,omitempty"`
	KeyPath  string `yaml:"key_path,omitempty"`
}

// RetryPolicy governs the initial-connect retry loop. Once connected the
// client library's own reconnection applies; this policy is not consulted
// again mid-session.
type RetryPolicy struct {
	MaxAttempts  int      `yaml:"max_attempts"`
	InitialDelay Duration `yaml:"initial_delay"`
	MaxDelay     Duration `yaml:"max_delay"`
	Multiplier   float64  `yaml:"multiplier"`
}

// JetStreamConfig enables durable-stream semantics. The dedup window is an
// external at-most-once guarantee provided by the server, not something the
// service implements.
type JetStreamConfig struct {
	StreamName   string   `yaml:"stream_name"`
	ConsumerName string   `yaml:"consumer_name"`
	DedupeWindow Duration `yaml:"dedupe_window"`
}

// ServiceConfig tunes the supervisor and observability surfaces.
type ServiceConfig struct {
	HealthInterval Duration      `yaml:"health_interval"`
	RequestTimeout Duration      `yaml:"request_timeout"`
	Logging        LoggingConfig `yaml:"logging"`
	Metrics        MetricsConfig `yaml:"metrics"`
}

// LoggingConfig selects log level and encoding.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"` // json or text
	AddSource bool   `yaml:"add_source"`
}

// MetricsConfig toggles the periodic metrics publish.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DialogConfig bounds conversation state.
type DialogConfig struct {
	// MaxHistory caps how many prior turns are sent to the provider.
	MaxHistory int `yaml:"max_history"`
}

// Default returns the baseline configuration matching a local deployment.
func Default() Config {
	return Config{
		Identity: IdentityConfig{
			AgentID:      core.NewID(),
			Name:         "archon",
			Description:  "Event-driven architecture assistant",
			Version:      "0.1.0",
			Organization: "archonlabs",
		},
		Model: ModelConfig{
			Provider:    "mock",
			Model:       "mock-small",
			Timeout:     Duration(30 * time.Second),
			Temperature: 0.7,
			MaxTokens:   2048,
		},
		NATS: NATSConfig{
			Servers:       []string{"nats://localhost:4222"},
			SubjectPrefix: "archon.agent",
			DialogPrefix:  "archon.dialog",
			Retry: RetryPolicy{
				MaxAttempts:  5,
				InitialDelay: Duration(100 * time.Millisecond),
				MaxDelay:     Duration(30 * time.Second),
				Multiplier:   2.0,
			},
			JetStream: &JetStreamConfig{
				StreamName:   "ARCHON_EVENTS",
				ConsumerName: "archon-consumer",
				DedupeWindow: Duration(2 * time.Minute),
			},
		},
		Service: ServiceConfig{
			HealthInterval: Duration(30 * time.Second),
			RequestTimeout: Duration(5 * time.Second),
			Logging:        LoggingConfig{Level: "info", Format: "json"},
			Metrics:        MetricsConfig{Enabled: true},
		},
		Dialog: DialogConfig{MaxHistory: 100},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, core.Wrap(core.KindConfiguration, "read config file", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, core.Wrap(core.KindConfiguration, "parse config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first missing required field.
func (c Config) Validate() error {
	if c.Identity.Name == "" {
		return core.Errorf(core.KindConfiguration, "identity.name is required")
	}
	if c.Identity.AgentID == "" {
		return core.Errorf(core.KindConfiguration, "identity.agent_id is required")
	}
	if len(c.NATS.Servers) == 0 {
		return core.Errorf(core.KindConfiguration, "nats.servers must list at least one server")
	}
	if c.NATS.SubjectPrefix == "" {
		return core.Errorf(core.KindConfiguration, "nats.subject_prefix is required")
	}
	if c.NATS.DialogPrefix == "" {
		return core.Errorf(core.KindConfiguration, "nats.dialog_prefix is required")
	}
	if c.NATS.Retry.MaxAttempts <= 0 {
		return core.Errorf(core.KindConfiguration, "nats.retry.max_attempts must be positive")
	}
	if c.NATS.Retry.Multiplier < 1 {
		return core.Errorf(core.KindConfiguration, "nats.retry.multiplier must be >= 1")
	}
	switch c.Model.Provider {
	case "mock", "openai", "anthropic":
	case "":
		return core.Errorf(core.KindConfiguration, "model.provider is required")
	default:
		return core.Errorf(core.KindConfiguration, "unknown model.provider %q", c.Model.Provider)
	}
	return nil
}
