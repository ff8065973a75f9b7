// Package archon provides a high-level façade over the agent, its stores
// and the service supervisor, enabling construction of a complete
// bus-driven guidance agent from a single Config. Most applications
// interact with this package by:
//  1. Creating an Archon via New() from a config.Config (optionally
//     overriding the bus, provider or logger)
//  2. Calling Run(ctx), which connects, starts the supervisor and blocks
//     until the context is cancelled
//
// All defaults are safe for local development: a mock model provider and
// an in-memory bus are used whenever the config or overrides do not supply
// real ones.
package archon

import (
	"context"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/archonlabs/archon/agent"
	"github.com/archonlabs/archon/config"
	"github.com/archonlabs/archon/core"
	"github.com/archonlabs/archon/logging"
	"github.com/archonlabs/archon/metrics"
	"github.com/archonlabs/archon/model"
	"github.com/archonlabs/archon/model/anthropic"
	"github.com/archonlabs/archon/model/openai"
	"github.com/archonlabs/archon/service"
	"github.com/archonlabs/archon/session"
	"github.com/archonlabs/archon/transport"
	"github.com/archonlabs/archon/workflow"
)

// Options configure the Archon façade.
type Options struct {
	// Bus overrides the transport. When nil, Run connects to NATS using
	// the config's servers and retry policy.
	Bus transport.Bus

	// Provider overrides the model provider selected from config.
	Provider model.Provider

	// Logger (defaults to a slog JSON logger at the configured level).
	Logger logging.Logger

	// Metrics (defaults to a fresh private registry).
	Metrics *metrics.Metrics
}

// Archon aggregates the configured components behind a small lifecycle
// surface.
type Archon struct {
	cfg      config.Config
	identity core.ServiceIdentity
	bus      transport.Bus
	provider model.Provider
	agent    *agent.Agent
	logger   logging.Logger
	metrics  *metrics.Metrics

	supervisor *service.Supervisor
}

// New assembles an Archon instance from a validated config with optional
// overrides. The bus connection is deferred to Run so construction never
// blocks.
func New(cfg config.Config, optFns ...func(o *Options)) (*Archon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := Options{Metrics: metrics.New()}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.New(func(o *logging.Options) {
			o.Level = cfg.Service.Logging.Level
			o.Format = cfg.Service.Logging.Format
			o.AddSource = cfg.Service.Logging.AddSource
		})
	}

	provider := opts.Provider
	if provider == nil {
		var err error
		provider, err = newProvider(cfg.Model)
		if err != nil {
			return nil, err
		}
	}

	identity := cfg.Identity.ServiceIdentity()
	dialogs := session.NewStore(provider, identity, func(o *session.Options) {
		o.MaxHistory = cfg.Dialog.MaxHistory
	})
	workflows := workflow.NewTracker()

	a := agent.New(identity, provider, dialogs, workflows, func(o *agent.Options) {
		o.Logger = opts.Logger
	})

	return &Archon{
		cfg:      cfg,
		identity: identity,
		bus:      opts.Bus,
		provider: provider,
		agent:    a,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}, nil
}

// newProvider selects the model provider named by the config.
func newProvider(cfg config.ModelConfig) (model.Provider, error) {
	switch cfg.Provider {
	case "mock":
		return model.NewMockProvider(cfg.Model), nil
	case "openai":
		return openai.New(func(o *openai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.Temperature = cfg.Temperature
			o.MaxCompletionTokens = cfg.MaxTokens
		}), nil
	case "anthropic":
		return anthropic.New(func(o *anthropic.Options) {
			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
			o.Temperature = cfg.Temperature
			o.MaxTokens = cfg.MaxTokens
			o.APIKey = cfg.APIKey
		}), nil
	default:
		return nil, core.Errorf(core.KindConfiguration, "unknown model provider %q", cfg.Provider)
	}
}

// Agent exposes the composed agent, mainly for embedding and tests.
func (a *Archon) Agent() *agent.Agent { return a.agent }

// Bus returns the transport once Run (or an override) established it.
func (a *Archon) Bus() transport.Bus { return a.bus }

// Supervisor returns the running supervisor, nil before Run.
func (a *Archon) Supervisor() *service.Supervisor { return a.supervisor }

// Run connects the bus if needed, starts the supervisor and blocks until
// the context is cancelled or every loop has exited.
func (a *Archon) Run(ctx context.Context) error {
	if a.bus == nil {
		conn, err := transport.Connect(ctx, a.cfg.NATS, func(o *transport.Options) {
			o.Logger = a.logger
		})
		if err != nil {
			return err
		}
		a.bus = conn
		defer func() { _ = conn.Close() }()
	}

	subjects := transport.Subjects{
		Prefix:       a.cfg.NATS.SubjectPrefix,
		DialogPrefix: a.cfg.NATS.DialogPrefix,
	}
	a.supervisor = service.New(a.bus, subjects, a.agent, func(o *service.Options) {
		o.Logger = a.logger
		o.Metrics = a.metrics
		o.HealthInterval = a.cfg.Service.HealthInterval.Std()
		o.MetricsEnabled = a.cfg.Service.Metrics.Enabled
		o.HealthCheckTimeout = a.cfg.Service.RequestTimeout.Std()
	})

	if err := a.supervisor.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	a.supervisor.Stop()
	return nil
}
