package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/archonlabs/archon/agent"
	"github.com/archonlabs/archon/core"
	"github.com/archonlabs/archon/envelope"
	"github.com/archonlabs/archon/logging"
	"github.com/archonlabs/archon/metrics"
	"github.com/archonlabs/archon/router"
	"github.com/archonlabs/archon/transport"
)

// Compile-time check that the agent satisfies the router's handler contract.
var _ router.Handler = (*agent.Agent)(nil)

// Status is the supervisor's lifecycle state.
type Status string

const (
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusStopped  Status = "stopped"
	StatusError    Status = "error"
)

// Options configure a Supervisor.
type Options struct {
	Logger         logging.Logger
	Metrics        *metrics.Metrics
	HealthInterval time.Duration
	MetricsEnabled bool
	// HealthCheckTimeout bounds the provider probe made per health report.
	HealthCheckTimeout time.Duration
}

// Supervisor runs the agent's processing loops and owns their lifecycle.
type Supervisor struct {
	bus      transport.Bus
	subjects transport.Subjects
	agent    *agent.Agent
	router   *router.Router
	logger   logging.Logger
	metrics  *metrics.Metrics

	healthInterval     time.Duration
	metricsEnabled     bool
	healthCheckTimeout time.Duration

	mu        sync.Mutex
	status    Status
	startedAt time.Time
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New constructs a stopped Supervisor around the agent and its bus.
func New(bus transport.Bus, subjects transport.Subjects, a *agent.Agent, optFns ...func(o *Options)) *Supervisor {
	opts := Options{
		Logger:             logging.NoOpLogger{},
		Metrics:            metrics.New(),
		HealthInterval:     30 * time.Second,
		MetricsEnabled:     true,
		HealthCheckTimeout: 5 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	s := &Supervisor{
		bus:                bus,
		subjects:           subjects,
		agent:              a,
		logger:             opts.Logger,
		metrics:            opts.Metrics,
		healthInterval:     opts.HealthInterval,
		metricsEnabled:     opts.MetricsEnabled,
		healthCheckTimeout: opts.HealthCheckTimeout,
		status:             StatusStopped,
	}
	s.router = router.New(bus, subjects, a, a.Identity(), func(o *router.Options) {
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
	})
	return s
}

// Status returns the current lifecycle state.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Start spawns the processing loops and transitions to Running. Calling
// Start on a running service is an error.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.status == StatusStarting || s.status == StatusRunning {
		s.mu.Unlock()
		return core.Errorf(core.KindConfiguration, "service already started")
	}
	s.status = StatusStarting
	s.startedAt = time.Now()
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.logger.Info("starting agent service",
		"agent", s.agent.Identity().Name,
		"version", s.agent.Identity().Version,
	)

	s.spawnLoop(loopCtx, "commands", s.router.RunCommandLoop)
	s.spawnLoop(loopCtx, "queries", s.router.RunQueryLoop)
	s.spawnLoop(loopCtx, "dialogs", s.router.RunDialogLoop)
	s.spawnLoop(loopCtx, "health", func(ctx context.Context) error {
		return s.router.RunHealthLoop(ctx, s.Health)
	})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.publishLoop(loopCtx)
	}()

	s.mu.Lock()
	if s.status == StatusStarting {
		s.status = StatusRunning
	}
	s.mu.Unlock()

	s.logger.Info("agent service started")
	return nil
}

// spawnLoop runs one subscription loop, recording a loop failure as the
// Error state without stopping the sibling loops.
func (s *Supervisor) spawnLoop(ctx context.Context, name string, loop func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := loop(ctx); err != nil {
			s.logger.Error("processing loop failed", "loop", name, "error", err)
			s.mu.Lock()
			if s.status == StatusRunning || s.status == StatusStarting {
				s.status = StatusError
			}
			s.mu.Unlock()
		}
	}()
}

// publishLoop pushes the health report and a metrics snapshot on their
// subjects at each health interval.
func (s *Supervisor) publishLoop(ctx context.Context) {
	if s.healthInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.healthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.publishHealth()
			if s.metricsEnabled {
				s.publishMetrics()
			}
		}
	}
}

func (s *Supervisor) publishHealth() {
	data, err := envelope.Encode(s.Health())
	if err != nil {
		s.logger.Error("failed to encode health report", "error", err)
		return
	}
	if err := s.bus.Publish(s.subjects.Health(), data); err != nil {
		s.logger.Error("failed to publish health report", "error", err)
	}
}

func (s *Supervisor) publishMetrics() {
	snapshot, err := s.metrics.Snapshot()
	if err != nil {
		s.logger.Error("failed to gather metrics", "error", err)
		return
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.Error("failed to encode metrics snapshot", "error", err)
		return
	}
	if err := s.bus.Publish(s.subjects.Metrics(), data); err != nil {
		s.logger.Error("failed to publish metrics snapshot", "error", err)
	}
}

// Health reports the current health. The service is healthy only while
// Running with at least one registered capability.
func (s *Supervisor) Health() envelope.HealthResponse {
	s.mu.Lock()
	status := s.status
	startedAt := s.startedAt
	s.mu.Unlock()

	var uptime uint64
	if !startedAt.IsZero() {
		uptime = uint64(time.Since(startedAt).Seconds())
	}

	modelStatus := "unknown"
	if status == StatusRunning {
		ctx, cancel := context.WithTimeout(context.Background(), s.healthCheckTimeout)
		if err := s.agent.Provider().HealthCheck(ctx); err != nil {
			modelStatus = "unavailable"
		} else {
			modelStatus = "connected"
		}
		cancel()
	}

	capabilities := s.agent.Capabilities()
	health := envelope.StatusUnhealthy
	if status == StatusRunning && len(capabilities) > 0 {
		health = envelope.StatusHealthy
	}

	s.metrics.ActiveDialogs.Set(float64(s.agent.Dialogs().ActiveCount()))

	meta, _ := json.Marshal(map[string]any{
		"agent_id":     s.agent.Identity().AgentID,
		"capabilities": capabilities,
		"model":        s.agent.Provider().Info(),
	})

	return envelope.HealthResponse{
		Status:        health,
		Version:       s.agent.Identity().Version,
		UptimeSeconds: uptime,
		ModelStatus:   modelStatus,
		ActiveDialogs: s.agent.Dialogs().ActiveCount(),
		Metadata:      meta,
	}
}

// Stop cancels the loops and waits for them to exit. Safe to call once per
// Start.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if s.status != StatusRunning && s.status != StatusStarting && s.status != StatusError {
		s.mu.Unlock()
		return
	}
	s.status = StatusStopping
	cancel := s.cancel
	s.mu.Unlock()

	s.logger.Info("stopping agent service")
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()

	s.mu.Lock()
	s.status = StatusStopped
	s.mu.Unlock()
	s.logger.Info("agent service stopped")
}

// Wait blocks until every loop has exited.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}
