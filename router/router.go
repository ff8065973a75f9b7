package router

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/archonlabs/archon/core"
	"github.com/archonlabs/archon/envelope"
	"github.com/archonlabs/archon/logging"
	"github.com/archonlabs/archon/metrics"
	"github.com/archonlabs/archon/transport"
)

// Handler processes decoded envelopes. Implementations are owned by the
// surrounding agent; the router treats them as opaque.
type Handler interface {
	// HandleCommand executes a fire-and-forget command and returns the
	// payload for the completion event.
	HandleCommand(ctx context.Context, cmd envelope.Command) (json.RawMessage, error)

	// HandleQuery answers a query synchronously.
	HandleQuery(ctx context.Context, q envelope.Query) (json.RawMessage, error)

	// HandleDialog processes one dialog message and returns the agent's
	// reply text.
	HandleDialog(ctx context.Context, msg envelope.DialogMessage) (string, error)
}

// HealthFunc produces the current health response for the health responder.
type HealthFunc func() envelope.HealthResponse

// Options configure a Router.
type Options struct {
	Logger  logging.Logger
	Metrics *metrics.Metrics
}

// Router runs one subscription loop per subject class. Each loop is
// independent; a failure in one does not affect the others.
type Router struct {
	bus      transport.Bus
	subjects transport.Subjects
	handler  Handler
	identity core.ServiceIdentity
	logger   logging.Logger
	metrics  *metrics.Metrics
}

// New constructs a Router with optional overrides.
func New(bus transport.Bus, subjects transport.Subjects, handler Handler, identity core.ServiceIdentity, optFns ...func(o *Options)) *Router {
	opts := Options{
		Logger:  logging.NoOpLogger{},
		Metrics: metrics.New(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Router{
		bus:      bus,
		subjects: subjects,
		handler:  handler,
		identity: identity,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
}

// RunCommandLoop consumes commands until the context is cancelled. For
// every valid command exactly one event is published: completed or failed.
func (r *Router) RunCommandLoop(ctx context.Context) error {
	sub, err := r.bus.Subscribe(r.subjects.Commands())
	if err != nil {
		return err
	}
	defer func() { _ = sub.Unsubscribe() }()

	log := logging.With(r.logger, "component", "command_loop")
	log.Info("listening for commands", "subject", r.subjects.Commands())

	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-sub.Messages():
			r.handleCommandMsg(ctx, log, m)
		}
	}
}

func (r *Router) handleCommandMsg(ctx context.Context, log logging.Logger, m *transport.Msg) {
	cmd, err := envelope.DecodeCommand(m.Data)
	if err != nil {
		// Malformed input is unrecoverable and not attributable to a
		// requester: log and drop, no event.
		log.Error("failed to parse command", "subject", m.Subject, "error", err)
		r.metrics.CommandsTotal.WithLabelValues("invalid", metrics.OutcomeDropped).Inc()
		return
	}

	log.Debug("received command", "command_type", cmd.CommandType, "command_id", cmd.ID)

	result, err := r.handler.HandleCommand(ctx, cmd)
	if err != nil {
		log.Error("command handler error", "command_type", cmd.CommandType, "command_id", cmd.ID, "error", err)
		payload, _ := json.Marshal(map[string]string{
			"error":      err.Error(),
			"command_id": cmd.ID,
		})
		ev := envelope.NewEvent(cmd.FailedEventType(), payload, r.identity.AgentID)
		r.publishEvent(log, r.subjects.EventError(), ev)
		r.metrics.CommandsTotal.WithLabelValues(cmd.CommandType, metrics.OutcomeFailed).Inc()
		return
	}

	ev := envelope.NewEvent(cmd.CompletedEventType(), result, r.identity.AgentID)
	r.publishEvent(log, r.subjects.Event(cmd.CommandType), ev)
	r.metrics.CommandsTotal.WithLabelValues(cmd.CommandType, metrics.OutcomeCompleted).Inc()
}

func (r *Router) publishEvent(log logging.Logger, subject string, ev envelope.Event) {
	data, err := envelope.Encode(ev)
	if err != nil {
		log.Error("failed to encode event", "event_type", ev.EventType, "error", err)
		return
	}
	if err := r.bus.Publish(subject, data); err != nil {
		log.Error("failed to publish event", "subject", subject, "error", err)
		return
	}
	r.metrics.EventsPublishedTotal.Inc()
}

// RunQueryLoop consumes queries until the context is cancelled. Every
// correctly framed query receives exactly one reply, success or structured
// error.
func (r *Router) RunQueryLoop(ctx context.Context) error {
	sub, err := r.bus.Subscribe(r.subjects.Queries())
	if err != nil {
		return err
	}
	defer func() { _ = sub.Unsubscribe() }()

	log := logging.With(r.logger, "component", "query_loop")
	log.Info("listening for queries", "subject", r.subjects.Queries())

	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-sub.Messages():
			r.handleQueryMsg(ctx, log, m)
		}
	}
}

func (r *Router) handleQueryMsg(ctx context.Context, log logging.Logger, m *transport.Msg) {
	if m.Reply == "" {
		// A query with no reply address cannot be answered; this is a
		// protocol violation, not a retryable condition.
		log.Debug("query without reply address skipped", "subject", m.Subject)
		return
	}

	q, err := envelope.DecodeQuery(m.Data)
	if err != nil {
		log.Error("failed to parse query", "subject", m.Subject, "error", err)
		r.reply(log, m.Reply, envelope.QueryReply{Success: false, Error: "Invalid query format"})
		r.metrics.QueriesTotal.WithLabelValues("invalid", metrics.OutcomeFailed).Inc()
		return
	}

	log.Debug("received query", "query_type", q.QueryType, "query_id", q.ID)

	result, err := r.handler.HandleQuery(ctx, q)
	if err != nil {
		r.reply(log, m.Reply, envelope.QueryReply{Success: false, Error: err.Error()})
		r.metrics.QueriesTotal.WithLabelValues(q.QueryType, metrics.OutcomeFailed).Inc()
		return
	}
	r.reply(log, m.Reply, envelope.QueryReply{Success: true, Result: result})
	r.metrics.QueriesTotal.WithLabelValues(q.QueryType, metrics.OutcomeCompleted).Inc()
}

func (r *Router) reply(log logging.Logger, replySubject string, reply envelope.QueryReply) {
	data, err := envelope.Encode(reply)
	if err != nil {
		log.Error("failed to encode query reply", "error", err)
		return
	}
	if err := r.bus.Publish(replySubject, data); err != nil {
		log.Error("failed to send query reply", "subject", replySubject, "error", err)
	}
}

// RunDialogLoop consumes dialog messages until the context is cancelled.
// Replies are published on the per-dialog response subject; decode and
// handler failures are logged and dropped, dialog is fire-and-forget.
func (r *Router) RunDialogLoop(ctx context.Context) error {
	sub, err := r.bus.Subscribe(r.subjects.Dialogs())
	if err != nil {
		return err
	}
	defer func() { _ = sub.Unsubscribe() }()

	log := logging.With(r.logger, "component", "dialog_loop")
	log.Info("listening for dialog messages", "subject", r.subjects.Dialogs())

	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-sub.Messages():
			// The agent's own replies land in the same subject tree.
			if strings.HasSuffix(m.Subject, ".response") {
				continue
			}
			r.handleDialogMsg(ctx, log, m)
		}
	}
}

func (r *Router) handleDialogMsg(ctx context.Context, log logging.Logger, m *transport.Msg) {
	msg, err := envelope.DecodeDialogMessage(m.Data)
	if err != nil {
		log.Error("failed to parse dialog message", "subject", m.Subject, "error", err)
		r.metrics.DialogMessagesTotal.WithLabelValues(metrics.OutcomeDropped).Inc()
		return
	}

	log.Debug("received dialog message", "dialog_id", msg.DialogID, "sender", msg.Sender)

	text, err := r.handler.HandleDialog(ctx, msg)
	if err != nil {
		log.Error("dialog handler error", "dialog_id", msg.DialogID, "error", err)
		r.metrics.DialogMessagesTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		return
	}

	out := envelope.DialogMessage{
		DialogID:  msg.DialogID,
		Content:   text,
		Sender:    r.identity.Name,
		Timestamp: time.Now().UTC(),
	}
	data, err := envelope.Encode(out)
	if err != nil {
		log.Error("failed to encode dialog reply", "dialog_id", msg.DialogID, "error", err)
		return
	}
	if err := r.bus.Publish(r.subjects.DialogResponse(msg.DialogID), data); err != nil {
		log.Error("failed to publish dialog reply", "dialog_id", msg.DialogID, "error", err)
		return
	}
	r.metrics.DialogMessagesTotal.WithLabelValues(metrics.OutcomeCompleted).Inc()
}

// RunHealthLoop answers health check requests until the context is
// cancelled. Requests without a reply address are ignored.
func (r *Router) RunHealthLoop(ctx context.Context, health HealthFunc) error {
	sub, err := r.bus.Subscribe(r.subjects.Health())
	if err != nil {
		return err
	}
	defer func() { _ = sub.Unsubscribe() }()

	log := logging.With(r.logger, "component", "health_loop")
	log.Info("health check endpoint active", "subject", r.subjects.Health())

	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-sub.Messages():
			if m.Reply == "" {
				continue
			}
			data, err := envelope.Encode(health())
			if err != nil {
				log.Error("failed to encode health response", "error", err)
				continue
			}
			if err := r.bus.Publish(m.Reply, data); err != nil {
				log.Error("failed to send health response", "error", err)
			}
		}
	}
}
