package transport

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/archonlabs/archon/config"
	"github.com/archonlabs/archon/core"
	"github.com/archonlabs/archon/logging"
)

// Compile-time interface check.
var _ Bus = (*Conn)(nil)

// DialFunc dials a NATS server list. Overridable in tests.
type DialFunc func(servers string, opts ...nats.Option) (*nats.Conn, error)

// SleepFunc waits between connection attempts, honoring cancellation.
// Overridable in tests.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options configure construction of a Conn.
type Options struct {
	Logger logging.Logger
	Dial   DialFunc
	Sleep  SleepFunc
}

// Conn is the NATS-backed Bus. The underlying connection is established
// once by Connect and shared read-only afterwards; mid-session reconnection
// is handled transparently by the client library, not re-implemented here.
type Conn struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger logging.Logger

	mu   sync.Mutex
	subs []*natsSubscription
}

// Connect establishes the initial connection following the retry policy:
// delay = min(initialDelay x multiplier^attempt, maxDelay), one delay after
// each failed attempt, stopping after maxAttempts with a fatal Transport
// error that callers must not retry.
func Connect(ctx context.Context, cfg config.NATSConfig, optFns ...func(o *Options)) (*Conn, error) {
	opts := Options{
		Logger: logging.NoOpLogger{},
		Dial:   nats.Connect,
		Sleep:  sleepCtx,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	natsOpts, err := authOptions(cfg.Auth)
	if err != nil {
		return nil, err
	}
	natsOpts = append(natsOpts, nats.Name("archon-agent"))

	servers := strings.Join(cfg.Servers, ",")

	var nc *nats.Conn
	var lastErr error
	for attempt := 0; attempt < cfg.Retry.MaxAttempts; attempt++ {
		nc, lastErr = opts.Dial(servers, natsOpts...)
		if lastErr == nil {
			break
		}
		delay := backoffDelay(cfg.Retry, attempt)
		opts.Logger.Warn("bus connect failed",
			"attempt", attempt+1,
			"max_attempts", cfg.Retry.MaxAttempts,
			"retry_in", delay.String(),
			"error", lastErr)
		if err := opts.Sleep(ctx, delay); err != nil {
			return nil, core.Wrap(core.KindTransport, "connect aborted", err)
		}
	}
	if lastErr != nil {
		return nil, core.Wrap(core.KindTransport, "connect failed after all attempts", lastErr)
	}

	conn := &Conn{nc: nc, logger: opts.Logger}

	if cfg.JetStream != nil {
		if err := conn.provisionStream(ctx, cfg); err != nil {
			// Stream provisioning is best effort: the durable guarantee is
			// external and a core-only NATS server still serves all traffic.
			opts.Logger.Warn("jetstream provisioning failed", "error", err)
		}
	}

	opts.Logger.Info("connected to bus", "servers", servers)
	return conn, nil
}

// backoffDelay computes the capped exponential delay for a 0-based attempt.
func backoffDelay(p config.RetryPolicy, attempt int) time.Duration {
	d := time.Duration(float64(p.InitialDelay.Std()) * math.Pow(p.Multiplier, float64(attempt)))
	if max := p.MaxDelay.Std(); max > 0 && d > max {
		d = max
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func authOptions(auth *config.AuthConfig) ([]nats.Option, error) {
	if auth == nil {
		return nil, nil
	}
	switch auth.Type {
	case "token":
		return []nats.Option{nats.Token(auth.Token)}, nil
	case "user_password":
		return []nats.Option{nats.UserInfo(auth.Username, auth.Password)}, nil
	case "jwt":
		return []nats.Option{nats.UserJWTAndSeed(auth.JWT, auth.Seed)}, nil
	case "tls":
		return []nats.Option{nats.ClientCert(auth.CertPath, auth.KeyPath)}, nil
	default:
		return nil, core.Errorf(core.KindConfiguration, "unknown nats auth type %q", auth.Type)
	}
}

// provisionStream creates or updates the durable event stream. The dedup
// window bounds how long duplicate message ids are suppressed server-side.
func (c *Conn) provisionStream(ctx context.Context, cfg config.NATSConfig) error {
	js, err := jetstream.New(c.nc)
	if err != nil {
		return err
	}
	subjects := Subjects{Prefix: cfg.SubjectPrefix, DialogPrefix: cfg.DialogPrefix}
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       cfg.JetStream.StreamName,
		Subjects:   []string{subjects.All()},
		Retention:  jetstream.LimitsPolicy,
		Duplicates: cfg.JetStream.DedupeWindow.Std(),
	})
	if err != nil {
		return err
	}
	c.js = js
	return nil
}

// Publish sends a payload on a subject.
func (c *Conn) Publish(subject string, data []byte) error {
	if err := c.nc.Publish(subject, data); err != nil {
		return core.Wrap(core.KindTransport, "publish "+subject, err)
	}
	return nil
}

// Subscribe opens an inbound stream for a subject pattern.
func (c *Conn) Subscribe(subject string) (Subscription, error) {
	inbound := make(chan *nats.Msg, 64)
	sub, err := c.nc.ChanSubscribe(subject, inbound)
	if err != nil {
		return nil, core.Wrap(core.KindTransport, "subscribe "+subject, err)
	}
	ns := &natsSubscription{
		sub:     sub,
		inbound: inbound,
		out:     make(chan *Msg, 64),
		done:    make(chan struct{}),
	}
	go ns.pump()

	c.mu.Lock()
	c.subs = append(c.subs, ns)
	c.mu.Unlock()
	return ns, nil
}

// Request publishes and waits for a single reply within the timeout.
func (c *Conn) Request(ctx context.Context, subject string, data []byte, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	msg, err := c.nc.RequestWithContext(ctx, subject, data)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, nats.ErrTimeout) {
			return nil, core.Errorf(core.KindTimeout, "request to %s timed out after %s", subject, timeout)
		}
		return nil, core.Wrap(core.KindTransport, "request "+subject, err)
	}
	return msg.Data, nil
}

// Close unsubscribes everything and closes the connection.
func (c *Conn) Close() error {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()
	for _, s := range subs {
		_ = s.Unsubscribe()
	}
	c.nc.Close()
	return nil
}

type natsSubscription struct {
	sub     *nats.Subscription
	inbound chan *nats.Msg
	out     chan *Msg
	done    chan struct{}
	once    sync.Once
}

// pump adapts the client library's message type to the transport's.
func (s *natsSubscription) pump() {
	for {
		select {
		case <-s.done:
			return
		case m := <-s.inbound:
			if m == nil {
				return
			}
			select {
			case s.out <- &Msg{Subject: m.Subject, Reply: m.Reply, Data: m.Data}:
			case <-s.done:
				return
			}
		}
	}
}

func (s *natsSubscription) Messages() <-chan *Msg { return s.out }

func (s *natsSubscription) Unsubscribe() error {
	var err error
	s.once.Do(func() {
		err = s.sub.Unsubscribe()
		close(s.done)
	})
	return err
}
