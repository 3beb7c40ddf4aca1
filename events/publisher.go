package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/talentsphere/corelink-go/contracts"
	"github.com/talentsphere/corelink-go/internal/rabbitmq"
)

// DefaultExchange is the platform event exchange.
const DefaultExchange = "talentsphere.events"

// DefaultConnectTimeout bounds the startup connection attempt.
const DefaultConnectTimeout = 5 * time.Second

// publishChannel is the subset of amqp.Channel the publisher uses.
type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher delivers fire-and-forget, at-least-once notifications of domain
// facts to a durable topic exchange. A Publisher whose broker is unreachable
// at construction enters degraded mode: publishes are logged and dropped,
// never surfaced to the caller. Construction itself never fails because the
// broker is down.
//
// A Publisher is safe for concurrent use and intended to be constructed once
// per process.
type Publisher struct {
	manager        *rabbitmq.ConnectionManager
	channel        publishChannel
	exchange       string
	source         string
	connectTimeout time.Duration
	logger         *slog.Logger
	state          atomic.Int32
	published      atomic.Uint64
	dropped        atomic.Uint64
	mu             sync.Mutex
	closed         bool
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithExchange overrides the event exchange name.
func WithExchange(exchange string) PublisherOption {
	return func(p *Publisher) {
		p.exchange = exchange
	}
}

// WithSource sets the publishing service name stamped on every envelope.
func WithSource(source string) PublisherOption {
	return func(p *Publisher) {
		p.source = source
	}
}

// WithPublisherLogger sets the logger.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithConnectTimeout bounds the startup connection attempt.
func WithConnectTimeout(timeout time.Duration) PublisherOption {
	return func(p *Publisher) {
		p.connectTimeout = timeout
	}
}

// NewPublisher connects to the broker, opens a channel, and declares the
// durable topic exchange. On any failure (network, auth, declare) it logs a
// warning and returns a degraded publisher instead of an error: the owning
// service must never fail to start because the event bus is down.
func NewPublisher(ctx context.Context, amqpURL string, options ...PublisherOption) *Publisher {
	p := &Publisher{
		exchange:       DefaultExchange,
		source:         "unknown",
		connectTimeout: DefaultConnectTimeout,
		logger:         slog.Default(),
	}

	for _, opt := range options {
		opt(p)
	}

	p.state.Store(int32(StateConnecting))

	p.manager = rabbitmq.NewConnectionManager(amqpURL,
		rabbitmq.WithLogger(p.logger),
		rabbitmq.WithDialTimeout(p.connectTimeout),
	)

	if err := p.manager.Connect(ctx); err != nil {
		p.logger.Warn("event publisher degraded: broker unreachable",
			"exchange", p.exchange,
			"error", err)
		p.state.Store(int32(StateDegraded))
		return p
	}

	conn, err := p.manager.GetConnection()
	if err != nil {
		p.degrade("connection not ready", err)
		return p
	}

	ch, err := conn.Channel()
	if err != nil {
		p.degrade("failed to open channel", err)
		return p
	}

	if err := rabbitmq.DeclareExchange(ch, rabbitmq.EventExchange(p.exchange)); err != nil {
		ch.Close()
		p.degrade("failed to declare exchange", err)
		return p
	}

	p.channel = ch
	p.state.Store(int32(StateConnected))
	p.logger.Info("event publisher ready",
		"exchange", p.exchange,
		"source", p.source)

	return p
}

func (p *Publisher) degrade(msg string, err error) {
	p.logger.Warn("event publisher degraded: "+msg,
		"exchange", p.exchange,
		"error", err)
	p.state.Store(int32(StateDegraded))
	p.manager.Close()
}

// State returns the current connection state.
func (p *Publisher) State() ConnectionState {
	return ConnectionState(p.state.Load())
}

// Degraded reports whether the publisher is in log-only fallback mode.
func (p *Publisher) Degraded() bool {
	return p.State() == StateDegraded
}

// Published returns the number of events delivered to the channel.
func (p *Publisher) Published() uint64 {
	return p.published.Load()
}

// Dropped returns the number of events dropped in degraded mode or on
// publish-time errors.
func (p *Publisher) Dropped() uint64 {
	return p.dropped.Load()
}

// Publish announces a domain fact. The payload is wrapped in an EventEnvelope
// (eventType = routingKey), serialized to JSON, and published persistent to
// the topic exchange. Publish never returns an error and never blocks beyond
// the publish call itself: failures are logged and the event is dropped.
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload interface{}, opts ...contracts.EnvelopeOption) {
	// Failures are already logged inside TryPublish.
	_ = p.TryPublish(ctx, routingKey, payload, opts...)
}

// PublishAsync publishes without waiting for channel I/O. Use for hot paths
// where even the broker write should not be on the request path.
func (p *Publisher) PublishAsync(routingKey string, payload interface{}, opts ...contracts.EnvelopeOption) {
	go p.Publish(context.Background(), routingKey, payload, opts...)
}

// TryPublish is Publish with the drop made visible: it returns the error that
// Publish would have swallowed. Infrastructure failures still never panic and
// the publisher stays usable for later calls.
func (p *Publisher) TryPublish(ctx context.Context, routingKey string, payload interface{}, opts ...contracts.EnvelopeOption) error {
	env, err := contracts.NewEventEnvelope(routingKey, p.source, payload, opts...)
	if err != nil {
		p.dropped.Add(1)
		p.logger.Error("event dropped: payload not serializable",
			"routingKey", routingKey,
			"error", err)
		return err
	}

	if p.State() != StateConnected {
		p.dropped.Add(1)
		p.logger.Warn("event dropped: publisher degraded",
			"routingKey", routingKey,
			"eventId", env.EventID)
		return fmt.Errorf("publisher degraded, event %s dropped", env.EventID)
	}

	body, err := json.Marshal(env)
	if err != nil {
		p.dropped.Add(1)
		p.logger.Error("event dropped: envelope serialization failed",
			"routingKey", routingKey,
			"error", err)
		return err
	}

	msg := amqp.Publishing{
		Body:          body,
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     env.EventID,
		CorrelationId: env.CorrelationID,
		Timestamp:     env.Timestamp,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.channel == nil {
		p.dropped.Add(1)
		p.logger.Warn("event dropped: publisher closed",
			"routingKey", routingKey,
			"eventId", env.EventID)
		return fmt.Errorf("publisher closed, event %s dropped", env.EventID)
	}

	// A channel error mid-publish does not change state: the next publish
	// may succeed, and a dropped event must never block later calls.
	if err := p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		p.dropped.Add(1)
		p.logger.Error("event dropped: publish failed",
			"routingKey", routingKey,
			"eventId", env.EventID,
			"error", err)
		return fmt.Errorf("failed to publish event %s: %w", env.EventID, err)
	}

	p.published.Add(1)
	p.logger.Debug("event published",
		"routingKey", routingKey,
		"eventId", env.EventID,
		"exchange", p.exchange)

	return nil
}

// Close closes the channel then the connection. Idempotent; teardown errors
// are logged and swallowed.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Debug("error closing channel", "error", err)
		}
		p.channel = nil
	}

	if p.manager != nil {
		if err := p.manager.Close(); err != nil {
			p.logger.Debug("error closing connection", "error", err)
		}
	}

	p.state.Store(int32(StateDisconnected))
}
