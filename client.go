package corelink

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/talentsphere/corelink-go/config"
	"github.com/talentsphere/corelink-go/events"
	"github.com/talentsphere/corelink-go/rpc"
)

// ConfigurationError reports the validation failures that blocked client
// construction.
type ConfigurationError struct {
	Service string
	Fields  []config.FieldError
}

func (e *ConfigurationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("invalid configuration for service %s: %s", e.Service, strings.Join(msgs, "; "))
}

// Client is the single entry point a service constructs at startup: a
// validated configuration, a peer registry, a resilient HTTP client, and an
// event publisher, built once and shared across request handlers.
type Client struct {
	serviceName string
	cfg         *config.Config
	registry    *rpc.Registry
	rpc         *rpc.Client
	events      *events.Publisher
}

// clientConfig holds construction-time settings.
type clientConfig struct {
	serviceName      string
	logger           *slog.Logger
	validator        *config.Validator
	eventing         bool
	registryOptions  []rpc.RegistryOption
	rpcOptions       []rpc.ClientOption
	publisherOptions []events.PublisherOption
}

// ClientOption configures the client.
type ClientOption func(*clientConfig)

// WithServiceName sets the calling service's own name, used for envelope
// source and the X-Service-Name header.
func WithServiceName(name string) ClientOption {
	return func(cfg *clientConfig) {
		cfg.serviceName = name
	}
}

// WithLogger sets the logger for all components.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(cfg *clientConfig) {
		cfg.logger = logger
	}
}

// WithValidator substitutes the configuration validator, mainly for tests.
func WithValidator(v *config.Validator) ClientOption {
	return func(cfg *clientConfig) {
		cfg.validator = v
	}
}

// WithoutEvents skips publisher construction for services that only make
// RPC calls.
func WithoutEvents() ClientOption {
	return func(cfg *clientConfig) {
		cfg.eventing = false
	}
}

// WithRegistryOptions forwards options to the peer registry.
func WithRegistryOptions(options ...rpc.RegistryOption) ClientOption {
	return func(cfg *clientConfig) {
		cfg.registryOptions = append(cfg.registryOptions, options...)
	}
}

// WithRPCOptions forwards options to the HTTP service client.
func WithRPCOptions(options ...rpc.ClientOption) ClientOption {
	return func(cfg *clientConfig) {
		cfg.rpcOptions = append(cfg.rpcOptions, options...)
	}
}

// WithPublisherOptions forwards options to the event publisher.
func WithPublisherOptions(options ...events.PublisherOption) ClientOption {
	return func(cfg *clientConfig) {
		cfg.publisherOptions = append(cfg.publisherOptions, options...)
	}
}

// criticalFields are the validation failures that refuse startup. Everything
// else is logged and falls back to package defaults.
var criticalFields = map[string]bool{
	"SERVICE_NAME": true,
	"JWT_SECRET":   true,
}

var brokerFields = map[string]bool{
	"RABBITMQ_HOST":     true,
	"RABBITMQ_PORT":     true,
	"RABBITMQ_USER":     true,
	"RABBITMQ_PASSWORD": true,
}

// NewClient validates the environment for serviceName and builds the
// registry, service client, and publisher from the result. A broker that
// is down does not fail construction; the publisher degrades. Validation
// failures on critical fields (the service's identity, required secrets, and
// broker coordinates when eventing is enabled) do fail construction; any
// other failure is logged and the affected field keeps its default.
func NewClient(ctx context.Context, options ...ClientOption) (*Client, error) {
	cc := &clientConfig{
		logger:   slog.Default(),
		eventing: true,
	}
	for _, opt := range options {
		opt(cc)
	}
	if cc.validator == nil {
		cc.validator = config.NewValidator(config.WithValidatorLogger(cc.logger))
	}

	result := cc.validator.Validate(cc.serviceName)

	var fatal []config.FieldError
	for _, fieldErr := range result.Errors {
		if criticalFields[fieldErr.Field] || (cc.eventing && brokerFields[fieldErr.Field]) {
			fatal = append(fatal, fieldErr)
			continue
		}
		cc.logger.Warn("ignoring invalid configuration field, using default",
			"service", cc.serviceName,
			"field", fieldErr.Field,
			"reason", fieldErr.Message)
	}
	if len(fatal) > 0 {
		return nil, &ConfigurationError{Service: cc.serviceName, Fields: fatal}
	}
	for _, w := range result.Warnings {
		cc.logger.Debug("configuration default applied", "service", cc.serviceName, "detail", w)
	}

	cfg := result.Config
	registry := rpc.NewRegistry(cc.registryOptions...)

	rpcOpts := []rpc.ClientOption{rpc.WithClientLogger(cc.logger)}
	if cfg.HTTPTimeout > 0 {
		rpcOpts = append(rpcOpts, rpc.WithTimeout(cfg.HTTPTimeout))
	}
	if cfg.MaxRetries > 0 {
		rpcOpts = append(rpcOpts, rpc.WithMaxRetries(cfg.MaxRetries))
	}
	if cfg.RetryDelay > 0 {
		rpcOpts = append(rpcOpts, rpc.WithRetryDelay(cfg.RetryDelay))
	}
	rpcOpts = append(rpcOpts, cc.rpcOptions...)
	serviceClient := rpc.NewClient(cfg.ServiceName, registry, rpcOpts...)

	client := &Client{
		serviceName: cfg.ServiceName,
		cfg:         cfg,
		registry:    registry,
		rpc:         serviceClient,
	}

	if cc.eventing {
		pubOpts := []events.PublisherOption{
			events.WithSource(cfg.ServiceName),
			events.WithPublisherLogger(cc.logger),
		}
		if cfg.ExchangeName != "" {
			pubOpts = append(pubOpts, events.WithExchange(cfg.ExchangeName))
		}
		pubOpts = append(pubOpts, cc.publisherOptions...)
		client.events = events.NewPublisher(ctx, cfg.AMQPURL(), pubOpts...)
	}

	return client, nil
}

// Events returns the event publisher, or nil when eventing is disabled.
func (c *Client) Events() *events.Publisher {
	return c.events
}

// RPC returns the resilient HTTP service client.
func (c *Client) RPC() *rpc.Client {
	return c.rpc
}

// Registry returns the peer service registry.
func (c *Client) Registry() *rpc.Registry {
	return c.registry
}

// Config returns the validated configuration the client was built from.
func (c *Client) Config() *config.Config {
	return c.cfg
}

// ServiceName returns the calling service's own name.
func (c *Client) ServiceName() string {
	return c.serviceName
}

// Close releases broker resources. Idempotent, never returns transport
// teardown errors.
func (c *Client) Close() error {
	if c.events != nil {
		c.events.Close()
	}
	return nil
}
