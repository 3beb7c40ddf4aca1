package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talentsphere/corelink-go/internal/reliability"
)

// Standard headers stamped on every outbound call.
const (
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderRequestID     = "X-Request-ID"
	HeaderServiceName   = "X-Service-Name"
)

const (
	// DefaultTimeout is the per-attempt wall-clock deadline.
	DefaultTimeout = 10 * time.Second
	// DefaultMaxRetries is the total attempt budget (not additional retries).
	DefaultMaxRetries = 3
	// DefaultRetryDelay is the base backoff delay between attempts.
	DefaultRetryDelay = 1 * time.Second
	// MaxBackoff caps the exponential backoff delay.
	MaxBackoff = 30 * time.Second

	defaultUserAgent = "corelink-service-client/1.0"
)

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

// Doer executes a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestConfig describes one logical outbound call.
type RequestConfig struct {
	Method        string
	Path          string
	Params        map[string]string
	Body          interface{}
	Headers       map[string]string
	Token         string
	CorrelationID string
}

// Response is the decoded result of a successful call.
type Response struct {
	Data           interface{}
	Status         int
	StatusText     string
	Headers        http.Header
	ResponseTimeMs int64
	CorrelationID  string
}

// Client makes HTTP calls to named peer services with bounded, observable,
// retried execution. A Client is safe for concurrent use and intended to be
// constructed once per process and shared across request-handling flows.
type Client struct {
	serviceName string
	registry    *Registry
	httpClient  Doer
	timeout     time.Duration
	maxRetries  int
	retryDelay  time.Duration
	userAgent   string
	logger      *slog.Logger
	metrics     *Metrics
	listeners   []TraceListener
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP transport.
func WithHTTPClient(doer Doer) ClientOption {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithTimeout sets the per-attempt deadline.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithMaxRetries sets the total attempt budget.
func WithMaxRetries(maxRetries int) ClientOption {
	return func(c *Client) {
		c.maxRetries = maxRetries
	}
}

// WithRetryDelay sets the base backoff delay.
func WithRetryDelay(delay time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = delay
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTraceListener registers a listener for per-attempt trace events.
func WithTraceListener(listener TraceListener) ClientOption {
	return func(c *Client) {
		c.listeners = append(c.listeners, listener)
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// NewClient creates a service client. serviceName is the calling service's
// own name, stamped as X-Service-Name on every outbound request.
func NewClient(serviceName string, registry *Registry, options ...ClientOption) *Client {
	c := &Client{
		serviceName: serviceName,
		registry:    registry,
		httpClient:  &http.Client{},
		timeout:     DefaultTimeout,
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		userAgent:   defaultUserAgent,
		logger:      slog.Default(),
		metrics:     &Metrics{},
	}

	for _, opt := range options {
		opt(c)
	}

	if c.registry == nil {
		c.registry = NewRegistry()
	}

	return c
}

// Metrics returns a snapshot of the aggregate call counters.
func (c *Client) Metrics() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// Get issues a GET request to a peer service.
func (c *Client) Get(ctx context.Context, service, path string, cfg RequestConfig) (*Response, error) {
	cfg.Method = http.MethodGet
	cfg.Path = path
	return c.Request(ctx, service, cfg)
}

// Post issues a POST request to a peer service.
func (c *Client) Post(ctx context.Context, service, path string, cfg RequestConfig) (*Response, error) {
	cfg.Method = http.MethodPost
	cfg.Path = path
	return c.Request(ctx, service, cfg)
}

// Put issues a PUT request to a peer service.
func (c *Client) Put(ctx context.Context, service, path string, cfg RequestConfig) (*Response, error) {
	cfg.Method = http.MethodPut
	cfg.Path = path
	return c.Request(ctx, service, cfg)
}

// Delete issues a DELETE request to a peer service.
func (c *Client) Delete(ctx context.Context, service, path string, cfg RequestConfig) (*Response, error) {
	cfg.Method = http.MethodDelete
	cfg.Path = path
	return c.Request(ctx, service, cfg)
}

// Request executes one logical call with retries. A terminal failure is
// returned as a single *ServiceError wrapping the last underlying error; the
// caller never sees individual attempts. RPC failure is an expected outcome
// the domain caller must handle.
func (c *Client) Request(ctx context.Context, service string, cfg RequestConfig) (*Response, error) {
	// Caller errors fail fast: no network call, no retry, no metrics.
	if strings.TrimSpace(service) == "" {
		return nil, ErrMissingServiceName
	}
	if !allowedMethods[cfg.Method] {
		return nil, ErrInvalidMethod
	}
	if cfg.Path == "" {
		return nil, ErrMissingPath
	}

	var body []byte
	if cfg.Body != nil {
		var err error
		body, err = json.Marshal(cfg.Body)
		if err != nil {
			return nil, err
		}
	}

	correlationID := cfg.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	targetURL := c.buildURL(service, cfg)

	c.metrics.recordCall()

	trace := RequestTrace{
		CorrelationID: correlationID,
		ServiceName:   service,
		URL:           targetURL,
		Method:        cfg.Method,
		StartedAt:     time.Now(),
		Status:        TraceStatusPending,
	}
	c.emit(TraceRequestStart, trace)

	policy := reliability.NewExponentialBackoff(c.retryDelay, MaxBackoff, 2.0, c.maxRetries-1)

	var resp *Response
	attempt := 0

	err := reliability.Retry(ctx, policy, func() error {
		attempt++
		trace.Attempt = attempt
		trace.RequestID = uuid.New().String()

		if attempt > 1 {
			c.metrics.recordRetry(service)
			c.emit(TraceRequestRetry, trace)
		}

		r, err := c.doAttempt(ctx, targetURL, cfg, body, correlationID, trace.RequestID)
		if err != nil {
			trace.Err = err
			return err
		}

		resp = r
		return nil
	})

	elapsed := time.Since(trace.StartedAt).Milliseconds()
	trace.ResponseTimeMs = elapsed

	if err != nil {
		trace.Status = TraceStatusFailed
		trace.Err = err
		c.metrics.recordFailure(service)
		c.emit(TraceRequestError, trace)

		c.logger.Error("service request failed",
			"service", service,
			"method", cfg.Method,
			"url", targetURL,
			"attempts", attempt,
			"correlationId", correlationID,
			"error", err)

		return nil, &ServiceError{Service: service, Attempts: attempt, Err: err}
	}

	trace.Status = TraceStatusSuccess
	trace.Err = nil
	c.metrics.recordSuccess(service, elapsed)
	c.emit(TraceRequestComplete, trace)

	resp.ResponseTimeMs = elapsed
	resp.CorrelationID = correlationID
	return resp, nil
}

// doAttempt executes one HTTP attempt under its own deadline.
func (c *Client) doAttempt(ctx context.Context, targetURL string, cfg RequestConfig, body []byte, correlationID, requestID string) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(attemptCtx, cfg.Method, targetURL, reader)
	if err != nil {
		return nil, reliability.RetryableError{Err: err, Retryable: false}
	}

	c.setHeaders(req, cfg, correlationID, requestID)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		// Network errors and timeouts are retryable; the aborted attempt
		// counts against the budget, it is not swallowed.
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		httpErr := &HTTPError{
			Status:     httpResp.StatusCode,
			StatusText: http.StatusText(httpResp.StatusCode),
			Body:       string(respBody),
		}
		// 5xx is transient; 4xx means the request itself is wrong and
		// repeating it cannot help.
		return nil, reliability.RetryableError{
			Err:       httpErr,
			Retryable: httpResp.StatusCode >= 500,
		}
	}

	return &Response{
		Data:       c.parseBody(httpResp.Header.Get("Content-Type"), respBody),
		Status:     httpResp.StatusCode,
		StatusText: http.StatusText(httpResp.StatusCode),
		Headers:    httpResp.Header,
	}, nil
}

func (c *Client) setHeaders(req *http.Request, cfg RequestConfig, correlationID, requestID string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	req.Header.Set(HeaderCorrelationID, correlationID)
	req.Header.Set(HeaderRequestID, requestID)
	req.Header.Set(HeaderServiceName, c.serviceName)
}

func (c *Client) buildURL(service string, cfg RequestConfig) string {
	base := c.registry.BaseURL(service)
	path := cfg.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	target := base + path
	if len(cfg.Params) > 0 {
		values := url.Values{}
		for k, v := range cfg.Params {
			values.Set(k, v)
		}
		target += "?" + values.Encode()
	}
	return target
}

// parseBody decodes JSON responses; anything else is returned as raw text.
// A JSON body that fails to decode yields nil Data, not an error.
func (c *Client) parseBody(contentType string, body []byte) interface{} {
	if len(body) == 0 {
		return nil
	}

	if strings.Contains(contentType, "application/json") {
		var data interface{}
		if err := json.Unmarshal(body, &data); err != nil {
			c.logger.Warn("failed to parse JSON response body", "error", err)
			return nil
		}
		return data
	}

	return string(body)
}

func (c *Client) emit(event TraceEvent, trace RequestTrace) {
	for _, listener := range c.listeners {
		listener.OnTrace(event, trace)
	}
}
