package rpc

import (
	"log/slog"
	"time"
)

// TraceEvent identifies a point in an outbound call's lifecycle.
type TraceEvent string

const (
	TraceRequestStart    TraceEvent = "request:start"
	TraceRequestRetry    TraceEvent = "request:retry"
	TraceRequestComplete TraceEvent = "request:complete"
	TraceRequestError    TraceEvent = "request:error"
)

// TraceStatus is the terminal disposition of a request trace.
type TraceStatus string

const (
	TraceStatusPending TraceStatus = "pending"
	TraceStatusSuccess TraceStatus = "success"
	TraceStatusFailed  TraceStatus = "failed"
)

// RequestTrace describes one outbound service call. It is created at call
// start, updated once per retry attempt, and finalized on success or
// exhausted-retries failure. Traces are handed to listeners and then only
// aggregated into metrics; individual traces are not retained.
type RequestTrace struct {
	CorrelationID  string
	RequestID      string
	ServiceName    string
	URL            string
	Method         string
	Attempt        int
	StartedAt      time.Time
	Status         TraceStatus
	ResponseTimeMs int64
	Err            error
}

// TraceListener receives per-attempt trace events. Implementations must be
// safe for concurrent use; they are invoked inline on the calling flow.
type TraceListener interface {
	OnTrace(event TraceEvent, trace RequestTrace)
}

// LoggingTraceListener writes trace events to a structured logger.
type LoggingTraceListener struct {
	Logger *slog.Logger
}

// OnTrace implements TraceListener.
func (l LoggingTraceListener) OnTrace(event TraceEvent, trace RequestTrace) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []interface{}{
		"service", trace.ServiceName,
		"method", trace.Method,
		"url", trace.URL,
		"attempt", trace.Attempt,
		"correlationId", trace.CorrelationID,
		"requestId", trace.RequestID,
	}

	switch event {
	case TraceRequestError:
		logger.Error("rpc "+string(event), append(attrs, "error", trace.Err)...)
	case TraceRequestRetry:
		logger.Warn("rpc "+string(event), append(attrs, "error", trace.Err)...)
	default:
		logger.Debug("rpc "+string(event), append(attrs, "responseTimeMs", trace.ResponseTimeMs)...)
	}
}
