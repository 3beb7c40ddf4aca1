package rpc

import (
	"math"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rpcRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corelink_rpc_requests_total",
			Help: "Total number of terminal outbound service calls",
		},
		[]string{"service", "status"}, // status: success, failed
	)

	rpcRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "corelink_rpc_request_duration_seconds",
			Help:    "Outbound service call latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service"},
	)

	rpcRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corelink_rpc_retries_total",
			Help: "Total number of retry attempts for outbound service calls",
		},
		[]string{"service"},
	)
)

// Metrics accumulates per-client call statistics for the process lifetime.
// Counters are monotonic and reset only on process restart. One logical call
// counts once regardless of how many attempts it took.
type Metrics struct {
	mu                  sync.Mutex
	totalRequests       uint64
	successfulRequests  uint64
	failedRequests      uint64
	totalResponseTimeMs int64
}

// MetricsSnapshot is a point-in-time copy of the client counters with the
// derived rates computed.
type MetricsSnapshot struct {
	TotalRequests         uint64
	SuccessfulRequests    uint64
	FailedRequests        uint64
	TotalResponseTimeMs   int64
	AverageResponseTimeMs float64
	SuccessRatePercent    float64
}

func (m *Metrics) recordCall() {
	m.mu.Lock()
	m.totalRequests++
	m.mu.Unlock()
}

func (m *Metrics) recordSuccess(service string, responseTimeMs int64) {
	m.mu.Lock()
	m.successfulRequests++
	m.totalResponseTimeMs += responseTimeMs
	m.mu.Unlock()

	rpcRequestsTotal.WithLabelValues(service, "success").Inc()
	rpcRequestDuration.WithLabelValues(service).Observe(float64(responseTimeMs) / 1000)
}

func (m *Metrics) recordFailure(service string) {
	m.mu.Lock()
	m.failedRequests++
	m.mu.Unlock()

	rpcRequestsTotal.WithLabelValues(service, "failed").Inc()
}

func (m *Metrics) recordRetry(service string) {
	rpcRetriesTotal.WithLabelValues(service).Inc()
}

// Snapshot returns a consistent copy of the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		TotalRequests:       m.totalRequests,
		SuccessfulRequests:  m.successfulRequests,
		FailedRequests:      m.failedRequests,
		TotalResponseTimeMs: m.totalResponseTimeMs,
	}

	if m.totalRequests > 0 {
		snap.AverageResponseTimeMs = float64(m.totalResponseTimeMs) / float64(m.totalRequests)
		snap.SuccessRatePercent = math.Round(float64(m.successfulRequests) / float64(m.totalRequests) * 100)
	}

	return snap
}
