package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Companion API metrics
var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jessica",
			Subsystem: "companion_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jessica",
			Subsystem: "companion_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	// Turn outcomes: done, auth_failed, model_failed
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jessica",
			Subsystem: "companion_api",
			Name:      "turns_total",
			Help:      "Chat turns by terminal outcome",
		},
		[]string{"outcome"},
	)

	ModelLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "jessica",
			Subsystem: "companion_api",
			Name:      "model_latency_seconds",
			Help:      "Chat completion round trip in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 75},
		},
	)

	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jessica",
			Subsystem: "companion_api",
			Name:      "tool_calls_total",
			Help:      "Total tool invocations requested by the model",
		},
		[]string{"tool_name", "status"},
	)

	ToolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jessica",
			Subsystem: "companion_api",
			Name:      "tool_duration_seconds",
			Help:      "Tool execution duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"tool_name"},
	)

	MemorySavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jessica",
			Subsystem: "companion_api",
			Name:      "memory_saves_total",
			Help:      "Memory writes split by inserted or merged",
		},
		[]string{"mode"},
	)

	ContextReadFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jessica",
			Subsystem: "companion_api",
			Name:      "context_read_failures_total",
			Help:      "Context reads that failed and were replaced with empty sets",
		},
		[]string{"source"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordTurn records the terminal outcome of a turn
func RecordTurn(outcome string) {
	TurnsTotal.WithLabelValues(outcome).Inc()
}

// RecordModelLatency records a chat completion round trip
func RecordModelLatency(durationSec float64) {
	ModelLatency.Observe(durationSec)
}

// RecordToolCall records a tool invocation
func RecordToolCall(toolName, status string, durationSec float64) {
	ToolCallsTotal.WithLabelValues(toolName, status).Inc()
	ToolDuration.WithLabelValues(toolName).Observe(durationSec)
}

// RecordMemorySave records a memory write, mode is inserted or merged
func RecordMemorySave(mode string) {
	MemorySavesTotal.WithLabelValues(mode).Inc()
}

// RecordContextReadFailure records a soft-failed context read
func RecordContextReadFailure(source string) {
	ContextReadFailures.WithLabelValues(source).Inc()
}
