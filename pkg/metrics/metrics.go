// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ConversationsTotal tracks conversations created per tenant.
	ConversationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversations_total",
			Help: "Total conversations created",
		},
		[]string{"organization_id"},
	)

	// ConversationStatusTransitions tracks status transitions by target.
	ConversationStatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_status_transitions_total",
			Help: "Conversation status transitions by resulting status",
		},
		[]string{"status"},
	)

	// MessagesTotal tracks thread messages appended, by tenant and role.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total thread messages appended",
		},
		[]string{"organization_id", "role"},
	)

	// AgentGenerations tracks agent generation outcomes.
	AgentGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_generations_total",
			Help: "Agent generation calls by outcome",
		},
		[]string{"status"},
	)

	// AgentToolCalls tracks committed agent tool invocations.
	AgentToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_tool_calls_total",
			Help: "Agent tool invocations applied to conversations",
		},
		[]string{"tool"},
	)

	// FileUploadsTotal tracks knowledge uploads by outcome
	// (created, duplicate, error).
	FileUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_uploads_total",
			Help: "Knowledge file uploads by outcome",
		},
		[]string{"outcome"},
	)

	// LLMLatency tracks model call latency.
	LLMLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "LLM request duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"model", "status"},
	)

	// LLMTokensTotal tracks tokens processed by direction.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordLLMCall records metrics for one model invocation.
func RecordLLMCall(model, status string, duration float64, tokensIn, tokensOut int) {
	LLMLatency.WithLabelValues(model, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}
