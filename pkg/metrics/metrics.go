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

	// UtterancesTotal tracks routed utterances by the rule that handled them.
	UtterancesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_utterances_total",
			Help: "Total utterances routed, by matching rule",
		},
		[]string{"rule"},
	)

	// RouteDuration tracks how long a single utterance takes to route.
	RouteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assistant_route_duration_seconds",
			Help:    "Utterance routing duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	// GatewayFailuresTotal tracks failed gateway calls.
	GatewayFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_gateway_failures_total",
			Help: "Total failed domain gateway calls",
		},
		[]string{"operation"},
	)

	// SummariesTotal tracks meeting summarizations by outcome.
	SummariesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summarizer_summaries_total",
			Help: "Total meeting summarizations",
		},
		[]string{"outcome"},
	)

	// LLMDuration tracks LLM completion duration.
	LLMDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_completion_duration_seconds",
			Help:    "LLM completion duration",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"model", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// VoiceSessionsActive tracks connected voice sessions.
	VoiceSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "voice_sessions_active",
			Help: "Number of connected voice sessions",
		},
	)

	// RecognitionErrorsTotal tracks recognition errors by code.
	RecognitionErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_recognition_errors_total",
			Help: "Total speech recognition errors",
		},
		[]string{"code"},
	)

	// EventsPublishedTotal tracks activity events published to the stream.
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_events_published_total",
			Help: "Activity events published to JetStream",
		},
		[]string{"kind", "status"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordRoute records metrics for a routed utterance.
func RecordRoute(rule string, duration float64) {
	UtterancesTotal.WithLabelValues(rule).Inc()
	RouteDuration.Observe(duration)
}

// RecordLLMCompletion records metrics for an LLM completion.
func RecordLLMCompletion(model, status string, duration float64, tokensIn, tokensOut int) {
	LLMDuration.WithLabelValues(model, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// IncrementVoiceSessions increments the connected voice session count.
func IncrementVoiceSessions() {
	VoiceSessionsActive.Inc()
}

// DecrementVoiceSessions decrements the connected voice session count.
func DecrementVoiceSessions() {
	VoiceSessionsActive.Dec()
}
