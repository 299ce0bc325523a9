package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint", "status"},
	)
	shardProbesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wb_shard_probes_total",
			Help: "Basket shard probes by host family and outcome.",
		},
		[]string{"family", "outcome"},
	)
	shardLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wb_shard_lookups_total",
			Help: "Shard discovery runs by outcome.",
		},
		[]string{"outcome"},
	)
	outboundRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wb_outbound_requests_total",
			Help: "Outbound requests to Wildberries hosts by status class.",
		},
		[]string{"status"},
	)
	feedbackRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wb_feedback_requests_total",
			Help: "Feedback API calls by host and outcome.",
		},
		[]string{"host", "outcome"},
	)
	feedbacksSavedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wb_feedbacks_saved_total",
			Help: "Bad feedbacks persisted.",
		},
	)
	circuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wb_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		},
		[]string{"name"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(shardProbesTotal)
	prometheus.MustRegister(shardLookupsTotal)
	prometheus.MustRegister(outboundRequestsTotal)
	prometheus.MustRegister(feedbackRequestsTotal)
	prometheus.MustRegister(feedbacksSavedTotal)
	prometheus.MustRegister(circuitBreakerState)
}

// RecordRequest записывает метрики для HTTP-запроса.
func RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

func RecordProbe(family, outcome string) {
	shardProbesTotal.WithLabelValues(family, outcome).Inc()
}

func RecordShardLookup(outcome string) {
	shardLookupsTotal.WithLabelValues(outcome).Inc()
}

// RecordOutbound counts a finished outbound call; statusCode 0 means transport error.
func RecordOutbound(statusCode int) {
	status := "error"
	if statusCode > 0 {
		status = classifyStatus(statusCode)
	}
	outboundRequestsTotal.WithLabelValues(status).Inc()
}

func RecordFeedbackRequest(host, outcome string) {
	feedbackRequestsTotal.WithLabelValues(host, outcome).Inc()
}

func RecordSavedFeedbacks(n int) {
	if n > 0 {
		feedbacksSavedTotal.Add(float64(n))
	}
}

func SetCircuitBreakerState(name string, state float64) {
	circuitBreakerState.WithLabelValues(name).Set(state)
}

// classifyStatus классифицирует HTTP-статус код в строку.
func classifyStatus(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "2xx"
	} else if statusCode >= 300 && statusCode < 400 {
		return "3xx"
	} else if statusCode >= 400 && statusCode < 500 {
		return "4xx"
	} else if statusCode >= 500 && statusCode < 600 {
		return "5xx"
	}
	return "unknown"
}

// MetricsHandler возвращает HTTP-обработчик для экспорта метрик Prometheus.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
