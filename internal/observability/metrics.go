package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	httpErrorsTotal      *prometheus.CounterVec
	mockTestsStarted     *prometheus.CounterVec
	mockTestsSubmitted   *prometheus.CounterVec
	mockTestScorePercent *prometheus.HistogramVec
	questionPoolLookups  *prometheus.CounterVec
	chatMessagesSent     *prometheus.CounterVec
	chatConnectionsTotal prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quizhub_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quizhub_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quizhub_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		mockTestsStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quizhub_mock_tests_started_total",
			Help: "Mock test sessions started per course.",
		}, []string{"course"})

		mockTestsSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quizhub_mock_tests_submitted_total",
			Help: "Mock test submissions scored per course.",
		}, []string{"course"})

		mockTestScorePercent = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quizhub_mock_test_score_percent",
			Help:    "Distribution of submitted mock test percentages.",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}, []string{"course"})

		questionPoolLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quizhub_question_pool_lookups_total",
			Help: "Question pool sampling outcomes by source.",
		}, []string{"source"})

		chatMessagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quizhub_chat_messages_total",
			Help: "Community chat messages delivered to local subscribers by origin.",
		}, []string{"origin"})

		chatConnectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quizhub_chat_connections_total",
			Help: "Websocket chat connections accepted.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			mockTestsStarted,
			mockTestsSubmitted,
			mockTestScorePercent,
			questionPoolLookups,
			chatMessagesSent,
			chatConnectionsTotal,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error response counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// MockTestsStarted counts started sessions.
func MockTestsStarted() *prometheus.CounterVec {
	RegisterMetrics()
	return mockTestsStarted
}

// MockTestsSubmitted counts scored submissions.
func MockTestsSubmitted() *prometheus.CounterVec {
	RegisterMetrics()
	return mockTestsSubmitted
}

// MockTestScorePercent observes submission percentages.
func MockTestScorePercent() *prometheus.HistogramVec {
	RegisterMetrics()
	return mockTestScorePercent
}

// QuestionPoolLookups counts cache hits, fills and database fallbacks.
func QuestionPoolLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return questionPoolLookups
}

// ChatMessagesSent counts chat messages broadcast to local subscribers.
func ChatMessagesSent() *prometheus.CounterVec {
	RegisterMetrics()
	return chatMessagesSent
}

// ChatConnectionsTotal counts accepted websocket connections.
func ChatConnectionsTotal() prometheus.Counter {
	RegisterMetrics()
	return chatConnectionsTotal
}

// MetricsHandler serves the default registry for Prometheus scrapes. A collector
// that fails to gather is skipped rather than failing the whole scrape.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	}))
}
