package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder is the subset of the collector used by domain services.
type Recorder interface {
	RecordLLMRequest(provider, outcome string, latency time.Duration)
	RecordEmailSend(provider, outcome string)
	RecordHistoryWrite(outcome string)
	RecordHTTPStatus(status int)
}

// Collector records service metrics in a Prometheus registry.
type Collector struct {
	registry      *prometheus.Registry
	llmRequests   *prometheus.CounterVec
	llmLatency    *prometheus.HistogramVec
	emailSends    *prometheus.CounterVec
	historyWrites *prometheus.CounterVec
	httpStatus    *prometheus.CounterVec
}

// NewCollector builds a collector on its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "summarizer_llm_requests_total",
			Help: "Chat completion requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "summarizer_llm_latency_seconds",
			Help:    "Chat completion latency by provider.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		}, []string{"provider"}),
		emailSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "summarizer_email_sends_total",
			Help: "Email dispatches by provider and outcome.",
		}, []string{"provider", "outcome"}),
		historyWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "summarizer_history_writes_total",
			Help: "Summary history inserts by outcome.",
		}, []string{"outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "summarizer_http_requests_total",
			Help: "HTTP responses by status code.",
		}, []string{"status"}),
	}
	c.registry.MustRegister(
		c.llmRequests,
		c.llmLatency,
		c.emailSends,
		c.historyWrites,
		c.httpStatus,
		prometheus.NewGoCollector(),
	)
	return c
}

func (c *Collector) RecordLLMRequest(provider, outcome string, latency time.Duration) {
	c.llmRequests.WithLabelValues(provider, outcome).Inc()
	c.llmLatency.WithLabelValues(provider).Observe(latency.Seconds())
}

func (c *Collector) RecordEmailSend(provider, outcome string) {
	c.emailSends.WithLabelValues(provider, outcome).Inc()
}

func (c *Collector) RecordHistoryWrite(outcome string) {
	c.historyWrites.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordHTTPStatus(status int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(status)).Inc()
}

// Gatherer exposes the registry for tests.
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.registry
}

// Handler serves the Prometheus scrape endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordLLMRequest(string, string, time.Duration) {}
func (Nop) RecordEmailSend(string, string)                 {}
func (Nop) RecordHistoryWrite(string)                      {}
func (Nop) RecordHTTPStatus(int)                           {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)
