// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what usecases and middleware record into.
type Recorder interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
	RecordAuth(flow, outcome string)
	RecordMutation(kind, op, outcome string)
	RecordUpload(kind, outcome string)
	RecordApplication(outcome string)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	auth         *prometheus.CounterVec
	mutations    *prometheus.CounterVec
	uploads      *prometheus.CounterVec
	applications *prometheus.CounterVec
}

// NewCollector builds a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workwave_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "workwave_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		auth: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workwave_auth_total",
			Help: "Authentication flows by flow and outcome",
		}, []string{"flow", "outcome"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workwave_profile_mutations_total",
			Help: "Profile sub-resource mutations by kind, operation and outcome",
		}, []string{"kind", "op", "outcome"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workwave_uploads_total",
			Help: "File uploads by kind and outcome",
		}, []string{"kind", "outcome"}),
		applications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workwave_job_applications_total",
			Help: "Job applications by outcome",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.auth,
		c.mutations,
		c.uploads,
		c.applications,
	)
	return c
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) RecordAuth(flow, outcome string) {
	c.auth.WithLabelValues(flow, outcome).Inc()
}

func (c *Collector) RecordMutation(kind, op, outcome string) {
	c.mutations.WithLabelValues(kind, op, outcome).Inc()
}

func (c *Collector) RecordUpload(kind, outcome string) {
	c.uploads.WithLabelValues(kind, outcome).Inc()
}

func (c *Collector) RecordApplication(outcome string) {
	c.applications.WithLabelValues(outcome).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything. Used when no collector is wired.
type Nop struct{}

func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
func (Nop) RecordAuth(string, string)                            {}
func (Nop) RecordMutation(string, string, string)                {}
func (Nop) RecordUpload(string, string)                          {}
func (Nop) RecordApplication(string)                             {}

// Outcome labels an error as "ok" or "error".
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
