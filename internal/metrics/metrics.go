// Package metrics defines the Prometheus collectors for database traffic
// and tool calls, and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered by New.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	ToolCallsTotal   *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. A nil reg uses a
// fresh private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "couchdb_requests_total",
				Help: "Total CouchDB requests by method, endpoint and status code.",
			},
			[]string{"method", "endpoint", "code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "couchdb_request_duration_seconds",
				Help:    "CouchDB request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "endpoint"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "couchdb_requests_in_flight",
				Help: "Number of CouchDB requests currently in flight.",
			},
		),
		ToolCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "couchlab_tool_calls_total",
				Help: "Total MCP tool calls by tool and outcome.",
			},
			[]string{"tool", "outcome"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.ToolCallsTotal,
	)
	return m
}

// Handler returns the scrape handler for the registry passed to New.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ToolCall counts one tool invocation.
func (m *Metrics) ToolCall(tool string, ok bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.ToolCallsTotal.WithLabelValues(tool, outcome).Inc()
}

// InstrumentTransport wraps next so every request is counted and timed.
// A nil receiver returns next unchanged.
func (m *Metrics) InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if m == nil {
		return next
	}
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		endpoint := Endpoint(req.URL.Path)
		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		start := time.Now()
		resp, err := next.RoundTrip(req)
		m.RequestDuration.WithLabelValues(req.Method, endpoint).Observe(time.Since(start).Seconds())

		code := "error"
		if err == nil {
			code = strconv.Itoa(resp.StatusCode)
		}
		m.RequestsTotal.WithLabelValues(req.Method, endpoint, code).Inc()
		return resp, err
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Endpoint reduces a request path to a bounded label value, so document
// IDs never become label values.
func Endpoint(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(parts) == 0 || parts[0] == "":
		return "root"
	case strings.HasPrefix(parts[0], "_"):
		return parts[0]
	case len(parts) == 1:
		return "database"
	case parts[1] == "_design":
		if len(parts) >= 4 {
			return "design/" + parts[3]
		}
		return "design"
	case strings.HasPrefix(parts[1], "_"):
		return parts[1]
	default:
		return "document"
	}
}
