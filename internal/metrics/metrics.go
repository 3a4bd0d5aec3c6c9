// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resolution outcomes.
const (
	OutcomeRedirected    = "redirected"
	OutcomeNotFound      = "not_found"
	OutcomeNoDestination = "no_destination"
	OutcomeUnavailable   = "unavailable"
)

type Metrics struct {
	registry *prometheus.Registry

	Resolutions     *prometheus.CounterVec
	ClicksAppended  prometheus.Counter
	LinksCreated    prometheus.Counter
	Upstream        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New registers all collectors, plus the Go and process collectors, on a
// dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smartlink_resolutions_total",
			Help: "SmartLink resolutions by outcome",
		}, []string{"outcome"}),
		ClicksAppended: factory.NewCounter(prometheus.CounterOpts{
			Name: "smartlink_clicks_appended_total",
			Help: "Click events appended to SmartLink records",
		}),
		LinksCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "smartlink_created_total",
			Help: "SmartLinks created",
		}),
		Upstream: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Third-party API calls by service and outcome",
		}, []string{"service", "outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "operation", "status"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveUpstream matches upstream.Observer.
func (m *Metrics) ObserveUpstream(service, outcome string) {
	m.Upstream.WithLabelValues(service, outcome).Inc()
}

func (m *Metrics) ObserveRequest(method, operation string, status int, d time.Duration) {
	m.RequestDuration.WithLabelValues(method, operation, strconv.Itoa(status)).Observe(d.Seconds())
}

// ObserveResolution counts one resolution. A redirect always carries exactly
// one appended click.
func (m *Metrics) ObserveResolution(outcome string) {
	m.Resolutions.WithLabelValues(outcome).Inc()

	if outcome == OutcomeRedirected {
		m.ClicksAppended.Inc()
	}
}

func (m *Metrics) ObserveLinkCreated() {
	m.LinksCreated.Inc()
}
