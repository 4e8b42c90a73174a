package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/strataweb/strata/pkg/chain"
	"github.com/strataweb/strata/pkg/web"
)

// Metrics collects Prometheus metrics for dispatched requests: a request
// counter and duration histogram labeled by method/path/status, and an
// in-flight gauge.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewMetrics creates a Metrics collector registered under the given
// namespace in its own registry.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of dispatched requests.",
		}, []string{"method", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request duration through the full middleware chain.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requests_in_flight",
			Help:      "Number of requests currently being dispatched.",
		}),
	}
	registry.MustRegister(m.requests, m.duration, m.inFlight)
	return m
}

// Middleware returns the chain stage that records metrics around the
// downstream stages. A downstream error without a response counts as 500.
func (m *Metrics) Middleware() chain.Middleware {
	return func(r *web.Request, next chain.Next) (*web.Response, error) {
		m.inFlight.Inc()
		start := time.Now()

		resp, err := next(r)

		m.inFlight.Dec()
		status := http.StatusInternalServerError
		if resp != nil {
			status = resp.StatusCode
		}
		labels := []string{r.Method, r.Path, strconv.Itoa(status)}
		m.requests.WithLabelValues(labels...).Inc()
		m.duration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		return resp, err
	}
}

// Handler returns an http.Handler exposing the collected metrics in
// Prometheus text format, for mounting on a diagnostics port.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry, for registering
// application metrics alongside the request metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
