package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	vendorRequestsTotal *prometheus.CounterVec
	vendorDuration      *prometheus.HistogramVec
	enhanceRequests     *prometheus.CounterVec
	enhanceShortCircuit prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medscribe_http_requests_total",
				Help: "Total number of HTTP requests handled.",
			},
			[]string{"route", "method", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "medscribe_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
		vendorRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medscribe_vendor_requests_total",
				Help: "Total outbound vendor API requests.",
			},
			[]string{"vendor", "endpoint", "status"},
		),
		vendorDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "medscribe_vendor_request_duration_seconds",
				Help:    "Outbound vendor request duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"vendor", "endpoint", "status"},
		),
		enhanceRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medscribe_enhance_requests_total",
				Help: "Enhancement requests by mode.",
			},
			[]string{"mode"},
		),
		enhanceShortCircuit: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "medscribe_enhance_short_circuit_total",
				Help: "Enhancement requests answered locally without a vendor call.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.vendorRequestsTotal,
		m.vendorDuration,
		m.enhanceRequests,
		m.enhanceShortCircuit,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	if method == "" {
		method = "UNKNOWN"
	}
	statusLabel := strconv.Itoa(status)
	m.httpRequestsTotal.WithLabelValues(route, method, statusLabel).Inc()
	m.httpRequestDuration.WithLabelValues(route, method, statusLabel).Observe(duration.Seconds())
}

// VendorObserver returns an observer hook bound to a vendor label, wired into
// the upstream clients.
func (m *Metrics) VendorObserver(vendor string) func(endpoint string, status int, duration time.Duration) {
	return func(endpoint string, status int, duration time.Duration) {
		m.ObserveVendor(vendor, endpoint, status, duration)
	}
}

func (m *Metrics) ObserveVendor(vendor, endpoint string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	statusLabel := strconv.Itoa(status)
	m.vendorRequestsTotal.WithLabelValues(vendor, endpoint, statusLabel).Inc()
	m.vendorDuration.WithLabelValues(vendor, endpoint, statusLabel).Observe(duration.Seconds())
}

func (m *Metrics) IncEnhanceRequest(mode string) {
	if m == nil {
		return
	}
	if mode == "" {
		mode = "unknown"
	}
	m.enhanceRequests.WithLabelValues(mode).Inc()
}

func (m *Metrics) IncEnhanceShortCircuit() {
	if m == nil {
		return
	}
	m.enhanceShortCircuit.Inc()
}
