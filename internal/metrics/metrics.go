// Package metrics exposes service counters in Prometheus format.
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

// Metrics holds every collector of the service
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	fetches         *prometheus.CounterVec
	catalogSize     prometheus.Gauge
	filteredSize    prometheus.Gauge
	inquiries       *prometheus.CounterVec
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "estates_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "estates_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}, []string{"route"}),
		fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "estates_catalog_fetches_total",
			Help: "Catalog fetches by outcome",
		}, []string{"outcome"}),
		catalogSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "estates_catalog_listings",
			Help: "Listings held after the last successful fetch",
		}),
		filteredSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "estates_filtered_listings",
			Help: "Listings matching the active criteria",
		}),
		inquiries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "estates_inquiries_total",
			Help: "Contact inquiries by outcome",
		}, []string{"outcome"}),
	}
}

// FetchCompleted records a successful catalog fetch
func (m *Metrics) FetchCompleted(count int) {
	m.fetches.WithLabelValues("success").Inc()
	m.catalogSize.Set(float64(count))
}

// FetchFailed records a failed catalog fetch
func (m *Metrics) FetchFailed(err error) {
	m.fetches.WithLabelValues("failure").Inc()
}

// SetFiltered records the size of the filtered subset
func (m *Metrics) SetFiltered(n int) {
	m.filteredSize.Set(float64(n))
}

// InquiryHandled records a contact submission outcome
func (m *Metrics) InquiryHandled(success bool) {
	outcome := "sent"
	if !success {
		outcome = "failed"
	}
	m.inquiries.WithLabelValues(outcome).Inc()
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
