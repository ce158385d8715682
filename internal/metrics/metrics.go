// Package metrics exposes Prometheus collectors for the HTTP API and the
// domain events published by the services.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dafibh/casa/casa-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry with the request and event collectors
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	eventsTotal     *prometheus.CounterVec
}

// NewMetrics initializes the registry and base collectors
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "casa_http_requests_total",
		Help: "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "casa_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "casa_domain_events_total",
		Help: "Domain events published, by event type.",
	}, []string{"type"})
	registry.MustRegister(requests, duration, events)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		eventsTotal:     events,
	}
}

// Handler returns the /metrics handler
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registerer exposes the registry for extra collectors
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// RegisterClientGauge reports the number of connected realtime clients
func (m *Metrics) RegisterClientGauge(hub *websocket.Hub) {
	if m == nil || hub == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "casa_websocket_clients",
		Help: "Connected realtime clients.",
	}, func() float64 {
		return float64(hub.TotalClientCount())
	}))
}

// Middleware records count and latency for every request. The route label is
// the registered echo path so ids do not blow up cardinality.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if m == nil {
			return next
		}
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unknown"
			}
			m.requestsTotal.WithLabelValues(route, c.Request().Method, strconv.Itoa(status)).Inc()
			m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// CountingPublisher counts events before handing them to next
type CountingPublisher struct {
	metrics *Metrics
	next    websocket.EventPublisher
}

// NewCountingPublisher wraps next. A nil next only counts.
func NewCountingPublisher(m *Metrics, next websocket.EventPublisher) *CountingPublisher {
	return &CountingPublisher{metrics: m, next: next}
}

// Publish implements websocket.EventPublisher
func (p *CountingPublisher) Publish(ownerID uuid.UUID, event websocket.Event) {
	if p.metrics != nil {
		p.metrics.eventsTotal.WithLabelValues(event.Type).Inc()
	}
	if p.next != nil {
		p.next.Publish(ownerID, event)
	}
}
