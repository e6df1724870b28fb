// Package metrics exposes Prometheus collectors for scheduling decisions and
// HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry           *prometheus.Registry
	handler            http.Handler
	validations        *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec
	failures           *prometheus.CounterVec
	requestTotal       *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
}

// New registers the collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	validations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clinic",
		Name:      "schedule_validations_total",
		Help:      "Appointment candidates validated, by entry point and outcome",
	}, []string{"entry", "outcome", "stage", "reason"})

	validationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "clinic",
		Name:      "schedule_validation_duration_seconds",
		Help:      "Time spent validating a candidate, including store lookups",
		Buckets:   prometheus.DefBuckets,
	}, []string{"entry"})

	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clinic",
		Name:      "schedule_failures_total",
		Help:      "Scheduling calls that failed on a collaborator",
	}, []string{"entry"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clinic",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "clinic",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	registry.MustRegister(
		validations, validationDuration, failures, requestTotal, requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		validations:        validations,
		validationDuration: validationDuration,
		failures:           failures,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler { return m.handler }

// ObserveValidation records one validation outcome.
func (m *Metrics) ObserveValidation(entry, stage, reason string, accepted bool, elapsed time.Duration) {
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.validations.WithLabelValues(entry, outcome, stage, reason).Inc()
	m.validationDuration.WithLabelValues(entry).Observe(elapsed.Seconds())
}

// ObserveFailure records a collaborator failure.
func (m *Metrics) ObserveFailure(entry string) {
	m.failures.WithLabelValues(entry).Inc()
}

// Middleware counts requests by route template so ids do not explode the
// label space.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method
			m.requestTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			m.requestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
