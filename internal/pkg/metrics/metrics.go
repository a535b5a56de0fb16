package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Booking operation outcomes used as the "outcome" label.
const (
	OutcomeSuccess    = "success"
	OutcomeValidation = "validation"
	OutcomeConflict   = "conflict"
	OutcomeRejected   = "rejected"
	OutcomeError      = "error"
)

// Metrics holds the collectors exported on /metrics.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// BookingOperationsTotal counts lifecycle operations (operation, outcome).
	BookingOperationsTotal *prometheus.CounterVec

	// BookingLockWait observes time spent waiting on the lab/day lock.
	BookingLockWait prometheus.Histogram

	// TimelineCacheTotal counts availability cache lookups (result: hit, miss, error).
	TimelineCacheTotal *prometheus.CounterVec
}

// New registers the collectors on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		BookingOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booking_operations_total",
				Help: "Booking lifecycle operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		BookingLockWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "booking_lock_wait_seconds",
				Help:    "Time spent acquiring the laboratory/day lock",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		TimelineCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "availability_cache_total",
				Help: "Availability timeline cache lookups",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BookingOperationsTotal,
		m.BookingLockWait,
		m.TimelineCacheTotal,
	)

	return m
}

// ObserveBooking records one lifecycle operation. Safe on a nil receiver.
func (m *Metrics) ObserveBooking(operation, outcome string) {
	if m == nil {
		return
	}
	m.BookingOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveLockWait records lock acquisition latency in seconds. Safe on a nil receiver.
func (m *Metrics) ObserveLockWait(seconds float64) {
	if m == nil {
		return
	}
	m.BookingLockWait.Observe(seconds)
}

// ObserveCache records a timeline cache lookup. Safe on a nil receiver.
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.TimelineCacheTotal.WithLabelValues(result).Inc()
}
