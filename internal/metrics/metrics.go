// Package metrics exposes Prometheus counters for graph mutations.
// Partial writes are counted separately so that an operator can alert on
// mirror-edge inconsistencies and run a repair.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"groupevents/internal/domain"
)

const namespace = "groupevents"

// Outcome labels recorded for each operation.
const (
	OutcomeOK           = "ok"
	OutcomeViolation    = "violation"
	OutcomeNotFound     = "not_found"
	OutcomeUnavailable  = "store_unavailable"
	OutcomePartialWrite = "partial_write"
	OutcomeError        = "error"
)

// Metrics contains the coordinator metrics.
type Metrics struct {
	Operations    *prometheus.CounterVec
	Violations    *prometheus.CounterVec
	PartialWrites *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mutations",
				Name:      "total",
				Help:      "Mutations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		Violations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mutations",
				Name:      "violations_total",
				Help:      "Rejected mutations by operation and violation tag",
			},
			[]string{"operation", "tag"},
		),
		PartialWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mutations",
				Name:      "partial_writes_total",
				Help:      "Mutations whose mirror edge write failed after the primary write succeeded",
			},
			[]string{"operation", "mirror_kind"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "mutations",
				Name:      "duration_seconds",
				Help:      "Mutation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
	reg.MustRegister(m.Operations, m.Violations, m.PartialWrites, m.Duration)
	return m
}

// Outcome classifies err into one of the outcome labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case domain.IsViolation(err):
		return OutcomeViolation
	case errors.Is(err, domain.ErrPartialWrite):
		return OutcomePartialWrite
	case errors.Is(err, domain.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, domain.ErrStoreUnavailable):
		return OutcomeUnavailable
	default:
		return OutcomeError
	}
}

// Observe records one finished operation.
func (m *Metrics) Observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := Outcome(err)
	m.Operations.WithLabelValues(op, outcome).Inc()
	m.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	var v *domain.Violation
	if errors.As(err, &v) {
		m.Violations.WithLabelValues(op, string(v.Tag)).Inc()
	}
	var pw *domain.PartialWriteError
	if errors.As(err, &pw) {
		m.PartialWrites.WithLabelValues(op, string(pw.Mirror.Kind)).Inc()
	}
}

// HTTPMetrics contains the request metrics recorded by the HTTP middleware.
type HTTPMetrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewHTTP creates the HTTP metrics and registers them with reg.
func NewHTTP(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
	reg.MustRegister(m.Requests, m.Duration)
	return m
}
