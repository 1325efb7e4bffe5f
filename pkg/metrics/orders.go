package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "orderstock"

// Compensation results.
const (
	CompensationReleased = "released"
	CompensationFailed   = "failed"
	// stock kept reserved because the order may have been stored
	CompensationWithheld = "withheld"
)

// OrderMetrics records the reserve/persist/compensate lifecycle of order creation.
type OrderMetrics struct {
	created       prometheus.Counter
	reservations  *prometheus.CounterVec
	compensations *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Orders persisted successfully.",
	})
	reservations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_reservations_total",
		Help:      "Inventory reservation attempts by outcome.",
	}, []string{"outcome"})
	compensations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_compensations_total",
		Help:      "Inventory releases issued after a failed persist, by result.",
	}, []string{"result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "order_create_duration_seconds",
		Help:      "End-to-end latency of CreateOrder by result code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"result"})
	reg.MustRegister(created, reservations, compensations, duration)
	return &OrderMetrics{
		created:       created,
		reservations:  reservations,
		compensations: compensations,
		duration:      duration,
	}
}

func (m *OrderMetrics) IncCreated() {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
}

func (m *OrderMetrics) IncReservation(outcome string) {
	if m == nil || m.reservations == nil {
		return
	}
	m.reservations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *OrderMetrics) IncCompensation(result string) {
	if m == nil || m.compensations == nil {
		return
	}
	m.compensations.WithLabelValues(normalizeLabel(result)).Inc()
}

// ObserveCreate records how long CreateOrder took; result is "ok" or an error code.
func (m *OrderMetrics) ObserveCreate(result string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(result)).Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
