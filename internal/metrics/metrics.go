package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the PDV counters exported on /metrics.
type Metrics struct {
	Checkouts      *prometheus.CounterVec
	CartRejections *prometheus.CounterVec
}

// New registers the counters on reg. Pass prometheus.DefaultRegisterer in
// main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdv",
			Name:      "checkouts_total",
			Help:      "Checkout attempts by outcome (success, validation, rejected).",
		}, []string{"outcome", "payment_method"}),
		CartRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdv",
			Name:      "cart_rejections_total",
			Help:      "Cart mutations refused locally, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.Checkouts, m.CartRejections)
	return m
}

func (m *Metrics) Checkout(outcome, method string) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(outcome, method).Inc()
}

func (m *Metrics) Rejection(reason string) {
	if m == nil {
		return
	}
	m.CartRejections.WithLabelValues(reason).Inc()
}
