package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

type Metrics struct {
	CartMutations     *prometheus.CounterVec
	FavoriteMutations *prometheus.CounterVec
	CheckoutOutcomes  *prometheus.CounterVec
	CheckoutDuration  prometheus.Histogram
	OrdersConsumed    prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Cart mutations by operation and result.",
		}, []string{"operation", "result"}),
		FavoriteMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "favorite_mutations_total",
			Help:      "Favorites mutations by operation and result.",
		}, []string{"operation", "result"}),
		CheckoutOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_outcomes_total",
			Help:      "Checkout submissions by outcome.",
		}, []string{"outcome"}),
		CheckoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_duration_seconds",
			Help:      "Time from form submission to order confirmation.",
			Buckets:   []float64{0.1, 0.5, 1, 1.5, 2, 5, 10, 30},
		}),
		OrdersConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_consumed_total",
			Help:      "Orders recorded by the order consumer.",
		}),
	}
	reg.MustRegister(m.CartMutations, m.FavoriteMutations, m.CheckoutOutcomes, m.CheckoutDuration, m.OrdersConsumed)
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) ObserveCart(operation string, err error) {
	m.CartMutations.WithLabelValues(operation, result(err)).Inc()
}

func (m *Metrics) ObserveFavorite(operation string, err error) {
	m.FavoriteMutations.WithLabelValues(operation, result(err)).Inc()
}

func (m *Metrics) ObserveCheckout(outcome string, started time.Time) {
	m.CheckoutOutcomes.WithLabelValues(outcome).Inc()
	if outcome == "completed" {
		m.CheckoutDuration.Observe(time.Since(started).Seconds())
	}
}
