// Package metrics exports cart activity to Prometheus. CartMetrics is a cart
// renderer, so it observes every change the same way a display does.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
)

// CartMetrics records cart changes for one host (http or tui).
type CartMetrics struct {
	host        string
	changes     *prometheus.CounterVec
	itemCount   *prometheus.HistogramVec
	totalAmount *prometheus.HistogramVec
	payRequests *prometheus.CounterVec
}

// New registers the cart metrics with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer, host string) *CartMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &CartMetrics{
		host: host,
		changes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_cart_changes_total",
				Help: "Total number of cart changes",
			},
			[]string{"host"},
		),
		itemCount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storefront_cart_item_count",
				Help:    "Number of items in a cart after each change",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
			},
			[]string{"host"},
		),
		totalAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storefront_cart_total_amount",
				Help:    "Cart total after each change",
				Buckets: []float64{0, 10, 25, 50, 100, 250, 500, 1000, 2500},
			},
			[]string{"host"},
		),
		payRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_cart_pay_requests_total",
				Help: "Total number of Pay Now requests",
			},
			[]string{"host"},
		),
	}
}

// OnCartChanged records one change.
func (m *CartMetrics) OnCartChanged(_ []domain.CartLine, total decimal.Decimal, itemCount int) {
	m.changes.WithLabelValues(m.host).Inc()
	m.itemCount.WithLabelValues(m.host).Observe(float64(itemCount))
	m.totalAmount.WithLabelValues(m.host).Observe(total.InexactFloat64())
}

// PayRequested records a Pay Now action.
func (m *CartMetrics) PayRequested() {
	m.payRequests.WithLabelValues(m.host).Inc()
}

// RegisterSessionGauge exports the number of live sessions as reported by
// count.
func RegisterSessionGauge(reg prometheus.Registerer, count func() int) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	promauto.With(reg).NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "storefront_sessions_active",
			Help: "Number of live cart sessions",
		},
		func() float64 { return float64(count()) },
	)
}
