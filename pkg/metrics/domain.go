package metrics

import "github.com/prometheus/client_golang/prometheus"

// DomainMetrics counts business outcomes of the cart and order flows.
type DomainMetrics struct {
	ordersPlaced   prometheus.Counter
	orderFailures  *prometheus.CounterVec
	cartMutations  *prometheus.CounterVec
	couponRejected *prometheus.CounterVec
}

func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	m := &DomainMetrics{
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Orders committed by the placement pipeline.",
		}),
		orderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_placement_failures_total",
			Help: "Rejected or failed order placements by reason.",
		}, []string{"reason"}),
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Successful cart mutations by operation.",
		}, []string{"operation"}),
		couponRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coupon_validation_rejections_total",
			Help: "Coupon validations that failed, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.ordersPlaced, m.orderFailures, m.cartMutations, m.couponRejected)
	return m
}

func (m *DomainMetrics) IncOrderPlaced() {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.Inc()
}

func (m *DomainMetrics) IncOrderFailure(reason string) {
	if m == nil || m.orderFailures == nil {
		return
	}
	m.orderFailures.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *DomainMetrics) IncCartMutation(operation string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(operation)).Inc()
}

func (m *DomainMetrics) IncCouponRejected(reason string) {
	if m == nil || m.couponRejected == nil {
		return
	}
	m.couponRejected.WithLabelValues(normalizeLabel(reason)).Inc()
}
