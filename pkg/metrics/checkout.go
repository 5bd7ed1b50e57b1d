package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records order placement outcomes.
type CheckoutMetrics struct {
	ordersCreated     prometheus.Counter
	checkoutFailures  *prometheus.CounterVec
	couponRedemptions prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders successfully placed.",
	})
	checkoutFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failures_total",
		Help: "Checkout submissions rejected, by error code.",
	}, []string{"code"})
	couponRedemptions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coupon_redemptions_total",
		Help: "Coupons redeemed on placed orders.",
	})
	reg.MustRegister(ordersCreated, checkoutFailures, couponRedemptions)
	return &CheckoutMetrics{
		ordersCreated:     ordersCreated,
		checkoutFailures:  checkoutFailures,
		couponRedemptions: couponRedemptions,
	}
}

// IncOrdersCreated increments the placed-order counter.
func (c *CheckoutMetrics) IncOrdersCreated() {
	if c == nil || c.ordersCreated == nil {
		return
	}
	c.ordersCreated.Inc()
}

// IncCheckoutFailure increments the failure counter for the given error code.
func (c *CheckoutMetrics) IncCheckoutFailure(code string) {
	if c == nil || c.checkoutFailures == nil {
		return
	}
	c.checkoutFailures.WithLabelValues(code).Inc()
}

// IncCouponRedemption increments the coupon redemption counter.
func (c *CheckoutMetrics) IncCouponRedemption() {
	if c == nil || c.couponRedemptions == nil {
		return
	}
	c.couponRedemptions.Inc()
}
