package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cartItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_cart_items",
		Help: "Number of units currently in the cart",
	})

	cartValue = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_cart_value",
		Help: "Total price of the cart",
	})

	wishlistItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_wishlist_items",
		Help: "Number of products in the wishlist",
	})

	cartAdds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_adds_total",
		Help: "Accepted add-to-cart requests by outcome",
	}, []string{"result"})

	cartRejects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_rejects_total",
		Help: "Rejected add-to-cart requests by reason",
	}, []string{"reason"})

	checkouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_checkouts_total",
		Help: "Completed checkouts",
	})

	checkoutValue = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_checkout_value_total",
		Help: "Sum of completed checkout totals",
	})
)
