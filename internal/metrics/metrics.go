// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CancellationsTotal counts subscription cancellation attempts by result.
	CancellationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blocks",
		Name:      "subscription_cancellations_total",
		Help:      "Subscription cancellation attempts by result.",
	}, []string{"result"})

	// InstallsTotal counts install/refresh runs by trigger.
	InstallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blocks",
		Name:      "shop_installs_total",
		Help:      "Install/refresh runs by trigger.",
	}, []string{"trigger"})

	// WebhookEventsTotal counts deploy webhook deliveries by outcome.
	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blocks",
		Name:      "deploy_webhook_events_total",
		Help:      "Deploy webhook deliveries by outcome.",
	}, []string{"outcome"})

	// CatalogFallbacksTotal counts degraded-mode catalog reads.
	CatalogFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "blocks",
		Name:      "catalog_fallbacks_total",
		Help:      "Catalog reads served from the static sample catalog.",
	})

	// PurchaseTransitionsTotal counts purchase status transitions.
	PurchaseTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blocks",
		Name:      "purchase_transitions_total",
		Help:      "Purchase status transitions by target status.",
	}, []string{"to"})
)
