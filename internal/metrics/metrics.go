// Package metrics exposes Prometheus counters for the trade and
// credit cores.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tradeup",
		Name:      "orders_created_total",
		Help:      "Orders created by the trade orchestrator.",
	})
	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tradeup",
		Name:      "order_transitions_total",
		Help:      "Order state machine transitions by action.",
	}, []string{"action"})
	CreditEventsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tradeup",
		Name:      "credit_events_applied_total",
		Help:      "Credit events written to the ledger.",
	})
	CreditEventsDeduped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tradeup",
		Name:      "credit_events_deduped_total",
		Help:      "Credit events skipped by the idempotency key.",
	})
	CreditLedgerFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tradeup",
		Name:      "credit_ledger_failures_total",
		Help:      "Best-effort credit side effects that failed and were swallowed.",
	})
	ListingsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tradeup",
		Name:      "listings_published_total",
		Help:      "Products published to the market.",
	})
)

// Handler serves the default registry; main mounts it at /metrics via
// fiber's net/http adaptor.
func Handler() http.Handler { return promhttp.Handler() }
