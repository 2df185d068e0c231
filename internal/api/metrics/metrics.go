// Package metrics defines and registers the custom Prometheus metrics of the
// library API. It is the single source of truth for metric names, labels, and help
// strings. Metrics register with the default registry at package init through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "library"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// AuthzDecisionsTotal counts authorization policy decisions.
// Labels:
//   - endpoint: the rule name (e.g. "purchase", "manage-books")
//   - decision: "allow" or "deny"
var AuthzDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authz_decisions_total",
		Help:      "Total number of authorization decisions, by endpoint rule and decision.",
	},
	[]string{"endpoint", "decision"},
)

// ── Purchase metrics ──────────────────────────────────────────────────────────

// PurchasesTotal counts purchase requests that reached the purchase service.
// Label:
//   - result: "success", "replayed", "not_found", "insufficient_stock", "conflict",
//     "invalid", "unavailable" or "error"
var PurchasesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "purchases_total",
		Help:      "Total number of purchase requests, by result.",
	},
	[]string{"result"},
)

// PurchasedUnitsTotal counts units removed from stock by successful purchases.
var PurchasedUnitsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "purchased_units_total",
		Help:      "Total number of catalog units sold.",
	},
)

// PurchaseDuration measures purchase latency from request to committed archive record.
var PurchaseDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "purchase_duration_seconds",
		Help:      "Duration of the purchase transaction, including retries.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
)
